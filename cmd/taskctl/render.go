package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

// Coloured columns go last on each line; escape codes would otherwise
// throw off tabwriter alignment.

func statusColor(status string) *color.Color {
	switch recurrence.Status(status) {
	case recurrence.StatusDone:
		return color.New(color.FgGreen)
	case recurrence.StatusSkipped:
		return color.New(color.FgCyan)
	case recurrence.StatusNotDone:
		return color.New(color.FgRed)
	}
	switch report.TaskStatus(status) {
	case report.TaskInProgress:
		return color.New(color.FgYellow)
	case report.TaskDone:
		return color.New(color.FgGreen)
	}
	return color.New(color.Reset)
}

func agingColor(label string) *color.Color {
	switch label {
	case report.AgingToday:
		return color.New(color.FgGreen)
	case report.AgingYesterday:
		return color.New(color.FgYellow)
	case report.AgingNone:
		return color.New(color.Reset)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func writeReport(out io.Writer, rep *report.Report) {
	fmt.Fprintf(out, "Daily report %s", rep.AsOf)
	if rep.Filter.DepartmentID != "" {
		fmt.Fprintf(out, "  department=%s", rep.Filter.DepartmentID)
	}
	if rep.Filter.UserID != "" {
		fmt.Fprintf(out, "  user=%s", rep.Filter.UserID)
	}
	fmt.Fprintf(out, "  (%d rows)\n\n", len(rep.Rows))

	writeRows(out, rep.Rows)

	for _, d := range rep.Diagnostics {
		fmt.Fprintf(out, "%s template %s skipped: %s\n", color.New(color.FgYellow).Sprint("!"), d.TemplateID, d.Message)
	}
}

func writeRows(out io.Writer, rows []report.Row) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSUB\tPERIOD\tDEPT\tPRIO\tTITLE\tAGING\tSTATUS")
	fmt.Fprintln(w, "----\t---\t------\t----\t----\t-----\t-----\t------")
	for _, r := range rows {
		title := r.Title
		if r.Inactive {
			title += " (inactive)"
		}
		if r.Comment != "" {
			title += " [" + r.Comment + "]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TypeLabel, r.Subtype, r.Period, r.DepartmentLabel, r.Priority, title,
			agingColor(r.AgingLabel).Sprint(r.AgingLabel),
			statusColor(r.EffectiveStatus).Sprint(r.EffectiveStatus),
		)
	}
	w.Flush()
}

func writeWeekly(out io.Writer, t *report.WeeklyTable) {
	fmt.Fprintf(out, "Week %s\n", t.Week)
	for _, dep := range t.Departments {
		fmt.Fprintf(out, "\n%s %s\n", color.New(color.Bold).Sprint(dep.Department.Code), dep.Department.Name)
		for _, day := range dep.Days {
			fmt.Fprintf(out, "  %s %s\n", day.Weekday, day.Date)
			for _, slot := range day.Slots {
				for _, cell := range slot.Users {
					if len(cell.Projects)+len(cell.SystemTasks)+len(cell.FastTasks) == 0 {
						continue
					}
					fmt.Fprintf(out, "    %s %s\n", slot.Period, cell.User.Name)
					for _, p := range cell.Projects {
						fmt.Fprintf(out, "      PRJK %s: %d task(s), %s daily products\n", p.Name, p.TaskCount, p.DailyProducts.String())
					}
					for _, r := range cell.SystemTasks {
						fmt.Fprintf(out, "      SYS  %s %s\n", r.Title, statusColor(r.EffectiveStatus).Sprint(r.EffectiveStatus))
					}
					for _, r := range cell.FastTasks {
						fmt.Fprintf(out, "      FT   %s %s\n", r.Title, statusColor(r.EffectiveStatus).Sprint(r.EffectiveStatus))
					}
				}
			}
		}
	}
}

func writeTemplates(out io.Writer, templates []recurrence.Template) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tFREQ\tSCOPE\tASSIGNEES\tACTIVE")
	fmt.Fprintln(w, "--\t-----\t----\t-----\t---------\t------")
	for _, t := range templates {
		scope := "-"
		if t.Scope != nil {
			scope = string(t.Scope.Kind())
			if dep, ok := recurrence.DepartmentOf(t.Scope); ok {
				scope += ":" + string(dep)
			}
		}
		assignees := make([]string, len(t.Assignees))
		for i, a := range t.Assignees {
			assignees[i] = string(a)
		}
		active := color.New(color.FgGreen).Sprint("yes")
		if !t.IsActive {
			active = color.New(color.FgRed).Sprint("no")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Frequency, scope, strings.Join(assignees, ","), active)
	}
	w.Flush()
}

func writeOccurrences(out io.Writer, occs []report.OccurrenceStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tBY\tCOMMENT\tSTATUS")
	fmt.Fprintln(w, "----\t---\t--\t-------\t------")
	for _, o := range occs {
		by := string(o.ActedBy)
		if by == "" {
			by = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.Date, o.Date.Weekday().String()[:3], by, o.Comment,
			statusColor(string(o.Status)).Sprint(o.Status))
	}
	w.Flush()
}
