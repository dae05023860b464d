package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/recurrence"
	"github.com/warp/recurring-engine/report"
)

func reportCmd(a *app) *cobra.Command {
	var asOf, department, user string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the daily report",
		Long: `Print the ordered daily report rows.

Examples:
  taskctl report
  taskctl report --as-of 2024-03-12 --department fin
  taskctl report --user alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dateFlag("as-of", asOf, a.engine.Day(time.Now()))
			if err != nil {
				return err
			}
			rep, err := a.engine.BuildReport(cmd.Context(), day, report.Filter{
				DepartmentID: generic.DepartmentID(department),
				UserID:       generic.UserID(user),
			})
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Report day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&department, "department", "", "Department id filter")
	cmd.Flags().StringVar(&user, "user", "", "User id filter")
	return cmd
}

func weeklyCmd(a *app) *cobra.Command {
	var week, department string

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Print the weekly planning table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := a.engine.Day(time.Now())
			start, err := dateFlag("week", week, today)
			if err != nil {
				return err
			}
			table, err := a.engine.BuildWeeklyTable(cmd.Context(), start, today, generic.DepartmentID(department))
			if err != nil {
				return err
			}
			writeWeekly(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "Any day of the week (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&department, "department", "", "Department id filter")
	return cmd
}

func templatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List recurrence templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.templates.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			writeTemplates(cmd.OutOrStdout(), templates)
			return nil
		},
	}
}

func occurrencesCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "occurrences TEMPLATE_ID",
		Short: "Preview a template's occurrences with their ledger status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today := a.engine.Day(time.Now())
			start, err := dateFlag("from", from, today)
			if err != nil {
				return err
			}
			end, err := dateFlag("to", to, start.AddDays(30))
			if err != nil {
				return err
			}
			occs, err := a.engine.Occurrences(cmd.Context(), generic.TemplateID(args[0]), start, end, today)
			if err != nil {
				return err
			}
			writeOccurrences(cmd.OutOrStdout(), occs)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD, default from + 30 days)")
	return cmd
}

func recordCmd(a *app) *cobra.Command {
	var comment, by string

	cmd := &cobra.Command{
		Use:   "record TEMPLATE_ID DATE STATUS",
		Short: "Record an action on one occurrence (open, done, not_done, skipped)",
		Long: `Record an action on one occurrence. The last write wins.

Examples:
  taskctl record bank-rec 2024-03-12 done --by alice
  taskctl record bank-rec 2024-03-11 skipped --comment "bank holiday"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := generic.ParseDate(args[1])
			if err != nil {
				return err
			}
			status := recurrence.Status(args[2])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", args[2])
			}
			row, err := a.engine.RecordAction(cmd.Context(), report.Action{
				TemplateID: generic.TemplateID(args[0]),
				Date:       day,
				Status:     status,
				Comment:    comment,
				ActedBy:    generic.UserID(by),
			}, time.Now())
			if err != nil {
				return err
			}
			writeRows(cmd.OutOrStdout(), []report.Row{*row})
			return nil
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Free-text comment")
	cmd.Flags().StringVar(&by, "by", "", "User id who acted")
	return cmd
}
