/*
taskctl - Command-line access to the recurring-task engine

PURPOSE:
  Prints the daily report, the weekly table and template occurrence previews
  straight from the databases the server uses, and records occurrence
  actions without going through HTTP.

COMMANDS:
  taskctl report       [--as-of DATE] [--department ID] [--user ID]
  taskctl weekly       [--week DATE] [--department ID]
  taskctl templates
  taskctl occurrences  TEMPLATE_ID [--from DATE] [--to DATE]
  taskctl record       TEMPLATE_ID DATE STATUS [--comment TEXT] [--by USER]

STORAGE:
  --config reads the same YAML as the server. --db and --directory override
  the two database paths.

SEE ALSO:
  - cmd/server/main.go: HTTP server over the same engine
  - report/engine.go: Operations invoked here
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "taskctl",
		Short: "Inspect recurring-task reports and record occurrence actions",
		Long: `taskctl reads the template/ledger and directory databases directly.
It prints the same rows the HTTP API returns.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Path to the server YAML config")
	rootCmd.PersistentFlags().StringVar(&app.dbPath, "db", "", "Template/ledger database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&app.directoryPath, "directory", "", "Directory database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&app.verbose, "verbose", false, "Log engine diagnostics to stderr")

	rootCmd.AddCommand(reportCmd(app))
	rootCmd.AddCommand(weeklyCmd(app))
	rootCmd.AddCommand(templatesCmd(app))
	rootCmd.AddCommand(occurrencesCmd(app))
	rootCmd.AddCommand(recordCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
