package cmd

import (
	"github.com/relloyd/shipetl/actions"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, transform and load the shipping star schema",
	Long: `Extract full snapshots of the source tables, load the three dimensions and resolve
their surrogate keys, then load the fact table. Fact rows that reference a missing
dimension member are dropped and counted in the report.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = executeJob(cmd.Context(), cliJobOptions(cmd), actions.RunShippingEtl)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func cliJobOptions(cmd *cobra.Command) jobOptions {
	return jobOptions{
		v:            appViper,
		configFile:   jobFlags.configFile,
		reportFormat: jobFlags.report,
		out:          cmd.OutOrStdout(),
		stackDump:    stackDumpOnPanic,
	}
}
