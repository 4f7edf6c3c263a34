package cmd

import (
	"github.com/relloyd/shipetl/actions"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check both databases are reachable without moving any data",
	Long: `Connect to the PostgreSQL source and the Snowflake target, run a trivial query against
each and set up the warehouse session. Exits with the same codes as 'run'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = executeJob(cmd.Context(), cliJobOptions(cmd), actions.CheckConnectivity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
