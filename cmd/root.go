package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/relloyd/shipetl/config"
	"github.com/relloyd/shipetl/constants"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2024-01-02T03:04+0000"
	stackDumpOnPanic bool
	exitCode         int
)

var rootCmd = &cobra.Command{
	Use:   constants.ServiceName,
	Short: "Load shipping operational data into a Snowflake star schema",
	Long: `shipetl reads the customers, ships, ports, shipments and shipment_items tables from
PostgreSQL, reshapes them into DIM_CUSTOMERS, DIM_SHIPS, DIM_PORTS and FACT_SHIPMENTS and
upserts them into Snowflake using a staging table and MERGE per target.
Re-running with unchanged source data leaves the warehouse unchanged.

Exit codes: 0 success; 1 source unreachable; 2 target unreachable; 3 run failure;
4 configuration error.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// jobFlags holds values given on the command line; viper carries them into config.AppConfig.
var jobFlags = struct {
	configFile     string
	logLevel       string
	passwordSource string
	report         string
	batchSize      int
	maxDropPercent float64
	tablesFile     string
	rejectsDir     string
	rejectsGzip    bool
	failFast       bool
}{}

var appViper = config.NewViper()

func init() {
	// General setup.
	cobra.EnableCommandSorting = false
	// Global flags.
	switches.addFlag(rootCmd, nil, &jobFlags.configFile, "config", "", "")
	_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	switches.addFlag(rootCmd, appViper, &jobFlags.logLevel, "log-level", constants.LogLevelDefault, "")
	switches.addFlag(rootCmd, appViper, &jobFlags.passwordSource, "password-source", constants.PasswordSourceEnv, "")
	switches.addFlag(rootCmd, nil, &jobFlags.report, "report", constants.ReportFormatYaml, "")
	switches.addFlag(rootCmd, appViper, &jobFlags.batchSize, "batch-size", constants.StagingBatchSizeDefault, "")
	switches.addFlag(rootCmd, appViper, &jobFlags.maxDropPercent, "max-drop-percent", constants.MaxDropPercentDefault, "")
	switches.addFlag(rootCmd, appViper, &jobFlags.tablesFile, "tables-file", "", "")
	switches.addFlag(rootCmd, appViper, &jobFlags.rejectsDir, "rejects-dir", "", "")
	switches.addFlag(rootCmd, appViper, &jobFlags.rejectsGzip, "rejects-gzip", false, "")
	switches.addFlag(rootCmd, appViper, &jobFlags.failFast, "fail-fast", false, "")
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode { // if we should handle lambda execution...
			lambda.Start(func(ctx context.Context) error { return execute12FactorMode(ctx, twelveFactorActions) })
			return
		}
		if err := execute12FactorMode(context.Background(), twelveFactorActions); err != nil {
			// execute12FactorMode logs the error.
			os.Exit(exitCode)
		}
		return
	}
	// else we're using CLI args and flags via Cobra...
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if exitCode == constants.ExitCodeOK {
			exitCode = constants.ExitCodeConfigError // cobra rejected the arguments.
		}
	}
	if exitCode != constants.ExitCodeOK {
		os.Exit(exitCode)
	}
}
