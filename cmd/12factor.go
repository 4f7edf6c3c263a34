package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relloyd/shipetl/actions"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set before the other init() functions configure Cobra.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == constants.TwelveFactorModeLambda
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

var (
	envVarTwelveFactorMode = helper.GetEnvVarName("12FACTOR_MODE")
	envVarCommand          = helper.GetEnvVarName("COMMAND")
	envVarReport           = helper.GetEnvVarName("REPORT")
	envVarStackDump        = helper.GetEnvVarName("STACK_DUMP")
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
)

var twelveFactorActions = map[string]jobRunner{
	"run":   actions.RunShippingEtl,
	"check": actions.CheckConnectivity,
}

// execute12FactorMode runs the command named by envVarCommand (default "run") using settings
// from the environment only. The exit code is saved in exitCode.
func execute12FactorMode(ctx context.Context, acts map[string]jobRunner) error {
	log := logger.NewLogger(constants.ServiceName, constants.LogLevelDefault, false)
	log.SetJSONFormat()
	log.Info("running in 12 Factor mode...")
	command := helper.ReadValueFromEnvWithDefault(envVarCommand, "run")
	runner, ok := acts[command]
	if !ok {
		exitCode = constants.ExitCodeConfigError
		err := fmt.Errorf("invalid command %q in %v", command, envVarCommand)
		log.Error(err.Error())
		return err
	}
	exitCode = executeJob(ctx, jobOptions{
		v:            appViper,
		reportFormat: helper.ReadValueFromEnvWithDefault(envVarReport, constants.ReportFormatJson),
		out:          os.Stdout,
		jsonLogs:     true,
		stackDump:    helper.GetTrueFalseStringAsBool(os.Getenv(envVarStackDump)),
	}, runner)
	if exitCode != constants.ExitCodeOK {
		return fmt.Errorf("%v failed with exit code %v", command, exitCode)
	}
	return nil
}
