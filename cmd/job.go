package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/relloyd/shipetl/actions"
	"github.com/relloyd/shipetl/config"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stats"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
	"github.com/spf13/viper"
)

const reportFormatNone = "none"

// jobRunner is actions.RunShippingEtl or actions.CheckConnectivity.
type jobRunner func(ctx context.Context, cfg *actions.ShippingEtlConfig) *actions.RunResult

type jobOptions struct {
	v            *viper.Viper
	configFile   string
	reportFormat string
	out          io.Writer // where the report is printed.
	logOut       io.Writer // optional; logs go to stderr when nil.
	jsonLogs     bool
	stackDump    bool
	newProvider  func(cfg *config.AppConfig) (config.CredentialProvider, error)
}

// executeJob builds the validated configuration, runs the job and prints the report.
// It returns the process exit code.
func executeJob(ctx context.Context, opts jobOptions, runner jobRunner) int {
	log := newLogger(opts, constants.LogLevelDefault)
	cfg, cat, err := loadAppConfig(ctx, opts)
	if err != nil {
		log.Error(err)
		return actions.ExitCode(err)
	}
	log = newLogger(opts, cfg.LogLevel)
	res := runner(ctx, &actions.ShippingEtlConfig{Log: log, App: cfg, Catalog: cat})
	if err := printReport(opts.out, res.Report(), opts.reportFormat); err != nil {
		log.Error("unable to print report: ", err)
	}
	return res.ExitCode
}

func newLogger(opts jobOptions, level string) *logger.LoggerImpl {
	log := logger.NewLogger(constants.ServiceName, level, opts.stackDump)
	if opts.logOut != nil {
		log.SetOutput(opts.logOut)
	}
	if opts.jsonLogs {
		log.SetJSONFormat()
	}
	return log
}

// loadAppConfig reads, completes and validates the configuration before any connection is made.
func loadAppConfig(ctx context.Context, opts jobOptions) (*config.AppConfig, *tabledefinition.Catalog, error) {
	switch opts.reportFormat {
	case constants.ReportFormatYaml, constants.ReportFormatJson, reportFormatNone, "":
	default:
		return nil, nil, &config.ValidationError{Problems: []string{fmt.Sprintf("unsupported report format %q", opts.reportFormat)}}
	}
	cfg, err := config.Load(opts.v, opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	newProvider := opts.newProvider
	if newProvider == nil {
		newProvider = config.NewCredentialProvider
	}
	p, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err = config.ResolvePasswords(ctx, cfg, p); err != nil {
		return nil, nil, err
	}
	if err = config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	cat, err := tabledefinition.LoadCatalog(cfg.TablesFile)
	if err != nil {
		return nil, nil, &config.ValidationError{Problems: []string{err.Error()}}
	}
	return cfg, cat, nil
}

func printReport(w io.Writer, r stats.Report, format string) error {
	if w == nil || format == "" || format == reportFormatNone {
		return nil
	}
	b, err := stats.FormatReport(r, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
