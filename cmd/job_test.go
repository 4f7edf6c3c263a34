package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/relloyd/shipetl/actions"
	"github.com/relloyd/shipetl/config"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/stats"
)

var testEnv = map[string]string{
	"PG_HOST":      "localhost",
	"PG_PORT":      "5432",
	"PG_DB":        "ops",
	"PG_USER":      "etl",
	"PG_PW":        "pgpw",
	"PG_SCHEMA":    "public",
	"SF_ACCOUNT":   "acme",
	"SF_USER":      "loader",
	"SF_PASSWORD":  "sfpw",
	"SF_WAREHOUSE": "WH",
	"SF_DATABASE":  "DW",
	"SF_SCHEMA":    "STAR",
}

// setTestEnv clears every configuration variable, applies env and restores the originals afterwards.
func setTestEnv(t *testing.T, env map[string]string) {
	names := []string{envVarTwelveFactorMode, envVarCommand, envVarReport, envVarStackDump}
	for _, name := range config.GetEnvBindings() {
		names = append(names, name)
	}
	for _, name := range names {
		name := name
		old, had := os.LookupEnv(name)
		_ = os.Unsetenv(name)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(name, old)
			} else {
				_ = os.Unsetenv(name)
			}
		})
	}
	for k, v := range env {
		_ = os.Setenv(k, v)
	}
}

// mockRunner returns a runner that records the config it was given.
func mockRunner(got **actions.ShippingEtlConfig, exit int) jobRunner {
	return func(ctx context.Context, cfg *actions.ShippingEtlConfig) *actions.RunResult {
		*got = cfg
		return &actions.RunResult{
			RunId:      "test",
			FinalState: actions.StateDone,
			ExitCode:   exit,
			Stats:      stats.NewRunStatsManager(cfg.Log, "test"),
		}
	}
}

func testJobOptions(out *bytes.Buffer, format string) jobOptions {
	return jobOptions{
		v:            config.NewViper(),
		configFile:   "",
		reportFormat: format,
		out:          out,
		logOut:       ioutil.Discard,
	}
}

func TestExecuteJob(t *testing.T) {
	setTestEnv(t, testEnv)
	_ = os.Setenv("SHIPETL_MAX_DROP_PERCENT", "5")
	var got *actions.ShippingEtlConfig
	out := &bytes.Buffer{}
	code := executeJob(context.Background(), testJobOptions(out, constants.ReportFormatJson), mockRunner(&got, constants.ExitCodeOK))
	if code != constants.ExitCodeOK {
		t.Fatalf("expected exit code 0; got %v", code)
	}
	if got == nil || got.App.Source().Password != "pgpw" || got.App.MaxDropPercent != 5 || got.Catalog == nil {
		t.Fatalf("unexpected job config %+v", got)
	}
	r := stats.Report{}
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("expected a JSON report; got %q: %v", out.String(), err)
	}
	if r.FinalState != "Done" || r.RunId != "test" {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestExecuteJobPassesRunExitCode(t *testing.T) {
	setTestEnv(t, testEnv)
	var got *actions.ShippingEtlConfig
	code := executeJob(context.Background(), testJobOptions(&bytes.Buffer{}, reportFormatNone), mockRunner(&got, constants.ExitCodeTargetUnreachable))
	if code != constants.ExitCodeTargetUnreachable {
		t.Fatalf("expected exit code %v; got %v", constants.ExitCodeTargetUnreachable, code)
	}
}

func TestExecuteJobConfigErrors(t *testing.T) {
	missing := map[string]string{}
	for k, v := range testEnv {
		if k != "SF_ACCOUNT" {
			missing[k] = v
		}
	}
	dir := t.TempDir()
	badTables := filepath.Join(dir, "tables.yaml")
	if err := ioutil.WriteFile(badTables, []byte("dimensions:\n  vessels: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name   string
		env    map[string]string
		extra  map[string]string
		format string
	}{
		{"missing mandatory field", missing, nil, constants.ReportFormatYaml},
		{"bad report format", testEnv, nil, "xml"},
		{"bad batch size", testEnv, map[string]string{"SHIPETL_BATCH_SIZE": "0"}, constants.ReportFormatYaml},
		{"bad tables file", testEnv, map[string]string{"SHIPETL_TABLES_FILE": badTables}, constants.ReportFormatYaml},
		{"bad password source", testEnv, map[string]string{"SHIPETL_PASSWORD_SOURCE": "vault"}, constants.ReportFormatYaml},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			setTestEnv(t, c.env)
			for k, v := range c.extra {
				_ = os.Setenv(k, v)
			}
			var got *actions.ShippingEtlConfig
			code := executeJob(context.Background(), testJobOptions(&bytes.Buffer{}, c.format), mockRunner(&got, constants.ExitCodeOK))
			if code != constants.ExitCodeConfigError {
				t.Fatalf("expected exit code %v; got %v", constants.ExitCodeConfigError, code)
			}
			if got != nil {
				t.Fatal("the job must not run with an invalid configuration")
			}
		})
	}
}

func TestExecuteJobConfigFile(t *testing.T) {
	setTestEnv(t, map[string]string{"PG_PW": "frompenv", "SF_PASSWORD": "sfpw"})
	fn := filepath.Join(t.TempDir(), "config.yaml")
	body := `pg_url: postgres://etl@db.internal:6543/ops
pg_schema: public
sf_account: acme
sf_user: loader
sf_warehouse: WH
sf_database: DW
sf_schema: STAR
sf_role: LOADER
fail_fast: false
`
	if err := ioutil.WriteFile(fn, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	opts := testJobOptions(&bytes.Buffer{}, reportFormatNone)
	opts.configFile = fn
	var got *actions.ShippingEtlConfig
	if code := executeJob(context.Background(), opts, mockRunner(&got, constants.ExitCodeOK)); code != constants.ExitCodeOK {
		t.Fatalf("expected exit code 0; got %v", code)
	}
	src := got.App.Source()
	if src.Host != "db.internal" || src.Port != "6543" || src.DBName != "ops" || src.Password != "frompenv" {
		t.Fatalf("unexpected source details %+v", src)
	}
	if got.App.FailFast || got.App.Target().RoleName != "LOADER" {
		t.Fatalf("unexpected config %+v", got.App)
	}
}
