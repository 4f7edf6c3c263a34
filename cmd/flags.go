package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type cliFlag struct {
	name      string // name of flag
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"config": cliFlag{name: "config", shortHand: "c",
		desc: "YAML config `<file>` holding connection and job settings (default ~/.shipetl/config.yaml).\n" +
			"Environment variables take precedence over the file"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug | trace\""},
	"password-source": cliFlag{name: "password-source", shortHand: "p",
		desc: "Where blank passwords are read from: \"env | prompt | aws-secrets\""},
	"report": cliFlag{name: "report", shortHand: "r",
		desc: "Print the run report to stdout as \"yaml\" or \"json\", or use \"none\""},
	"batch-size": cliFlag{name: "batch-size", shortHand: "b",
		desc: "Number of rows sent in each multi-row INSERT while staging"},
	"max-drop-percent": cliFlag{name: "max-drop-percent", shortHand: "x",
		desc: "Fail the run when more than this percentage of fact rows have unresolved\n" +
			"dimension references (100 disables the check)"},
	"tables-file": cliFlag{name: "tables-file", shortHand: "t",
		desc: "Optional YAML `<file>` overriding the dimension attribute columns"},
	"rejects-dir": cliFlag{name: "rejects-dir", shortHand: "d",
		desc: "Optional existing `<dir>` where dropped fact rows are written as CSV"},
	"rejects-gzip": cliFlag{name: "rejects-gzip", shortHand: "z",
		desc: "Gzip the CSV files written to the rejects directory"},
	"fail-fast": cliFlag{name: "fail-fast", shortHand: "f",
		desc: "Check the warehouse is reachable before extracting from the source"},
}

// flagNameToConfigKey converts a flag name to its configuration key, e.g. log-level => log_level.
func flagNameToConfigKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// addFlag adds a persistent flag to cobra.Command c based on the type of targetVar (which must be a pointer)
// and binds it to the configuration key of the same name in v, so a flag that is set overrides the
// environment and config file.
// The flag details are looked up in map, cliFlags.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, v *viper.Viper, targetVar interface{}, name string, defaultValue interface{}, desc2 string) {
	sw, ok := (*f)[name]
	if !ok {
		fmt.Printf("error adding flag: unknown flag %q\n", name)
		os.Exit(1)
	}
	desc := sw.desc + desc2
	fs := c.PersistentFlags()
	switch p := targetVar.(type) {
	case *string:
		d, _ := defaultValue.(string)
		fs.StringVarP(p, sw.name, sw.shortHand, d, desc)
	case *bool:
		d, _ := defaultValue.(bool)
		fs.BoolVarP(p, sw.name, sw.shortHand, d, desc)
	case *int:
		d, _ := defaultValue.(int)
		fs.IntVarP(p, sw.name, sw.shortHand, d, desc)
	case *float64:
		d, _ := defaultValue.(float64)
		fs.Float64VarP(p, sw.name, sw.shortHand, d, desc)
	default:
		fmt.Printf("error adding flag %q: unsupported type %T\n", name, targetVar)
		os.Exit(1)
	}
	if v != nil {
		bindFlag(v, fs.Lookup(sw.name))
	}
}

// bindFlag makes v read the flag's value when the flag has been set on the command line.
func bindFlag(v *viper.Viper, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	_ = v.BindPFlag(flagNameToConfigKey(flag.Name), flag) // only fails for a nil flag.
}
