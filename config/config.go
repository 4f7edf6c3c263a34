package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms"
	"github.com/spf13/viper"
)

// AppConfig is the validated configuration object consumed by the job.
// Connection settings are squashed so every key is flat, e.g. pg_host or sf_account.
type AppConfig struct {
	rdbms.PostgresConnectionDetails  `mapstructure:",squash"`
	rdbms.SnowflakeConnectionDetails `mapstructure:",squash"`
	FailFast                         bool    `mapstructure:"fail_fast"`
	LogLevel                         string  `mapstructure:"log_level"`
	BatchSize                        int     `mapstructure:"batch_size"`
	MaxDropPercent                   float64 `mapstructure:"max_drop_percent"`
	TablesFile                       string  `mapstructure:"tables_file"`
	RejectsDir                       string  `mapstructure:"rejects_dir"`
	RejectsGzip                      bool    `mapstructure:"rejects_gzip"`
	PasswordSource                   string  `mapstructure:"password_source"`
	AwsRegion                        string  `mapstructure:"aws_region"`
	PgSecretId                       string  `mapstructure:"pg_secret_id"`
	SfSecretId                       string  `mapstructure:"sf_secret_id"`
}

// Source returns the source connection details.
func (c *AppConfig) Source() *rdbms.PostgresConnectionDetails {
	return &c.PostgresConnectionDetails
}

// Target returns the target connection details.
func (c *AppConfig) Target() *rdbms.SnowflakeConnectionDetails {
	return &c.SnowflakeConnectionDetails
}

// ValidationError lists every problem found in the configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", strings.Join(e.Problems, "; "))
}

// envBindings maps each configuration key to the environment variable that sets it.
var envBindings = map[string]string{
	"pg_host":          "PG_HOST",
	"pg_port":          "PG_PORT",
	"pg_db":            "PG_DB",
	"pg_user":          "PG_USER",
	"pg_pw":            "PG_PW",
	"pg_schema":        "PG_SCHEMA",
	"pg_url":           "PG_URL",
	"sf_account":       "SF_ACCOUNT",
	"sf_user":          "SF_USER",
	"sf_password":      "SF_PASSWORD",
	"sf_role":          "SF_ROLE",
	"sf_warehouse":     "SF_WAREHOUSE",
	"sf_database":      "SF_DATABASE",
	"sf_schema":        "SF_SCHEMA",
	"fail_fast":        "FAIL_FAST",
	"log_level":        helper.GetEnvVarName("log_level"),
	"batch_size":       helper.GetEnvVarName("batch_size"),
	"max_drop_percent": helper.GetEnvVarName("max_drop_percent"),
	"tables_file":      helper.GetEnvVarName("tables_file"),
	"rejects_dir":      helper.GetEnvVarName("rejects_dir"),
	"rejects_gzip":     helper.GetEnvVarName("rejects_gzip"),
	"password_source":  helper.GetEnvVarName("password_source"),
	"aws_region":       "AWS_REGION",
	"pg_secret_id":     helper.GetEnvVarName("pg_secret_id"),
	"sf_secret_id":     helper.GetEnvVarName("sf_secret_id"),
}

// GetEnvBindings returns a copy of the key to environment variable mapping.
func GetEnvBindings() map[string]string {
	retval := make(map[string]string, len(envBindings))
	for k, v := range envBindings {
		retval[k] = v
	}
	return retval
}

// NewViper returns a viper instance with defaults and environment bindings set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("fail_fast", false)
	v.SetDefault("log_level", constants.LogLevelDefault)
	v.SetDefault("batch_size", constants.StagingBatchSizeDefault)
	v.SetDefault("max_drop_percent", constants.MaxDropPercentDefault)
	v.SetDefault("password_source", constants.PasswordSourceEnv)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env) // only fails when no key is given.
	}
	return v
}

// Load reads the optional YAML config file and decodes all settings held by v into an AppConfig.
// If configFile is empty the default file in the home directory is used when it exists.
// The result is not validated; see Validate.
func Load(v *viper.Viper, configFile string) (*AppConfig, error) {
	fn, err := expandPath(configFile)
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("unable to expand config file path %q: %v", configFile, err)}}
	}
	if fn == "" {
		fn = GetDefaultConfigFile()
	} else if _, err := os.Stat(fn); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("config file %q not found", fn)}}
	}
	if fn != "" {
		v.SetConfigFile(fn)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &ValidationError{Problems: []string{fmt.Sprintf("unable to read config file %q: %v", fn, err)}}
		}
	}
	cfg := &AppConfig{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create config decoder")
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0)
	if cfg.TablesFile, err = expandPath(cfg.TablesFile); err != nil {
		problems = append(problems, fmt.Sprintf("unable to expand tables file path: %v", err))
	}
	if cfg.RejectsDir, err = expandPath(cfg.RejectsDir); err != nil {
		problems = append(problems, fmt.Sprintf("unable to expand rejects directory: %v", err))
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	if err := cfg.PostgresConnectionDetails.ApplyURL(); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	return cfg, nil
}

// Validate checks mandatory fields are populated and settings are in range.
func Validate(cfg *AppConfig) error {
	problems := make([]string, 0)
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		problems = append(problems, err.Error())
	}
	if err := logger.ValidateLevel(cfg.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.BatchSize < 1 {
		problems = append(problems, fmt.Sprintf("batch size must be at least 1, got %v", cfg.BatchSize))
	}
	if cfg.MaxDropPercent < 0 || cfg.MaxDropPercent > 100 {
		problems = append(problems, fmt.Sprintf("max drop percent must be between 0 and 100, got %v", cfg.MaxDropPercent))
	}
	if cfg.RejectsDir != "" {
		if fi, err := os.Stat(cfg.RejectsDir); err != nil || !fi.IsDir() {
			problems = append(problems, fmt.Sprintf("rejects directory %q does not exist", cfg.RejectsDir))
		}
	}
	if _, ok := passwordSources[cfg.PasswordSource]; !ok {
		problems = append(problems, fmt.Sprintf("unsupported password source %q", cfg.PasswordSource))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
