package rdbms

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	sf "github.com/snowflakedb/gosnowflake"
)

// SnowflakeConnectionDetails describes the target warehouse and the session context to use.
type SnowflakeConnectionDetails struct {
	Account   string `mapstructure:"sf_account" errorTxt:"Snowflake account (SF_ACCOUNT)" mandatory:"yes"`
	User      string `mapstructure:"sf_user" errorTxt:"Snowflake username (SF_USER)" mandatory:"yes"`
	Password  string `mapstructure:"sf_password" errorTxt:"Snowflake password (SF_PASSWORD)" mandatory:"yes"`
	Warehouse string `mapstructure:"sf_warehouse" errorTxt:"Snowflake warehouse (SF_WAREHOUSE)" mandatory:"yes"`
	DBName    string `mapstructure:"sf_database" errorTxt:"Snowflake database (SF_DATABASE)" mandatory:"yes"`
	Schema    string `mapstructure:"sf_schema" errorTxt:"Snowflake schema (SF_SCHEMA)" mandatory:"yes"`
	RoleName  string `mapstructure:"sf_role" errorTxt:"Snowflake role name (SF_ROLE)"`
}

func (d SnowflakeConnectionDetails) String() string {
	return fmt.Sprintf("%v:%v@%v/%v?schema=%v&warehouse=%v&role=%v",
		d.User,
		"xxxxxxx",
		d.Account,
		d.DBName,
		d.Schema,
		d.Warehouse,
		d.RoleName,
	)
}

// SnowflakeGetDSN constructs a gosnowflake DSN based on SnowflakeConnectionDetails.
func SnowflakeGetDSN(d *SnowflakeConnectionDetails) (string, error) {
	cfg := &sf.Config{
		Account:   d.Account,
		Database:  d.DBName,
		Schema:    d.Schema,
		User:      d.User,
		Password:  d.Password,
		Warehouse: d.Warehouse,
		Role:      d.RoleName,
	}
	return sf.DSN(cfg)
}

// NewSnowflakeConnection opens the warehouse connection specified in d, checks it is reachable and
// pins a single session so that session context applies to every later statement.
func NewSnowflakeConnection(ctx context.Context, log logger.Logger, d *SnowflakeConnectionDetails) (*shared.HpConnection, error) {
	dsn, err := SnowflakeGetDSN(d)
	if err != nil {
		return nil, fmt.Errorf("error building Snowflake DSN: %w", err)
	}
	log.Info("Opening database connection: ", d)
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, err
	}
	conn := shared.NewHpConnection(db, constants.ConnectionTypeSnowflake)
	if err = conn.PinSession(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Info("Successful database connection to Snowflake.")
	return conn, nil
}

// GetSnowflakeSessionStatements returns the USE statements that establish the session context.
// The role is only switched when one is configured.
func GetSnowflakeSessionStatements(d *SnowflakeConnectionDetails) []string {
	retval := make([]string, 0, 4)
	if d.RoleName != "" {
		retval = append(retval, fmt.Sprintf("use role %v", helper.QuoteIdentifier(d.RoleName)))
	}
	retval = append(retval,
		fmt.Sprintf("use warehouse %v", helper.QuoteIdentifier(d.Warehouse)),
		fmt.Sprintf("use database %v", helper.QuoteIdentifier(d.DBName)),
		fmt.Sprintf("use schema %v", helper.QuoteIdentifier(d.Schema)),
	)
	return retval
}

// SnowflakeSessionSetup executes the session USE statements on conn.
func SnowflakeSessionSetup(ctx context.Context, log logger.Logger, conn shared.Connector, d *SnowflakeConnectionDetails) error {
	for _, stmt := range GetSnowflakeSessionStatements(d) {
		log.Debug("session setup: ", stmt)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error during Snowflake session setup using SQL: '%v': %w", stmt, err)
		}
	}
	return nil
}
