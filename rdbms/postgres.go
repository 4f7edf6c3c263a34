package rdbms

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/xo/dburl"
)

// PostgresConnectionDetails describes the operational source database.
// When URL is supplied it takes precedence; see ApplyURL.
type PostgresConnectionDetails struct {
	Host     string `mapstructure:"pg_host" errorTxt:"PostgreSQL host (PG_HOST)" mandatory:"yes"`
	Port     string `mapstructure:"pg_port" errorTxt:"PostgreSQL port (PG_PORT)" mandatory:"yes"`
	DBName   string `mapstructure:"pg_db" errorTxt:"PostgreSQL database (PG_DB)" mandatory:"yes"`
	User     string `mapstructure:"pg_user" errorTxt:"PostgreSQL user (PG_USER)" mandatory:"yes"`
	Password string `mapstructure:"pg_pw" errorTxt:"PostgreSQL password (PG_PW)" mandatory:"yes"`
	Schema   string `mapstructure:"pg_schema" errorTxt:"PostgreSQL schema (PG_SCHEMA)" mandatory:"yes"`
	URL      string `mapstructure:"pg_url"`
}

func (d PostgresConnectionDetails) String() string {
	return fmt.Sprintf("postgres://%v:%v@%v/%v?schema=%v", d.User, "xxxxxxx", net.JoinHostPort(d.Host, d.Port), d.DBName, d.Schema)
}

// ApplyURL copies the host, port, database and credentials found in URL into d.
// Fields that are already set and absent from the URL are kept.
func (d *PostgresConnectionDetails) ApplyURL() error {
	if d.URL == "" {
		return nil
	}
	u, err := dburl.Parse(d.URL)
	if err != nil {
		return fmt.Errorf("error parsing PostgreSQL URL: %w", err)
	}
	if u.Driver != constants.ConnectionTypePostgres {
		return fmt.Errorf("unsupported source URL scheme %q; expected a PostgreSQL URL", u.OriginalScheme)
	}
	if h := u.Hostname(); h != "" {
		d.Host = h
	}
	if p := u.Port(); p != "" {
		d.Port = p
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		d.DBName = db
	}
	if u.User != nil {
		if n := u.User.Username(); n != "" {
			d.User = n
		}
		if pw, ok := u.User.Password(); ok {
			d.Password = pw
		}
	}
	return nil
}

// GetDSN returns a postgres:// URL built from the individual fields.
func (d PostgresConnectionDetails) GetDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.DBName,
	}
	return u.String()
}

// NewPostgresConnection opens the source database using the pgx stdlib driver and checks it is reachable.
func NewPostgresConnection(ctx context.Context, log logger.Logger, d *PostgresConnectionDetails) (shared.Connector, error) {
	u, err := dburl.Parse(d.GetDSN())
	if err != nil { // if the DSN could not be parsed...
		return nil, fmt.Errorf("error parsing PostgreSQL DSN: %w", err)
	}
	log.Info("Opening database connection: ", u.URL.Redacted())
	cfg, err := pgx.ParseConfig(u.DSN)
	if err != nil {
		return nil, fmt.Errorf("error building PostgreSQL config: %w", err)
	}
	conn := shared.NewHpConnection(stdlib.OpenDB(*cfg), constants.ConnectionTypePostgres)
	// Test the connection.
	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Info("Successful connection to: ", d)
	return conn, nil
}
