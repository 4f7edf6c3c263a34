package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// HpConnection is a wrapper around Go native sql.DB.
// When a session is pinned with PinSession all statements run on a single sql.Conn, so
// session state like USE ROLE and USE WAREHOUSE applies to every statement.
type HpConnection struct {
	DbSql  *sql.DB
	Conn   *sql.Conn
	DbType string
}

// NewHpConnection wraps db for the given connection type.
func NewHpConnection(db *sql.DB, dbType string) *HpConnection {
	return &HpConnection{DbSql: db, DbType: dbType}
}

// PinSession reserves one connection from the pool for all subsequent statements.
func (c *HpConnection) PinSession(ctx context.Context) error {
	if c.DbSql == nil {
		return errors.New("HpConnection was not configured correctly: DbSql is missing")
	}
	if c.Conn != nil {
		return nil
	}
	conn, err := c.DbSql.Conn(ctx)
	if err != nil {
		return fmt.Errorf("unable to reserve a %v session: %w", c.DbType, err)
	}
	c.Conn = conn
	return nil
}

// Connector:

func (c *HpConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if c.Conn != nil {
		return c.Conn.ExecContext(ctx, query, args...)
	}
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *HpConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	var r *sql.Rows
	var err error
	if c.Conn != nil {
		r, err = c.Conn.QueryContext(ctx, query, args...)
	} else {
		r, err = c.DbSql.QueryContext(ctx, query, args...)
	}
	if err != nil { // avoid returning a typed nil inside the interface.
		return nil, err
	}
	return r, nil
}

func (c *HpConnection) PingContext(ctx context.Context) error {
	if c.Conn != nil {
		return c.Conn.PingContext(ctx)
	}
	return c.DbSql.PingContext(ctx)
}

// Close releases the pinned session, if any, and closes the pool.
func (c *HpConnection) Close() error {
	var errConn error
	if c.Conn != nil {
		errConn = c.Conn.Close()
		c.Conn = nil
	}
	if c.DbSql == nil {
		return errConn
	}
	if err := c.DbSql.Close(); err != nil {
		return err
	}
	return errConn
}

func (c *HpConnection) GetType() string {
	return c.DbType
}
