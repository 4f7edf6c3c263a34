package shared

import (
	"context"
)

//go:generate mockgen -destination=./mocks/connector.go -package=mocks github.com/relloyd/shipetl/rdbms/shared Connector

// Connector abstracts all access to Go SQL functionality.
type Connector interface {
	// Go SQL entry points:
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	PingContext(ctx context.Context) error
	Close() error
	// Shipetl functionality:
	GetType() string
}

// Interfaces to abstract Go SQL library return values so tests can supply their own.

type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Rows is satisfied by *sql.Rows.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// SqlStmtGenerator returns SQL text ready to execute.
type SqlStmtGenerator interface {
	GetStatement() string
}

// SqlStmtTxtBatcher is used to combine DML statements that affect individual records into one statement, aiming
// to improve performance and reduce network round trips.
type SqlStmtTxtBatcher interface {
	SqlStmtGenerator
	InitBatch(batchSize int)                             // reset variables and preallocate slices for the given batch size.
	AddValuesToBatch(values []interface{}) (bool, error) // add values to SQL statement.
	GetValues() []interface{}                            // get all values added to the batch so they can be supplied as args to exec the SQL returned by getStatement().
	GetRowsInBatch() int
}

type SqlResultHandler interface {
	HandleHeader(i []interface{}) error
	HandleRow(i []interface{}) error
}
