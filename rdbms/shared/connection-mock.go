package shared

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockStatement is a statement captured by MockConnection.
type MockStatement struct {
	Query string
	Args  []interface{}
}

// MockConnection is a Connector that records every statement it is given.
// ExecFunc and QueryFunc may be set to control results; by default Exec reports one row
// affected per bind set of an INSERT and zero otherwise, and Query returns no rows.
type MockConnection struct {
	mu         sync.Mutex
	DbType     string
	Statements []MockStatement
	ExecFunc   func(query string, args []interface{}) (Result, error)
	QueryFunc  func(query string, args []interface{}) (Rows, error)
	PingErr    error
	Closed     bool
}

func NewMockConnection(dbType string) *MockConnection {
	return &MockConnection{DbType: dbType}
}

func (c *MockConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	c.record(query, args)
	if c.ExecFunc != nil {
		return c.ExecFunc(query, args)
	}
	return MockResult{Affected: insertedRowCount(query)}, nil
}

// insertedRowCount returns the number of VALUES groups in a multi-row INSERT.
func insertedRowCount(query string) int64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(q, "insert") || !strings.Contains(q, " values (") {
		return 0
	}
	return int64(strings.Count(q, "),(") + 1)
}

func (c *MockConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	c.record(query, args)
	if c.QueryFunc != nil {
		return c.QueryFunc(query, args)
	}
	return NewMockRows(nil, nil), nil
}

func (c *MockConnection) PingContext(ctx context.Context) error {
	return c.PingErr
}

func (c *MockConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

func (c *MockConnection) GetType() string {
	return c.DbType
}

// GetStatements returns a copy of the statements recorded so far.
func (c *MockConnection) GetStatements() []MockStatement {
	c.mu.Lock()
	defer c.mu.Unlock()
	retval := make([]MockStatement, len(c.Statements))
	copy(retval, c.Statements)
	return retval
}

func (c *MockConnection) record(query string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := make([]interface{}, len(args))
	copy(a, args)
	c.Statements = append(c.Statements, MockStatement{Query: query, Args: a})
}

// MockResult implements Result.
type MockResult struct {
	Affected int64
	Err      error
}

func (r MockResult) LastInsertId() (int64, error) {
	return 0, errors.New("LastInsertId is not supported")
}

func (r MockResult) RowsAffected() (int64, error) {
	return r.Affected, r.Err
}

// MockRows implements Rows over an in-memory slice of rows.
type MockRows struct {
	cols   []string
	data   [][]interface{}
	idx    int
	Closed bool
}

func NewMockRows(cols []string, data [][]interface{}) *MockRows {
	return &MockRows{cols: cols, data: data, idx: -1}
}

func (r *MockRows) Columns() ([]string, error) {
	return r.cols, nil
}

func (r *MockRows) Next() bool {
	if r.idx+1 >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

// Scan supports *interface{} destinations only, which is how SqlQuery scans.
func (r *MockRows) Scan(dest ...interface{}) error {
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("scan called without a current row")
	}
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return errors.New("scan destination count does not match the number of columns")
	}
	for idx := range dest {
		p, ok := dest[idx].(*interface{})
		if !ok {
			return errors.New("unsupported scan destination")
		}
		*p = row[idx]
	}
	return nil
}

func (r *MockRows) Err() error {
	return nil
}

func (r *MockRows) Close() error {
	r.Closed = true
	return nil
}
