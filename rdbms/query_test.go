package rdbms

import (
	"context"
	"errors"
	"testing"

	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
)

type collectingHandler struct {
	header []interface{}
	rows   [][]interface{}
	failOn int
}

func (h *collectingHandler) HandleHeader(i []interface{}) error {
	h.header = i
	return nil
}

func (h *collectingHandler) HandleRow(i []interface{}) error {
	if h.failOn > 0 && len(h.rows)+1 == h.failOn {
		return errors.New("handler failed")
	}
	h.rows = append(h.rows, i)
	return nil
}

func TestSqlQuery(t *testing.T) {
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("postgres")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return shared.NewMockRows([]string{"id", "name"}, [][]interface{}{{int64(1), "a"}, {int64(2), nil}}), nil
	}
	h := &collectingHandler{}
	if err := SqlQuery(context.Background(), log, db, "select id, name from t", h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.header) != 2 || h.header[1] != "name" {
		t.Fatalf("unexpected header %v", h.header)
	}
	if len(h.rows) != 2 || h.rows[1][1] != nil || h.rows[0][0] != int64(1) {
		t.Fatalf("unexpected rows %v", h.rows)
	}
	// Rows must be independent copies.
	if h.rows[0][1] != "a" {
		t.Fatalf("row 0 was overwritten: %v", h.rows[0])
	}
}

func TestSqlQueryErrors(t *testing.T) {
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("postgres")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return nil, errors.New("relation does not exist")
	}
	if err := SqlQuery(context.Background(), log, db, "select 1", &collectingHandler{}); err == nil {
		t.Fatal("expected query error")
	}
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return shared.NewMockRows([]string{"id"}, [][]interface{}{{1}, {2}}), nil
	}
	if err := SqlQuery(context.Background(), log, db, "select 1", &collectingHandler{failOn: 2}); err == nil {
		t.Fatal("expected handler error")
	}
}
