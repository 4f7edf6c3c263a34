package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

type SourceReaderConfig struct {
	Log         logger.Logger
	Name        string
	Db          shared.Connector // connection to the operational database.
	Schema      string
	Tables      []tabledefinition.Table
	StepWatcher *stats.StepWatcher // optional
}

// GetSqlSelectTable returns a full-table SELECT of the declared columns with quoted identifiers.
func GetSqlSelectTable(schema string, tab tabledefinition.Table) string {
	st := rdbms.NewSchemaTable(schema, tab.SourceTable)
	return fmt.Sprintf("select %v from %v", strings.Join(helper.QuoteIdentifiers(tab.ColumnNames()), ", "), st.Quoted())
}

// ReadSourceTables reads the complete contents of every table in cfg.Tables.
// Any failure aborts the whole extraction and no partial snapshot is returned.
func ReadSourceTables(ctx context.Context, cfg *SourceReaderConfig) (stream.Snapshot, error) {
	cfg.StepWatcher.StartWatching()
	snap, err := readSourceTables(ctx, cfg)
	cfg.StepWatcher.StopWatching(err)
	return snap, err
}

func readSourceTables(ctx context.Context, cfg *SourceReaderConfig) (stream.Snapshot, error) {
	snap := make(stream.Snapshot, len(cfg.Tables))
	for _, tab := range cfg.Tables {
		sqltext := GetSqlSelectTable(cfg.Schema, tab)
		cfg.Log.Info(cfg.Name, " extracting ", tab.SourceTable, "...")
		h := &recordSetHandler{rs: stream.NewRecordSet(tab.Name, tab.ColumnNames())}
		if err := rdbms.SqlQuery(ctx, cfg.Log, cfg.Db, sqltext, h); err != nil {
			return nil, errors.Wrapf(err, "error extracting source table %v", tab.SourceTable)
		}
		cfg.Log.Info(cfg.Name, " extracted ", tab.SourceTable, " rows: ", h.rs.Len())
		cfg.StepWatcher.AddRowsOut(h.rs.Len())
		snap[tab.Name] = h.rs
	}
	return snap, nil
}

// recordSetHandler implements shared.SqlResultHandler and collects rows into a RecordSet.
type recordSetHandler struct {
	rs *stream.RecordSet
}

func (h *recordSetHandler) HandleHeader(i []interface{}) error {
	if len(i) != len(h.rs.Columns) {
		return fmt.Errorf("expected %v columns for %v; got %v", len(h.rs.Columns), h.rs.Name, len(i))
	}
	for idx, v := range i {
		if !strings.EqualFold(fmt.Sprintf("%v", v), h.rs.Columns[idx]) {
			return fmt.Errorf("unexpected column %v at position %v of %v; expected %v", v, idx, h.rs.Name, h.rs.Columns[idx])
		}
	}
	return nil
}

func (h *recordSetHandler) HandleRow(i []interface{}) error {
	return h.rs.AppendValues(i...)
}
