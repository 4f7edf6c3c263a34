package components_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/shipetl/components"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

func TestGetSqlSnowflakeMergeTextKey(t *testing.T) {
	cfg := components.NewSnowflakeMergeSqlConfig(tabledefinition.DefaultCatalog().Ports)
	got, err := components.GetSqlSnowflakeMerge(cfg, "DIM_PORTS", "STG_PORTS_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `merge into DIM_PORTS T using STG_PORTS_1 S on collate(T."PORT_ID", 'utf8') = collate(S."PORT_ID", 'utf8')` +
		` when matched and not (equal_null(T."NAME", S."NAME") and equal_null(T."COUNTRY", S."COUNTRY") and equal_null(T."UN_LOCODE", S."UN_LOCODE"))` +
		` then update set T."NAME" = S."NAME", T."COUNTRY" = S."COUNTRY", T."UN_LOCODE" = S."UN_LOCODE"` +
		` when not matched then insert ("PORT_ID","NAME","COUNTRY","UN_LOCODE") values (S."PORT_ID",S."NAME",S."COUNTRY",S."UN_LOCODE")`
	if got != expected {
		t.Fatalf("expected sql:\n%v\ngot:\n%v", expected, got)
	}
}

func TestGetSqlSnowflakeMergeKeyOnly(t *testing.T) {
	omKeys := ordered_map.NewOrderedMap()
	omKeys.Set("pk1", "PK1")
	omKeys.Set("pk2", "PK2")
	cfg := &components.SnowflakeMergeSqlConfig{TargetKeyCols: omKeys}
	got, err := components.GetSqlSnowflakeMerge(cfg, "T1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `merge into T1 T using S1 S on T."PK1" = S."PK1" and T."PK2" = S."PK2" when not matched then insert ("PK1","PK2") values (S."PK1",S."PK2")`
	if got != expected {
		t.Fatalf("expected sql: '%v'; got '%v'", expected, got)
	}
	// No keys.
	if _, err := components.GetSqlSnowflakeMerge(&components.SnowflakeMergeSqlConfig{}, "T1", "S1"); err == nil {
		t.Fatal("expected error for a merge without key columns")
	}
}

func TestGetSqlSnowflakeMergeIntegerKey(t *testing.T) {
	cfg := components.NewSnowflakeMergeSqlConfig(tabledefinition.DefaultCatalog().Customers)
	got, err := components.GetSqlSnowflakeMerge(cfg, "DIM_CUSTOMERS", "S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, ` on T."CUSTOMER_ID" = S."CUSTOMER_ID" when matched`) {
		t.Fatalf("expected a plain equality join on the integer key; got %v", got)
	}
	if strings.Contains(got, "CUSTOMER_KEY") {
		t.Fatalf("the surrogate key must never be written by the merge; got %v", got)
	}
}

func TestMergeStagingTable(t *testing.T) {
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("snowflake")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return shared.NewMockRows(
			[]string{"number of rows inserted", "number of rows updated"},
			[][]interface{}{{"3", int64(2)}}), nil
	}
	res, err := components.MergeStagingTable(context.Background(), &components.SnowflakeMergeConfig{
		Log:          log,
		Name:         "merge-ports",
		Db:           db,
		TargetTable:  "DIM_PORTS",
		StagingTable: "STG_DIM_PORTS_1",
		SqlConfig:    components.NewSnowflakeMergeSqlConfig(tabledefinition.DefaultCatalog().Ports),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 3 || res.Updated != 2 {
		t.Fatalf("unexpected merge result %+v", res)
	}
	stmts := db.GetStatements()
	if len(stmts) != 2 {
		t.Fatalf("expected merge followed by drop; got %v", stmts)
	}
	if !strings.HasPrefix(stmts[0].Query, "merge into DIM_PORTS T using STG_DIM_PORTS_1 S") {
		t.Fatalf("unexpected first statement: %v", stmts[0].Query)
	}
	if stmts[1].Query != "drop table if exists STG_DIM_PORTS_1" {
		t.Fatalf("unexpected second statement: %v", stmts[1].Query)
	}
}

func TestMergeStagingTableKeepsStagingOnFailure(t *testing.T) {
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("snowflake")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return nil, errors.New("warehouse suspended")
	}
	_, err := components.MergeStagingTable(context.Background(), &components.SnowflakeMergeConfig{
		Log:          log,
		Db:           db,
		TargetTable:  "DIM_SHIPS",
		StagingTable: "STG_DIM_SHIPS_1",
		SqlConfig:    components.NewSnowflakeMergeSqlConfig(tabledefinition.DefaultCatalog().Ships),
	})
	var mergeErr *components.MergeError
	if !errors.As(err, &mergeErr) {
		t.Fatalf("expected a MergeError; got %v", err)
	}
	if mergeErr.StagingTable != "STG_DIM_SHIPS_1" || !strings.Contains(err.Error(), "STG_DIM_SHIPS_1") {
		t.Fatalf("expected the error to name the staging table; got %v", err)
	}
	for _, s := range db.GetStatements() {
		if strings.HasPrefix(s.Query, "drop") {
			t.Fatalf("staging table must be kept after a failed merge; got %v", s.Query)
		}
	}
}
