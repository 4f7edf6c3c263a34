package components_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/shipetl/components"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

func TestSnowflakeWarehouseLoadTable(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("snowflake")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return shared.NewMockRows([]string{"number of rows inserted", "number of rows updated"}, [][]interface{}{{int64(1), int64(0)}}), nil
	}
	statsMgr := stats.NewRunStatsManager(log, "run1")
	w := components.NewSnowflakeWarehouse(log, db, 500, statsMgr)
	res, err := w.LoadTable(context.Background(), tabledefinition.DefaultCatalog().Ports,
		portsRecordSet(t, []interface{}{"A", "Alpha", "NL", nil}))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Target).To(Equal("DIM_PORTS"))
	g.Expect(res.StagingTable).To(HavePrefix("STG_DIM_PORTS_"))
	g.Expect(res.Staged).To(Equal(1))
	g.Expect(res.Merge.Inserted).To(Equal(int64(1)))

	stmts := db.GetStatements()
	g.Expect(stmts).To(HaveLen(4))
	g.Expect(stmts[0].Query).To(HavePrefix("create transient table " + res.StagingTable))
	g.Expect(stmts[1].Query).To(HavePrefix("insert into " + res.StagingTable))
	g.Expect(stmts[2].Query).To(HavePrefix("merge into DIM_PORTS T using " + res.StagingTable))
	g.Expect(stmts[3].Query).To(Equal("drop table if exists " + res.StagingTable))

	var names []string
	for _, s := range statsMgr.GetStats() {
		names = append(names, s.StepName)
	}
	g.Expect(names).To(Equal([]string{"stage-ports", "merge-ports"}))
}

func TestResolveSurrogateKeys(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("snowflake")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		if strings.HasSuffix(query, "DIM_PORTS") {
			return shared.NewMockRows([]string{"PORT_ID", "PORT_KEY"}, [][]interface{}{{"A", int64(1)}}), nil
		}
		return shared.NewMockRows([]string{"NK", "SK"}, nil), nil
	}
	w := components.NewSnowflakeWarehouse(log, db, 0, nil)
	m, err := components.ResolveSurrogateKeys(context.Background(), w, tabledefinition.DefaultCatalog().Dimensions())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m).To(HaveKey("customers"))
	g.Expect(m).To(HaveKey("ships"))
	g.Expect(m["ports"]).To(Equal(components.KeyMap{"A": 1}))
}

func TestSnowflakeWarehouseLoadTableTwice(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	db := shared.NewMockConnection("snowflake")
	merges := 0
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		counts := []interface{}{int64(0), int64(0)}
		if merges == 0 {
			counts = []interface{}{int64(1), int64(0)}
		}
		merges++
		return shared.NewMockRows([]string{"number of rows inserted", "number of rows updated"}, [][]interface{}{counts}), nil
	}
	w := components.NewSnowflakeWarehouse(log, db, 500, nil)
	ports := tabledefinition.DefaultCatalog().Ports
	row := []interface{}{"A", "Alpha", "NL", nil}

	first, err := w.LoadTable(context.Background(), ports, portsRecordSet(t, row))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(first.Merge).To(Equal(components.MergeResult{Inserted: 1}))

	second, err := w.LoadTable(context.Background(), ports, portsRecordSet(t, row))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(second.Merge.Inserted).To(BeZero())
	g.Expect(second.Merge.Updated).To(BeZero())
	g.Expect(second.StagingTable).NotTo(Equal(first.StagingTable))
	g.Expect(merges).To(Equal(2))

	// Both MERGEs guard updates so unchanged rows are not rewritten.
	var mergeSql []string
	for _, s := range db.GetStatements() {
		if strings.HasPrefix(s.Query, "merge into DIM_PORTS") {
			mergeSql = append(mergeSql, s.Query)
		}
	}
	g.Expect(mergeSql).To(HaveLen(2))
	for _, q := range mergeSql {
		g.Expect(q).To(ContainSubstring("equal_null"))
	}
	g.Expect(db.GetStatements()).To(HaveLen(8))
}
