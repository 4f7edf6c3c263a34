package components_test

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/shipetl/components"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

func keyMapConnection(data [][]interface{}) *shared.MockConnection {
	db := shared.NewMockConnection("snowflake")
	db.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		return shared.NewMockRows([]string{"NK", "SK"}, data), nil
	}
	return db
}

func TestGetSqlSelectKeyMap(t *testing.T) {
	g := NewGomegaWithT(t)
	cat := tabledefinition.DefaultCatalog()
	g.Expect(components.GetSqlSelectKeyMap(cat.Customers)).To(Equal(`select "CUSTOMER_ID", "CUSTOMER_KEY" from DIM_CUSTOMERS`))
	g.Expect(components.GetSqlSelectKeyMap(cat.Ports)).To(Equal(`select "PORT_ID", "PORT_KEY" from DIM_PORTS`))
}

func TestReadKeyMap(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	db := keyMapConnection([][]interface{}{
		{"1", "101"}, // NUMBER columns may be returned as strings.
		{int64(2), int64(102)},
		{nil, int64(103)},
		{"1", int64(101)}, // repeated with the same key is harmless.
	})
	m, err := components.ReadKeyMap(context.Background(), &components.SurrogateKeyResolverConfig{Log: log, Name: "resolve-customers", Db: db},
		tabledefinition.DefaultCatalog().Customers)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m).To(HaveLen(2))
	sk, ok := m.Lookup(int64(1))
	g.Expect(ok).To(BeTrue())
	g.Expect(sk).To(Equal(int64(101)))
	sk, ok = m.Lookup(int32(2))
	g.Expect(ok).To(BeTrue())
	g.Expect(sk).To(Equal(int64(102)))
	_, ok = m.Lookup(nil)
	g.Expect(ok).To(BeFalse())
	_, ok = m.Lookup(int64(3))
	g.Expect(ok).To(BeFalse())
}

func TestReadKeyMapErrors(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	cfg := func(data [][]interface{}) *components.SurrogateKeyResolverConfig {
		return &components.SurrogateKeyResolverConfig{Log: log, Db: keyMapConnection(data)}
	}
	ports := tabledefinition.DefaultCatalog().Ports
	_, err := components.ReadKeyMap(context.Background(), cfg([][]interface{}{{"A", nil}}), ports)
	g.Expect(err).To(HaveOccurred())
	_, err = components.ReadKeyMap(context.Background(), cfg(nil), tabledefinition.DefaultCatalog().Shipments)
	g.Expect(err).To(HaveOccurred())
}

func TestReadKeyMapConflictingDuplicates(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	sw := stats.NewStepWatcher(log, "resolve-ports")
	db := keyMapConnection([][]interface{}{
		{"A", int64(7)},
		{"A", int64(3)},
		{"A", int64(5)},
		{"B", int64(9)},
	})
	m, err := components.ReadKeyMap(context.Background(),
		&components.SurrogateKeyResolverConfig{Log: log, Name: "resolve-ports", Db: db, StepWatcher: sw},
		tabledefinition.DefaultCatalog().Ports)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m).To(Equal(components.KeyMap{"A": 3, "B": 9}))
	st := sw.RenderStats()
	g.Expect(st.RowsOut).To(Equal(int64(2)))
	g.Expect(st.RowsDropped).To(Equal(int64(2)))
	g.Expect(st.StatusText).To(Equal("complete"))
}

func TestKeyMapIsCaseSensitive(t *testing.T) {
	g := NewGomegaWithT(t)
	m := components.KeyMap{"abc": 1}
	_, ok := m.Lookup("ABC")
	g.Expect(ok).To(BeFalse())
	_, ok = m.Lookup("abc")
	g.Expect(ok).To(BeTrue())
}
