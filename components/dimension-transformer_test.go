package components_test

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/relloyd/shipetl/components"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

func TestTransformDimension(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	tab := tabledefinition.DefaultCatalog().Ports
	in := stream.NewRecordSet(tab.Name, tab.ColumnNames())
	g.Expect(in.AppendValues(" A ", " Port A ", "NL", nil)).To(Succeed())
	g.Expect(in.AppendValues("A ", "Port A again", "NL", nil)).To(Succeed())
	g.Expect(in.AppendValues(nil, "Nowhere", "XX", nil)).To(Succeed())
	g.Expect(in.AppendValues("B", "Port B", " DE", "DEHAM ")).To(Succeed())

	out, res, err := components.TransformDimension(&components.DimensionTransformerConfig{
		Log:   log,
		Name:  "transform-ports",
		Table: tab,
	}, in)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res).To(Equal(components.DimensionTransformResult{Input: 4, Output: 2, Duplicates: 1, NullKeys: 1}))
	g.Expect(out.Columns).To(Equal(tab.ColumnNames()))
	g.Expect(out.Rows()).To(Equal([][]interface{}{
		{"A", "Port A", "NL", nil},
		{"B", "Port B", "DE", "DEHAM"},
	}))
	// The input is untouched.
	g.Expect(in.Records[0].GetData("port_id")).To(Equal(" A "))
}

func TestTransformDimensionIntegerKey(t *testing.T) {
	g := NewGomegaWithT(t)
	log := logger.NewLogger("shipetl", "error", false)
	tab := tabledefinition.DefaultCatalog().Customers
	in := stream.NewRecordSet(tab.Name, tab.ColumnNames())
	g.Expect(in.AppendValues(int64(1), "Acme ", "a@acme.test", nil, "UK")).To(Succeed())
	g.Expect(in.AppendValues(int32(1), "Acme Ltd", "b@acme.test", nil, "UK")).To(Succeed())
	out, res, err := components.TransformDimension(&components.DimensionTransformerConfig{Log: log, Table: tab}, in)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Duplicates).To(Equal(1))
	g.Expect(out.Len()).To(Equal(1))
	g.Expect(out.Records[0].GetData("name")).To(Equal("Acme"))
	g.Expect(out.Records[0].GetData("customer_id")).To(Equal(int64(1)))
}
