package tabledefinition

import (
	"fmt"
	"io/ioutil"

	"github.com/relloyd/shipetl/constants"
	"gopkg.in/yaml.v2"
)

// Catalog declares every table the job reads or writes.
type Catalog struct {
	Customers     Table
	Ships         Table
	Ports         Table
	Shipments     Table
	ShipmentItems Table
	Fact          Table
}

// DefaultCatalog returns the shipping schema definitions.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Customers: Table{
			Name:         "customers",
			SourceTable:  constants.TableCustomers,
			TargetTable:  constants.DimCustomers,
			NaturalKey:   "customer_id",
			SurrogateKey: "CUSTOMER_KEY",
			Columns: []TableColumn{
				{ColName: "customer_id", DataType: DataTypeInteger},
				{ColName: "name", DataType: DataTypeText},
				{ColName: "email", DataType: DataTypeText},
				{ColName: "phone", DataType: DataTypeText},
				{ColName: "country", DataType: DataTypeText},
			},
		},
		Ships: Table{
			Name:         "ships",
			SourceTable:  constants.TableShips,
			TargetTable:  constants.DimShips,
			NaturalKey:   "ship_id",
			SurrogateKey: "SHIP_KEY",
			Columns: []TableColumn{
				{ColName: "ship_id", DataType: DataTypeInteger},
				{ColName: "name", DataType: DataTypeText},
				{ColName: "imo_number", DataType: DataTypeText},
				{ColName: "capacity_tonnes", DataType: DataTypeNumber, DataPrecision: 18, DataScale: 2},
				{ColName: "flag_country", DataType: DataTypeText},
			},
		},
		Ports: Table{
			Name:         "ports",
			SourceTable:  constants.TablePorts,
			TargetTable:  constants.DimPorts,
			NaturalKey:   "port_id",
			SurrogateKey: "PORT_KEY",
			Columns: []TableColumn{
				{ColName: "port_id", DataType: DataTypeText},
				{ColName: "name", DataType: DataTypeText},
				{ColName: "country", DataType: DataTypeText},
				{ColName: "un_locode", DataType: DataTypeText},
			},
		},
		Shipments: Table{
			Name:        "shipments",
			SourceTable: constants.TableShipments,
			NaturalKey:  "shipment_id",
			Columns: []TableColumn{
				{ColName: "shipment_id", DataType: DataTypeInteger},
				{ColName: "customer_id", DataType: DataTypeInteger},
				{ColName: "ship_id", DataType: DataTypeInteger},
				{ColName: "origin_port", DataType: DataTypeText},
				{ColName: "destination_port", DataType: DataTypeText},
				{ColName: "shipment_date", DataType: DataTypeDate},
				{ColName: "delivery_date", DataType: DataTypeDate},
				{ColName: "status", DataType: DataTypeText},
			},
		},
		ShipmentItems: Table{
			Name:        "shipment_items",
			SourceTable: constants.TableShipmentItems,
			Columns: []TableColumn{
				{ColName: "shipment_id", DataType: DataTypeInteger},
				{ColName: "weight", DataType: DataTypeFloat},
				{ColName: "cost", DataType: DataTypeFloat},
			},
		},
		Fact: Table{
			Name:        "fact_shipments",
			TargetTable: constants.FactShipments,
			NaturalKey:  "shipment_id",
			Columns: []TableColumn{
				{ColName: "shipment_id", DataType: DataTypeInteger},
				{ColName: "customer_key", DataType: DataTypeInteger},
				{ColName: "ship_key", DataType: DataTypeInteger},
				{ColName: "origin_port_key", DataType: DataTypeInteger},
				{ColName: "destination_port_key", DataType: DataTypeInteger},
				{ColName: "shipment_date", DataType: DataTypeDate},
				{ColName: "delivery_date", DataType: DataTypeDate},
				{ColName: "status", DataType: DataTypeText},
				{ColName: "total_weight", DataType: DataTypeFloat},
				{ColName: "total_cost", DataType: DataTypeFloat},
			},
		},
	}
}

// Dimensions returns the dimension tables in load order.
func (c *Catalog) Dimensions() []Table {
	return []Table{c.Customers, c.Ships, c.Ports}
}

// SourceTables returns every table read from the operational store.
func (c *Catalog) SourceTables() []Table {
	return []Table{c.Customers, c.Ships, c.Ports, c.Shipments, c.ShipmentItems}
}

// Validate checks each table definition.
func (c *Catalog) Validate() error {
	for _, t := range append(c.SourceTables(), c.Fact) {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, t := range c.Dimensions() {
		if t.SurrogateKey == "" {
			return fmt.Errorf("dimension %q is missing a surrogate key column", t.Name)
		}
	}
	return nil
}

// catalogFile is the YAML layout of a catalog override file:
//
//	dimensions:
//	  ports:
//	    natural_key_type: text
//	    columns:
//	      - name: name
//	        type: text
type catalogFile struct {
	Dimensions map[string]dimensionOverride `yaml:"dimensions"`
}

type dimensionOverride struct {
	NaturalKeyType DataType      `yaml:"natural_key_type"`
	Columns        []TableColumn `yaml:"columns"`
}

// LoadCatalog returns the default catalog with dimension attribute columns replaced by those
// found in the YAML file at path. An empty path returns the default catalog.
// The natural key column always remains the first column of its table.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read tables file: %w", err)
	}
	if err := cat.ApplyOverrides(b); err != nil {
		return nil, fmt.Errorf("tables file %q: %w", path, err)
	}
	return cat, nil
}

// ApplyOverrides applies YAML dimension overrides to c and validates the result.
func (c *Catalog) ApplyOverrides(b []byte) error {
	f := catalogFile{}
	if err := yaml.UnmarshalStrict(b, &f); err != nil {
		return fmt.Errorf("unable to parse catalog YAML: %w", err)
	}
	dims := map[string]*Table{
		c.Customers.Name: &c.Customers,
		c.Ships.Name:     &c.Ships,
		c.Ports.Name:     &c.Ports,
	}
	for name, o := range f.Dimensions {
		t, ok := dims[name]
		if !ok {
			return fmt.Errorf("unknown dimension %q; expected one of customers, ships or ports", name)
		}
		key, _ := t.Column(t.NaturalKey)
		if o.NaturalKeyType != "" {
			key.DataType = o.NaturalKeyType
		}
		cols := []TableColumn{key}
		for _, col := range o.Columns {
			if col.ColName == t.NaturalKey {
				continue
			}
			cols = append(cols, col)
		}
		if len(o.Columns) > 0 {
			t.Columns = cols
		} else {
			t.Columns[0] = key
		}
	}
	return c.Validate()
}
