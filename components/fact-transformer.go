package components

import (
	"fmt"

	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

// Field names produced by the fact transform.
const (
	FieldShipmentId  = "shipment_id"
	FieldWeight      = "weight"
	FieldCost        = "cost"
	FieldTotalWeight = "total_weight"
	FieldTotalCost   = "total_cost"
)

type FactTransformerConfig struct {
	Log         logger.Logger
	Name        string
	Shipments   tabledefinition.Table
	StepWatcher *stats.StepWatcher // optional
}

type itemTotals struct {
	weight float64
	cost   float64
}

// TransformFact sums item weight and cost per shipment and left-joins the totals onto every
// shipment header. Headers without items get zero totals. Items without a header are ignored.
func TransformFact(cfg *FactTransformerConfig, shipments *stream.RecordSet, items *stream.RecordSet) (*stream.RecordSet, error) {
	cfg.StepWatcher.StartWatching()
	out, err := transformFact(cfg, shipments, items)
	cfg.StepWatcher.StopWatching(err)
	return out, err
}

func transformFact(cfg *FactTransformerConfig, shipments *stream.RecordSet, items *stream.RecordSet) (*stream.RecordSet, error) {
	cfg.StepWatcher.AddRowsIn(shipments.Len() + items.Len())
	// Aggregate items by parent.
	totals := make(map[string]*itemTotals)
	for idx, rec := range items.Records {
		if rec.GetData(FieldShipmentId) == nil {
			continue // cannot join to a header.
		}
		k, err := rec.GetDataAsString(FieldShipmentId)
		if err != nil {
			return nil, fmt.Errorf("shipment item %v: %w", idx, err)
		}
		w, _, err := helper.ToFloat64(rec.GetData(FieldWeight)) // nil contributes 0.
		if err != nil {
			return nil, fmt.Errorf("shipment item %v weight: %w", idx, err)
		}
		c, _, err := helper.ToFloat64(rec.GetData(FieldCost))
		if err != nil {
			return nil, fmt.Errorf("shipment item %v cost: %w", idx, err)
		}
		t, ok := totals[k]
		if !ok {
			t = &itemTotals{}
			totals[k] = t
		}
		t.weight += w
		t.cost += c
	}
	// Left join onto headers.
	cols := append(append([]string{}, shipments.Columns...), FieldTotalWeight, FieldTotalCost)
	out := stream.NewRecordSet(cfg.Shipments.Name, cols)
	for idx, rec := range shipments.Records {
		r := rec.Copy()
		r.SetData(FieldTotalWeight, 0.0)
		r.SetData(FieldTotalCost, 0.0)
		if r.GetData(FieldShipmentId) != nil {
			k, err := r.GetDataAsString(FieldShipmentId)
			if err != nil {
				return nil, fmt.Errorf("shipment %v: %w", idx, err)
			}
			if t, ok := totals[k]; ok {
				r.SetData(FieldTotalWeight, t.weight)
				r.SetData(FieldTotalCost, t.cost)
			}
		}
		if err := out.Append(r); err != nil {
			return nil, err
		}
	}
	cfg.StepWatcher.AddRowsOut(out.Len())
	cfg.Log.Info(cfg.Name, " fact candidate rows: ", out.Len(), " from ", items.Len(), " items")
	return out, nil
}
