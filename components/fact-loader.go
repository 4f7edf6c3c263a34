package components

import (
	"context"
	"fmt"

	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

// FactReference describes one dimension reference on a fact candidate.
type FactReference struct {
	SourceField string // natural key field on the candidate, e.g. origin_port
	KeyField    string // surrogate key field on the fact, e.g. origin_port_key
	Dimension   string // name of the dimension table whose KeyMap resolves it
}

// DefaultFactReferences returns the four references of a shipment.
func DefaultFactReferences() []FactReference {
	return []FactReference{
		{SourceField: "customer_id", KeyField: "customer_key", Dimension: "customers"},
		{SourceField: "ship_id", KeyField: "ship_key", Dimension: "ships"},
		{SourceField: "origin_port", KeyField: "origin_port_key", Dimension: "ports"},
		{SourceField: "destination_port", KeyField: "destination_port_key", Dimension: "ports"},
	}
}

// RejectSink receives each dropped candidate with the source fields that did not resolve.
type RejectSink interface {
	Reject(cand stream.Record, unresolved []string) error
}

type FactLoaderConfig struct {
	Log            logger.Logger
	Name           string
	Fact           tabledefinition.Table
	References     []FactReference
	KeyMaps        map[string]KeyMap // dimension name => key map
	MaxDropPercent float64           // 100 disables the check
	Loader         TableLoader
	Rejects        RejectSink         // optional
	StepWatcher    *stats.StepWatcher // optional
}

// FactLoadResult reports what happened to the fact candidates.
type FactLoadResult struct {
	Candidates int
	Dropped    int
	Loaded     int
	Load       *LoadResult // nil when nothing was loaded
}

// ResolveFactKeys replaces the natural key references of each candidate with surrogate keys.
// Candidates with any unresolved reference are dropped, counted and passed to cfg.Rejects if set.
// The returned RecordSet has exactly the fact table's columns.
func ResolveFactKeys(cfg *FactLoaderConfig, candidates *stream.RecordSet) (*stream.RecordSet, int, error) {
	keyFields := make(map[string]struct{}, len(cfg.References))
	for _, ref := range cfg.References {
		if _, ok := cfg.KeyMaps[ref.Dimension]; !ok {
			return nil, 0, fmt.Errorf("no surrogate keys were resolved for dimension %v", ref.Dimension)
		}
		keyFields[ref.KeyField] = struct{}{}
	}
	have := make(map[string]struct{}, len(candidates.Columns))
	for _, c := range candidates.Columns {
		have[c] = struct{}{}
	}
	for _, c := range cfg.Fact.ColumnNames() {
		_, isKey := keyFields[c]
		_, ok := have[c]
		if !isKey && !ok {
			return nil, 0, fmt.Errorf("fact column %v is missing from the fact candidates", c)
		}
	}
	out := stream.NewRecordSet(cfg.Fact.Name, cfg.Fact.ColumnNames())
	dropped := 0
	for _, cand := range candidates.Records {
		r := stream.NewRecord()
		var unresolved []string
		for _, ref := range cfg.References { // for each dimension reference...
			sk, ok := cfg.KeyMaps[ref.Dimension].Lookup(cand.GetData(ref.SourceField))
			if !ok {
				cfg.Log.Debug(cfg.Name, " dropping shipment ", cand.GetData(FieldShipmentId), ": unresolved ", ref.SourceField, " = ", cand.GetData(ref.SourceField))
				unresolved = append(unresolved, ref.SourceField)
				continue
			}
			r.SetData(ref.KeyField, sk)
		}
		if len(unresolved) > 0 {
			dropped++
			if cfg.Rejects != nil {
				if err := cfg.Rejects.Reject(cand, unresolved); err != nil {
					return nil, dropped, fmt.Errorf("unable to record rejected shipment %v: %w", cand.GetData(FieldShipmentId), err)
				}
			}
			continue
		}
		for _, c := range cfg.Fact.ColumnNames() {
			if _, ok := keyFields[c]; !ok {
				r.SetData(c, cand.GetData(c))
			}
		}
		if err := out.Append(r); err != nil {
			return nil, dropped, err
		}
	}
	return out, dropped, nil
}

// LoadFact resolves surrogate keys, enforces the drop limit and loads the survivors through cfg.Loader.
// An empty survivor set skips staging and merge.
func LoadFact(ctx context.Context, cfg *FactLoaderConfig, candidates *stream.RecordSet) (FactLoadResult, error) {
	cfg.StepWatcher.StartWatching()
	res, err := loadFact(ctx, cfg, candidates)
	cfg.StepWatcher.StopWatching(err)
	return res, err
}

func loadFact(ctx context.Context, cfg *FactLoaderConfig, candidates *stream.RecordSet) (FactLoadResult, error) {
	res := FactLoadResult{Candidates: candidates.Len()}
	cfg.StepWatcher.AddRowsIn(candidates.Len())
	survivors, dropped, err := ResolveFactKeys(cfg, candidates)
	if err != nil {
		return res, err
	}
	res.Dropped = dropped
	cfg.StepWatcher.AddRowsDropped(dropped)
	if dropped > 0 {
		cfg.Log.Warn(cfg.Name, " dropped ", dropped, " fact rows due to missing dimension keys.")
	}
	if percentOf(dropped, res.Candidates) > cfg.MaxDropPercent {
		return res, &DataQualityError{Dropped: dropped, Candidates: res.Candidates, MaxDropPercent: cfg.MaxDropPercent}
	}
	if survivors.Len() == 0 {
		cfg.Log.Info(cfg.Name, " no fact rows to load.")
		return res, nil
	}
	lr, err := cfg.Loader.LoadTable(ctx, cfg.Fact, survivors)
	res.Load = &lr
	if err != nil {
		return res, err
	}
	res.Loaded = survivors.Len()
	cfg.StepWatcher.AddRowsOut(res.Loaded)
	return res, nil
}
