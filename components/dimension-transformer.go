package components

import (
	"fmt"
	"strings"

	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

type DimensionTransformerConfig struct {
	Log         logger.Logger
	Name        string
	Table       tabledefinition.Table
	StepWatcher *stats.StepWatcher // optional
}

// DimensionTransformResult counts what a dimension transform removed.
type DimensionTransformResult struct {
	Input      int
	Output     int
	Duplicates int
	NullKeys   int
}

// TransformDimension trims whitespace from text columns and keeps the first-seen row per natural key.
// Rows whose natural key is null are removed and counted.
// The input RecordSet is not modified.
func TransformDimension(cfg *DimensionTransformerConfig, in *stream.RecordSet) (*stream.RecordSet, DimensionTransformResult, error) {
	res := DimensionTransformResult{Input: in.Len()}
	cfg.StepWatcher.StartWatching()
	cfg.StepWatcher.AddRowsIn(in.Len())
	out := stream.NewRecordSet(in.Name, in.Columns)
	textCols := cfg.Table.TextColumns()
	seen := make(map[string]struct{}, in.Len())
	for _, rec := range in.Records {
		r := rec.Copy()
		for _, c := range textCols { // for each text column...
			r.SetData(c, trimValue(r.GetData(c)))
		}
		if r.GetData(cfg.Table.NaturalKey) == nil { // if the natural key is null...
			res.NullKeys++
			continue
		}
		k, err := r.GetDataAsString(cfg.Table.NaturalKey)
		if err != nil {
			cfg.StepWatcher.StopWatching(err)
			return nil, res, fmt.Errorf("dimension %v: %w", cfg.Table.Name, err)
		}
		if _, ok := seen[k]; ok {
			res.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		if err = out.Append(r); err != nil {
			cfg.StepWatcher.StopWatching(err)
			return nil, res, err
		}
	}
	res.Output = out.Len()
	cfg.StepWatcher.AddRowsOut(res.Output)
	cfg.StepWatcher.AddRowsDropped(res.Duplicates + res.NullKeys)
	cfg.StepWatcher.StopWatching(nil)
	if res.NullKeys > 0 {
		cfg.Log.Warn(cfg.Name, " removed ", res.NullKeys, " rows with a null ", cfg.Table.NaturalKey)
	}
	cfg.Log.Info(cfg.Name, " rows in: ", res.Input, "; duplicates removed: ", res.Duplicates, "; rows out: ", res.Output)
	return out, res, nil
}

func trimValue(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	default:
		return v
	}
}
