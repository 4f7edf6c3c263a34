package components

import (
	"context"

	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

// TableLoader upserts a RecordSet into the target table of tab.
type TableLoader interface {
	LoadTable(ctx context.Context, tab tabledefinition.Table, rs *stream.RecordSet) (LoadResult, error)
}

// KeyMapReader fetches the surrogate key mapping of a dimension.
type KeyMapReader interface {
	ReadKeyMap(ctx context.Context, tab tabledefinition.Table) (KeyMap, error)
}

// Warehouse is everything the load stage needs from the target store.
type Warehouse interface {
	TableLoader
	KeyMapReader
}

// LoadResult describes one staging-then-merge load.
type LoadResult struct {
	Target       string
	StagingTable string
	Staged       int
	Merge        MergeResult
}

// SnowflakeWarehouse implements Warehouse using a staging table followed by a MERGE.
type SnowflakeWarehouse struct {
	Log       logger.Logger
	Db        shared.Connector
	BatchSize int
	Stats     stats.StatsManager // optional
}

func NewSnowflakeWarehouse(log logger.Logger, db shared.Connector, batchSize int, statsMgr stats.StatsManager) *SnowflakeWarehouse {
	return &SnowflakeWarehouse{Log: log, Db: db, BatchSize: batchSize, Stats: statsMgr}
}

func (w *SnowflakeWarehouse) watcher(stepName string) *stats.StepWatcher {
	if w.Stats == nil {
		return nil
	}
	return w.Stats.AddStepWatcher(stepName)
}

// LoadTable stages rs and merges it into tab.TargetTable keyed on the natural key.
func (w *SnowflakeWarehouse) LoadTable(ctx context.Context, tab tabledefinition.Table, rs *stream.RecordSet) (LoadResult, error) {
	res := LoadResult{Target: tab.TargetTable, Staged: rs.Len()}
	stagingTable, err := LoadStaging(ctx, &StagingLoaderConfig{
		Log:         w.Log,
		Name:        "stage-" + tab.Name,
		Db:          w.Db,
		Table:       tab,
		TargetName:  tab.TargetTable,
		BatchSize:   w.BatchSize,
		StepWatcher: w.watcher("stage-" + tab.Name),
	}, rs)
	if err != nil {
		return res, err
	}
	res.StagingTable = stagingTable
	res.Merge, err = MergeStagingTable(ctx, &SnowflakeMergeConfig{
		Log:          w.Log,
		Name:         "merge-" + tab.Name,
		Db:           w.Db,
		TargetTable:  tab.TargetTable,
		StagingTable: stagingTable,
		SqlConfig:    NewSnowflakeMergeSqlConfig(tab),
		StepWatcher:  w.watcher("merge-" + tab.Name),
	})
	return res, err
}

func (w *SnowflakeWarehouse) ReadKeyMap(ctx context.Context, tab tabledefinition.Table) (KeyMap, error) {
	return ReadKeyMap(ctx, &SurrogateKeyResolverConfig{
		Log:         w.Log,
		Name:        "resolve-" + tab.Name,
		Db:          w.Db,
		StepWatcher: w.watcher("resolve-" + tab.Name),
	}, tab)
}

// ResolveSurrogateKeys reads the key mapping of each dimension, keyed by table name.
func ResolveSurrogateKeys(ctx context.Context, r KeyMapReader, dims []tabledefinition.Table) (map[string]KeyMap, error) {
	retval := make(map[string]KeyMap, len(dims))
	for _, d := range dims {
		m, err := r.ReadKeyMap(ctx, d)
		if err != nil {
			return nil, err
		}
		retval[d.Name] = m
	}
	return retval, nil
}
