package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/constants"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	"github.com/relloyd/shipetl/stream"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
	"github.com/rs/xid"
)

type StagingLoaderConfig struct {
	Log              logger.Logger
	Name             string
	Db               shared.Connector      // connection to target snowflake database abstracted via interface.
	Table            tabledefinition.Table // structure to provision; records use its logical column names.
	TargetName       string                // logical target used to build the staging table name.
	BatchSize        int                   // rows per INSERT statement.
	StepWatcher      *stats.StepWatcher    // optional
	FnGetStagingName func(target string) string
}

// GetStagingTableName returns a new staging table name like STG_<TARGET>_<XID>.
// The xid suffix is globally unique so concurrent runs never collide.
func GetStagingTableName(target string) string {
	return strings.ToUpper(fmt.Sprintf("%v%v_%v", constants.StagingTablePrefix, target, xid.New().String()))
}

// LoadStaging creates a new transient staging table shaped like cfg.Table, inserts every record
// from rs and returns the generated table name.
// On failure a best-effort drop of the partial table is attempted and a *StagingError is returned.
func LoadStaging(ctx context.Context, cfg *StagingLoaderConfig, rs *stream.RecordSet) (string, error) {
	fnName := cfg.FnGetStagingName
	if fnName == nil {
		fnName = GetStagingTableName
	}
	stagingTable := fnName(cfg.TargetName)
	cfg.StepWatcher.StartWatching()
	cfg.StepWatcher.AddRowsIn(rs.Len())
	created, staged, err := loadStaging(ctx, cfg, stagingTable, rs)
	if err != nil {
		if created {
			dropStagingTable(cfg.Log, cfg.Db, stagingTable)
		}
		err = &StagingError{Target: cfg.TargetName, StagingTable: stagingTable, Err: err}
	}
	cfg.StepWatcher.AddRowsOut(int(staged))
	cfg.StepWatcher.StopWatching(err)
	if err != nil {
		return "", err
	}
	cfg.Log.Info(cfg.Name, " staged rows: ", staged, " into ", stagingTable)
	return stagingTable, nil
}

func loadStaging(ctx context.Context, cfg *StagingLoaderConfig, stagingTable string, rs *stream.RecordSet) (created bool, staged int64, err error) {
	ddl, err := tabledefinition.ConvertTableDefinitionToSnowflake(cfg.Table, stagingTable, constants.StagingTableTypeTransient)
	if err != nil {
		return false, 0, err
	}
	cfg.Log.Info(cfg.Name, " staging ", rs.Len(), " rows into transient table ", stagingTable, "...")
	cfg.Log.Debug(cfg.Name, " staging DDL: ", ddl)
	if _, err = cfg.Db.ExecContext(ctx, ddl); err != nil {
		return false, 0, errors.Wrap(err, "error creating staging table")
	}
	keyCols, otherCols := getColumnMaps(cfg.Table)
	gen, err := shared.NewInsertGenerator(&shared.SqlStatementGeneratorConfig{
		Log:             cfg.Log,
		OutputTable:     stagingTable,
		TargetKeyCols:   keyCols,
		TargetOtherCols: otherCols,
	})
	if err != nil {
		return true, 0, err
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = constants.StagingBatchSizeDefault
	}
	flush := func() error {
		if gen.GetRowsInBatch() == 0 {
			return nil
		}
		res, err := cfg.Db.ExecContext(ctx, gen.GetStatement(), gen.GetValues()...)
		if err != nil {
			return errors.Wrap(err, "error inserting staging batch")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "unable to fetch rows affected by staging batch")
		}
		staged += n
		gen.InitBatch(batchSize)
		return nil
	}
	gen.InitBatch(batchSize)
	for _, rec := range rs.Records { // for each record...
		full, err := gen.AddValuesToBatch(rec.GetDataValues(gen.FieldList))
		if err != nil {
			return true, staged, err
		}
		if full {
			if err = flush(); err != nil {
				return true, staged, err
			}
		}
	}
	if err = flush(); err != nil {
		return true, staged, err
	}
	if staged != int64(rs.Len()) {
		return true, staged, fmt.Errorf("staged %v rows but expected %v", staged, rs.Len())
	}
	return true, staged, nil
}

// dropStagingTable drops the table and only logs failure.
func dropStagingTable(log logger.Logger, db shared.Connector, stagingTable string) {
	if _, err := db.ExecContext(context.Background(), GetSqlDropStagingTable(stagingTable)); err != nil {
		log.Warn("unable to drop staging table ", stagingTable, ": ", err)
		return
	}
	log.Debug("dropped staging table ", stagingTable)
}

func GetSqlDropStagingTable(stagingTable string) string {
	return fmt.Sprintf("drop table if exists %v", stagingTable)
}
