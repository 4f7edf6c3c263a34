package components

import (
	"context"
	"fmt"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

type SnowflakeMergeSqlConfig struct {
	TargetKeyCols       *om.OrderedMap      // ordered map of: key = record field name; value = target table column name
	TargetOtherCols     *om.OrderedMap      // ordered map of: key = record field name; value = target table column name
	BinaryCollationCols map[string]struct{} // target key columns compared case-sensitively using binary collation
}

// NewSnowflakeMergeSqlConfig builds the merge column maps for tab.
// Text natural keys are compared with binary collation.
func NewSnowflakeMergeSqlConfig(tab tabledefinition.Table) *SnowflakeMergeSqlConfig {
	keyCols, otherCols := getColumnMaps(tab)
	collate := make(map[string]struct{})
	for _, c := range tab.KeyColumns() {
		if c.IsText() {
			collate[c.TargetName()] = struct{}{}
		}
	}
	return &SnowflakeMergeSqlConfig{TargetKeyCols: keyCols, TargetOtherCols: otherCols, BinaryCollationCols: collate}
}

// GetSqlSnowflakeMerge returns a MERGE that upserts stagingTable into targetTable.
// Matched rows are only updated when a column value differs, so re-merging identical data changes nothing.
func GetSqlSnowflakeMerge(cfg *SnowflakeMergeSqlConfig, targetTable string, stagingTable string) (string, error) {
	if cfg.TargetKeyCols == nil || cfg.TargetKeyCols.Len() == 0 {
		return "", fmt.Errorf("no key columns supplied to merge into %v", targetTable)
	}
	keys, err := helper.OrderedMapValuesToStringSlice(cfg.TargetKeyCols)
	if err != nil {
		return "", err
	}
	others := make([]string, 0)
	if cfg.TargetOtherCols != nil {
		if others, err = helper.OrderedMapValuesToStringSlice(cfg.TargetOtherCols); err != nil {
			return "", err
		}
	}
	// Build the join condition.
	on := make([]string, len(keys))
	for idx, k := range keys {
		q := helper.QuoteIdentifier(k)
		if _, ok := cfg.BinaryCollationCols[k]; ok {
			on[idx] = fmt.Sprintf("collate(T.%v, 'utf8') = collate(S.%v, 'utf8')", q, q)
		} else {
			on[idx] = fmt.Sprintf("T.%v = S.%v", q, q)
		}
	}
	quotedOthers := helper.QuoteIdentifiers(others)
	allCols := append(helper.QuoteIdentifiers(keys), quotedOthers...)
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("merge into %v T using %v S on %v", targetTable, stagingTable, strings.Join(on, " and ")))
	if len(quotedOthers) > 0 { // if there is anything to update...
		unchanged := make([]string, len(quotedOthers))
		for idx, c := range quotedOthers {
			unchanged[idx] = fmt.Sprintf("equal_null(T.%v, S.%v)", c, c)
		}
		sb.WriteString(fmt.Sprintf(" when matched and not (%v) then update set %v",
			strings.Join(unchanged, " and "),
			helper.GenerateStringOfColsEqualsCols(quotedOthers, "T", "S", ", ")))
	}
	sb.WriteString(fmt.Sprintf(" when not matched then insert (%v) values (%v)",
		strings.Join(allCols, ","),
		helper.PrefixCols(allCols, "S")))
	return sb.String(), nil
}

type SnowflakeMergeConfig struct {
	Log          logger.Logger
	Name         string
	Db           shared.Connector // connection to target snowflake database abstracted via interface.
	TargetTable  string
	StagingTable string
	SqlConfig    *SnowflakeMergeSqlConfig
	StepWatcher  *stats.StepWatcher // optional
}

// MergeResult holds the row counts reported by the MERGE.
type MergeResult struct {
	Inserted int64
	Updated  int64
}

// MergeStagingTable runs the MERGE and then drops the staging table.
// If the MERGE fails the staging table is kept and a *MergeError naming it is returned.
func MergeStagingTable(ctx context.Context, cfg *SnowflakeMergeConfig) (MergeResult, error) {
	cfg.StepWatcher.StartWatching()
	res, err := mergeStagingTable(ctx, cfg)
	if err != nil {
		err = &MergeError{Target: cfg.TargetTable, StagingTable: cfg.StagingTable, Err: err}
		cfg.StepWatcher.StopWatching(err)
		return res, err
	}
	cfg.StepWatcher.AddRowsOut(int(res.Inserted + res.Updated))
	cfg.StepWatcher.StopWatching(nil)
	cfg.Log.Info(cfg.Name, " merged into ", cfg.TargetTable, ": rows inserted = ", res.Inserted, "; rows updated = ", res.Updated)
	dropStagingTable(cfg.Log, cfg.Db, cfg.StagingTable)
	return res, nil
}

func mergeStagingTable(ctx context.Context, cfg *SnowflakeMergeConfig) (res MergeResult, err error) {
	sqltext, err := GetSqlSnowflakeMerge(cfg.SqlConfig, cfg.TargetTable, cfg.StagingTable)
	if err != nil {
		return res, err
	}
	cfg.Log.Info(cfg.Name, " MERGE ", cfg.TargetTable, "...")
	cfg.Log.Debug(cfg.Name, " merge SQL: ", sqltext)
	rows, err := cfg.Db.QueryContext(ctx, sqltext)
	if err != nil {
		return res, errors.Wrap(err, "error executing merge")
	}
	defer func() {
		_ = rows.Close()
	}()
	cols, err := rows.Columns()
	if err != nil {
		return res, errors.Wrap(err, "error fetching merge result columns")
	}
	if rows.Next() { // if the merge reported row counts...
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for idx := range vals {
			ptrs[idx] = &vals[idx]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return res, errors.Wrap(err, "error scanning merge result")
		}
		for idx, c := range cols {
			col := strings.ToLower(c)
			var target *int64
			switch {
			case strings.Contains(col, "inserted"):
				target = &res.Inserted
			case strings.Contains(col, "updated"):
				target = &res.Updated
			default:
				continue
			}
			if *target, err = helper.ToInt64(vals[idx]); err != nil {
				return res, errors.Wrapf(err, "unexpected merge result for %v", c)
			}
		}
	}
	if err = rows.Err(); err != nil {
		return res, errors.Wrap(err, "error reading merge result")
	}
	return res, nil
}
