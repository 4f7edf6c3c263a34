package components

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

// KeyMap maps the canonical string form of a natural key to its surrogate key.
type KeyMap map[string]int64

// Lookup returns the surrogate key for natural key v. A nil v never resolves.
func (m KeyMap) Lookup(v interface{}) (int64, bool) {
	if v == nil {
		return 0, false
	}
	k, err := helper.GetStringFromInterface(v, true)
	if err != nil {
		return 0, false
	}
	sk, ok := m[k]
	return sk, ok
}

type SurrogateKeyResolverConfig struct {
	Log         logger.Logger
	Name        string
	Db          shared.Connector   // connection to target snowflake database abstracted via interface.
	StepWatcher *stats.StepWatcher // optional
}

// GetSqlSelectKeyMap returns the SELECT of natural and surrogate key columns for a dimension.
func GetSqlSelectKeyMap(tab tabledefinition.Table) string {
	nk := helper.QuoteIdentifier(tabledefinition.TableColumn{ColName: tab.NaturalKey}.TargetName())
	return fmt.Sprintf("select %v, %v from %v", nk, helper.QuoteIdentifier(tab.SurrogateKey), tab.TargetTable)
}

// ReadKeyMap reads the natural to surrogate key mapping of one dimension from the warehouse.
func ReadKeyMap(ctx context.Context, cfg *SurrogateKeyResolverConfig, tab tabledefinition.Table) (KeyMap, error) {
	if tab.SurrogateKey == "" || tab.TargetTable == "" {
		return nil, fmt.Errorf("table %v is not a dimension with a surrogate key", tab.Name)
	}
	cfg.StepWatcher.StartWatching()
	h := &keyMapHandler{table: tab.TargetTable, m: make(KeyMap)}
	err := rdbms.SqlQuery(ctx, cfg.Log, cfg.Db, GetSqlSelectKeyMap(tab), h)
	if err != nil {
		err = errors.Wrapf(err, "error resolving surrogate keys from %v", tab.TargetTable)
	}
	cfg.StepWatcher.AddRowsOut(len(h.m))
	cfg.StepWatcher.AddRowsDropped(h.conflicts)
	cfg.StepWatcher.StopWatching(err)
	if err != nil {
		return nil, err
	}
	if h.nullKeys > 0 {
		cfg.Log.Warn(cfg.Name, " ignored ", h.nullKeys, " rows of ", tab.TargetTable, " with a null natural key")
	}
	if h.conflicts > 0 {
		cfg.Log.Warn(cfg.Name, " found ", h.conflicts, " conflicting surrogate keys for repeated natural keys in ", tab.TargetTable, "; kept the lowest key for each")
	}
	cfg.Log.Info(cfg.Name, " fetched ", len(h.m), " surrogate keys from ", tab.TargetTable)
	return h.m, nil
}

// keyMapHandler implements shared.SqlResultHandler.
type keyMapHandler struct {
	table     string
	m         KeyMap
	nullKeys  int
	conflicts int
}

func (h *keyMapHandler) HandleHeader(i []interface{}) error {
	if len(i) != 2 {
		return fmt.Errorf("expected 2 columns when reading keys from %v; got %v", h.table, len(i))
	}
	return nil
}

func (h *keyMapHandler) HandleRow(i []interface{}) error {
	if i[0] == nil {
		h.nullKeys++
		return nil
	}
	nk, err := helper.GetStringFromInterface(i[0], true)
	if err != nil {
		return err
	}
	sk, err := helper.ToInt64(i[1])
	if err != nil {
		return fmt.Errorf("bad surrogate key for natural key %q in %v: %w", nk, h.table, err)
	}
	if existing, ok := h.m[nk]; ok && existing != sk {
		// Keep the lowest surrogate key so repeated runs resolve the same way.
		h.conflicts++
		if existing < sk {
			return nil
		}
	}
	h.m[nk] = sk
	return nil
}
