package shared

import (
	"fmt"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
	"github.com/relloyd/shipetl/helper"
	"github.com/relloyd/shipetl/logger"
)

type SqlStatementGeneratorConfig struct {
	Log             logger.Logger
	OutputSchema    string
	OutputTable     string
	TargetKeyCols   *om.OrderedMap // ordered map of: key = record field name; value = target table column name
	TargetOtherCols *om.OrderedMap // ordered map of: key = record field name; value = target table column name
}

// SqlInsertTxtBatch implements interface SqlStmtTxtBatcher
// and generates multi-row INSERT statements using positional '?' binds.
type SqlInsertTxtBatch struct {
	SqlStatementGeneratorConfig // mandatory to be populated.

	ColList         []string // list of target columns extracted from SqlStatementGeneratorConfig.
	FieldList       []string // list of record fields in the same order as ColList.
	sqlStmtTemplate string
	sqlStmt         string
	sqlValues       []interface{} // slice to hold data values for all rows in batch
	batchSize       int
	rowsInBatch     int
	stmtRows        int // number of rows that sqlStmt was generated for.
}

// NewInsertGenerator creates a new SqlStmtTxtBatcher for the table in cfg.
func NewInsertGenerator(cfg *SqlStatementGeneratorConfig) (*SqlInsertTxtBatch, error) {
	if cfg.OutputTable == "" {
		return nil, errors.New("missing output table name")
	}
	if cfg.TargetKeyCols == nil {
		cfg.TargetKeyCols = om.NewOrderedMap()
	}
	if cfg.TargetOtherCols == nil {
		cfg.TargetOtherCols = om.NewOrderedMap()
	}
	if cfg.TargetKeyCols.Len()+cfg.TargetOtherCols.Len() == 0 {
		return nil, fmt.Errorf("no columns supplied for INSERT into %v", cfg.OutputTable)
	}
	o := &SqlInsertTxtBatch{SqlStatementGeneratorConfig: *cfg}
	if err := o.setupSqlStatement(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *SqlInsertTxtBatch) setupSqlStatement() error {
	// Build the list of column names.
	for _, m := range []*om.OrderedMap{o.TargetKeyCols, o.TargetOtherCols} {
		iter := m.IterFunc()
		for kv, ok := iter(); ok; kv, ok = iter() {
			col, isString := kv.Value.(string)
			field, isStringKey := kv.Key.(string)
			if !isString || !isStringKey {
				return fmt.Errorf("unexpected column mapping %v => %v", kv.Key, kv.Value)
			}
			o.FieldList = append(o.FieldList, field)
			o.ColList = append(o.ColList, col)
		}
	}
	table := o.OutputTable
	if o.OutputSchema != "" {
		table = o.OutputSchema + "." + table
	}
	// Populate the SQL template.
	o.sqlStmtTemplate = fmt.Sprintf("insert into %v (%v) values <VALUES>", table, strings.Join(helper.QuoteIdentifiers(o.ColList), ","))
	o.Log.Debug("setup INSERT generator with SQL (VALUES pending): ", o.sqlStmtTemplate)
	return nil
}

func (o *SqlInsertTxtBatch) InitBatch(batchSize int) {
	if batchSize < 1 {
		batchSize = 1
	}
	o.batchSize = batchSize
	o.rowsInBatch = 0
	// Allocate a new buffer to hold all values (args) to exec.
	o.sqlValues = make([]interface{}, 0, o.batchSize*len(o.ColList)) // many values per row in a batch.
}

// AddValuesToBatch appends one row of values, in ColList order.
// It returns true when the batch is full and the caller should exec the statement.
func (o *SqlInsertTxtBatch) AddValuesToBatch(values []interface{}) (batchIsFull bool, err error) {
	if o.rowsInBatch >= o.batchSize {
		return true, errors.New("no more rows allowed in INSERT batch")
	}
	if len(values) != len(o.ColList) {
		return false, fmt.Errorf("the number of values supplied (%v) does not match the number of table columns (%v)", len(values), len(o.ColList))
	}
	o.sqlValues = append(o.sqlValues, values...)
	o.rowsInBatch++
	return o.rowsInBatch >= o.batchSize, nil
}

func (o *SqlInsertTxtBatch) GetValues() []interface{} {
	return o.sqlValues
}

func (o *SqlInsertTxtBatch) GetRowsInBatch() int {
	return o.rowsInBatch
}

// GetStatement returns the INSERT for the rows currently in the batch.
// The generated text is cached while the number of rows stays the same.
func (o *SqlInsertTxtBatch) GetStatement() string {
	if o.stmtRows != o.rowsInBatch || o.sqlStmt == "" {
		row := "(" + strings.TrimSuffix(strings.Repeat("?,", len(o.ColList)), ",") + ")"
		allRows := make([]string, o.rowsInBatch)
		for idx := range allRows {
			allRows[idx] = row
		}
		o.sqlStmt = strings.Replace(o.sqlStmtTemplate, "<VALUES>", strings.Join(allRows, ","), 1)
		o.stmtRows = o.rowsInBatch
	}
	return o.sqlStmt
}
