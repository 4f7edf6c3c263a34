package components

import (
	om "github.com/cevaris/ordered_map"
	tabledefinition "github.com/relloyd/shipetl/table-definition"
)

// getColumnMaps splits the table's columns into ordered maps of record field name => target column name.
// The natural key columns go first.
func getColumnMaps(tab tabledefinition.Table) (keyCols *om.OrderedMap, otherCols *om.OrderedMap) {
	keyCols = om.NewOrderedMap()
	otherCols = om.NewOrderedMap()
	for _, c := range tab.KeyColumns() {
		keyCols.Set(c.ColName, c.TargetName())
	}
	for _, c := range tab.OtherColumns() {
		otherCols.Set(c.ColName, c.TargetName())
	}
	return
}

func percentOf(part int, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
