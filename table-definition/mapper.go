package tabledefinition

import (
	"fmt"
	"strings"
)

// DataType is the logical type of a catalog column.
type DataType string

const (
	DataTypeText      DataType = "text"
	DataTypeInteger   DataType = "integer"
	DataTypeNumber    DataType = "number" // fixed point, uses DataPrecision and DataScale
	DataTypeFloat     DataType = "float"
	DataTypeDate      DataType = "date"
	DataTypeTimestamp DataType = "timestamp"
)

// Mapper converts a logical data type into a warehouse data type.
type Mapper interface {
	Map(dataType DataType) (string, error)
	Sanitise(dataType DataType, precision, scale int) string
}

// sanitiserFuncT converts precision and scale into a string ready for use in CREATE TABLE DDL.
type sanitiserFuncT func(dataPrecision, dataScale int) string

// dataTypeMap implements Mapper.
type dataTypeMap struct {
	mapTypes      map[DataType]string
	mapSanitisers map[DataType]sanitiserFuncT
}

// NewSnowflakeDataTypeMapper returns the Mapper used to provision Snowflake staging tables.
func NewSnowflakeDataTypeMapper() Mapper {
	return dataTypeMap{
		mapTypes: map[DataType]string{
			DataTypeText:      "VARCHAR",
			DataTypeInteger:   "NUMBER",
			DataTypeNumber:    "NUMBER",
			DataTypeFloat:     "FLOAT",
			DataTypeDate:      "DATE",
			DataTypeTimestamp: "TIMESTAMP_NTZ",
		},
		mapSanitisers: map[DataType]sanitiserFuncT{
			DataTypeInteger: func(int, int) string { return "(38,0)" },
			DataTypeNumber: func(p int, s int) string {
				if p <= 0 {
					p = 38
				}
				if s < 0 || s > p {
					s = 0
				}
				return fmt.Sprintf("(%v,%v)", p, s)
			},
		},
	}
}

func (o dataTypeMap) Map(dataType DataType) (string, error) {
	v, ok := o.mapTypes[DataType(strings.ToLower(string(dataType)))]
	if !ok {
		return "", fmt.Errorf("unsupported data type %q", dataType)
	}
	return v, nil
}

func (o dataTypeMap) Sanitise(dataType DataType, precision, scale int) string {
	fn, ok := o.mapSanitisers[DataType(strings.ToLower(string(dataType)))]
	if !ok { // if the type has no detail...
		return ""
	}
	return fn(precision, scale)
}
