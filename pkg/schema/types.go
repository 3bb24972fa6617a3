package schema

import "strings"

// LogicalType is the dialect independent type of a column.
type LogicalType string

const (
	TypeString   LogicalType = "string"
	TypeText     LogicalType = "text"
	TypeInteger  LogicalType = "integer"
	TypeBigInt   LogicalType = "bigint"
	TypeSmallInt LogicalType = "smallint"
	TypeDecimal  LogicalType = "decimal"
	TypeFloat    LogicalType = "float"
	TypeBoolean  LogicalType = "boolean"
	TypeDate     LogicalType = "date"
	TypeDateTime LogicalType = "datetime"
	TypeTime     LogicalType = "time"
	TypeJSON     LogicalType = "json"
	TypeBinary   LogicalType = "binary"
	TypeUUID     LogicalType = "uuid"
	TypeUnknown  LogicalType = "unknown"
)

func (t LogicalType) IsInteger() bool {
	return t == TypeInteger || t == TypeBigInt || t == TypeSmallInt
}

func (t LogicalType) IsDecimal() bool {
	return t == TypeDecimal || t == TypeFloat
}

var typeMap = map[string]LogicalType{
	"character varying": TypeString, "varchar": TypeString, "nvarchar": TypeString,
	"character": TypeString, "char": TypeString, "bpchar": TypeString, "nchar": TypeString,
	"citext": TypeString, "enum": TypeString, "set": TypeString, "inet": TypeString,

	"text": TypeText, "tinytext": TypeText, "mediumtext": TypeText, "longtext": TypeText, "clob": TypeText,

	"integer": TypeInteger, "int": TypeInteger, "int4": TypeInteger, "mediumint": TypeInteger,
	"serial": TypeInteger, "serial4": TypeInteger,
	"bigint": TypeBigInt, "int8": TypeBigInt, "bigserial": TypeBigInt, "serial8": TypeBigInt,
	"smallint": TypeSmallInt, "int2": TypeSmallInt, "tinyint": TypeSmallInt, "smallserial": TypeSmallInt,

	"numeric": TypeDecimal, "decimal": TypeDecimal, "money": TypeDecimal,
	"real": TypeFloat, "float": TypeFloat, "float4": TypeFloat, "float8": TypeFloat,
	"double": TypeFloat, "double precision": TypeFloat,

	"boolean": TypeBoolean, "bool": TypeBoolean, "bit": TypeBoolean,

	"date":     TypeDate,
	"datetime": TypeDateTime, "timestamp": TypeDateTime, "timestamptz": TypeDateTime,
	"timestamp with time zone": TypeDateTime, "timestamp without time zone": TypeDateTime,
	"time": TypeTime, "timetz": TypeTime, "time with time zone": TypeTime, "time without time zone": TypeTime,

	"json": TypeJSON, "jsonb": TypeJSON,

	"blob": TypeBinary, "tinyblob": TypeBinary, "mediumblob": TypeBinary, "longblob": TypeBinary,
	"binary": TypeBinary, "varbinary": TypeBinary, "bytea": TypeBinary,

	"uuid": TypeUUID,

	// postgres types the affinity rules below would misread
	"interval": TypeUnknown, "point": TypeUnknown,
	"int4range": TypeUnknown, "int8range": TypeUnknown, "numrange": TypeUnknown,
	"tsrange": TypeUnknown, "tstzrange": TypeUnknown, "daterange": TypeUnknown,
	"int4multirange": TypeUnknown, "int8multirange": TypeUnknown,
}

// ParseType maps a raw catalog type such as "VARCHAR(255)" or "int unsigned"
// to a LogicalType.
func ParseType(raw string) LogicalType {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return TypeUnknown
	}

	// MySQL reports booleans as tinyint(1)
	if t == "tinyint(1)" {
		return TypeBoolean
	}

	if idx := strings.Index(t, "("); idx > 0 {
		t = strings.TrimSpace(t[:idx])
	}
	t = strings.TrimSuffix(t, " unsigned")
	t = strings.TrimSuffix(t, "[]")

	if mapped, ok := typeMap[t]; ok {
		return mapped
	}

	// SQLite type affinity rules
	switch {
	case strings.Contains(t, "int"):
		return TypeInteger
	case strings.Contains(t, "char") || strings.Contains(t, "clob"):
		return TypeString
	case strings.Contains(t, "text"):
		return TypeText
	case strings.Contains(t, "real") || strings.Contains(t, "floa") || strings.Contains(t, "doub"):
		return TypeFloat
	case strings.Contains(t, "timestamp"):
		return TypeDateTime
	}
	return TypeUnknown
}
