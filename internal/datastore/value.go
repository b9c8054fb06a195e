package datastore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind     Kind
	Text     string
	Number   float64
	Bool     bool
	Datetime time.Time
	DateOnly bool
}

func Null() Value                { return Value{Kind: KindNull} }
func Text(s string) Value        { return Value{Kind: KindText, Text: s} }
func Number(f float64) Value     { return Value{Kind: KindNumber, Number: f} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Datetime(t time.Time) Value { return Value{Kind: KindDatetime, Datetime: t} }
func Date(t time.Time) Value     { return Value{Kind: KindDatetime, Datetime: t, DateOnly: true} }

// FromDriver converts a database/sql scan result. declaredType is the column's
// declared SQL type and may be empty.
func FromDriver(v any, declaredType string) Value {
	switch typed := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(typed)
	case int64:
		return Number(float64(typed))
	case int32:
		return Number(float64(typed))
	case int16:
		return Number(float64(typed))
	case int8:
		return Number(float64(typed))
	case int:
		return Number(float64(typed))
	case uint64:
		return Number(float64(typed))
	case uint32:
		return Number(float64(typed))
	case uint16:
		return Number(float64(typed))
	case uint8:
		return Number(float64(typed))
	case float64:
		return Number(typed)
	case float32:
		return Number(float64(typed))
	case time.Time:
		if isDateType(declaredType) {
			return Date(typed)
		}
		return Datetime(typed)
	case []byte:
		return fromText(string(typed), declaredType)
	case string:
		return fromText(typed, declaredType)
	case interface{ Float64() float64 }:
		return Number(typed.Float64())
	case fmt.Stringer:
		return fromText(typed.String(), declaredType)
	default:
		return Text(fmt.Sprint(typed))
	}
}

func fromText(s, declaredType string) Value {
	if isNumericType(declaredType) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return Number(f)
		}
	}
	return Text(s)
}

func isNumericType(declaredType string) bool {
	t := strings.ToLower(declaredType)
	for _, prefix := range []string{"int", "bigint", "smallint", "tinyint", "decimal", "numeric", "real", "double", "float", "hugeint"} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func isDateType(declaredType string) bool {
	return strings.EqualFold(strings.TrimSpace(declaredType), "date")
}

// String renders the literal used in prompts.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return "'" + strings.ReplaceAll(v.Text, "'", "''") + "'"
	case KindNumber:
		return formatNumber(v.Number)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDatetime:
		if v.DateOnly {
			return v.Datetime.Format("2006-01-02")
		}
		return v.Datetime.Format("2006-01-02 15:04:05")
	default:
		return "NULL"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return json.Marshal(formatNumber(v.Number))
		}
		return []byte(formatNumber(v.Number)), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindDatetime:
		if v.DateOnly {
			return json.Marshal(v.Datetime.Format("2006-01-02"))
		}
		return json.Marshal(v.Datetime.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
