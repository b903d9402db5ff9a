// Package models holds the record and query shapes exchanged between the
// client gateway and the hosted service.
//
// Records are loosely typed column maps. Values are restricted to what
// survives a trip through google.protobuf.Struct: nil, string, float64,
// bool, []any and map[string]any. Timestamps travel as fixed-width UTC
// strings (TimeLayout) and days as YYYY-MM-DD, so both sort correctly as
// strings.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/dates"
)

// TimeLayout is the wire form of timestamps: UTC with microsecond precision.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout and any other RFC 3339 form.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", common.ErrInvalidValue, s)
	}
	return t.UTC(), nil
}

// Record is one row of a collection, keyed by column name.
type Record map[string]any

// String returns the string value of col, or "" if it is absent or not a string.
func (r Record) String(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Record) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

// Strings returns a list column as strings, skipping non-string items.
func (r Record) Strings(col string) []string {
	switch v := r[col].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Time parses a timestamp column. Absent or null yields the zero time.
func (r Record) Time(col string) (time.Time, error) {
	s := r.String(col)
	if s == "" {
		return time.Time{}, nil
	}
	return ParseTime(s)
}

// Day parses a day column. Absent or null yields the zero Day.
func (r Record) Day(col string) (dates.Day, error) {
	s := r.String(col)
	if s == "" {
		return dates.Day{}, nil
	}
	return dates.ParseDay(s)
}

// Clone returns a copy of r that shares no slices with it.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if l, ok := v.([]any); ok {
			v = append([]any(nil), l...)
		}
		out[k] = v
	}
	return out
}

// Pick returns a copy of r restricted to cols. An empty cols keeps every column.
func (r Record) Pick(cols []string) Record {
	if len(cols) == 0 {
		return r.Clone()
	}
	out := make(Record, len(cols))
	for _, c := range cols {
		if v, ok := r[c]; ok {
			if l, ok := v.([]any); ok {
				v = append([]any(nil), l...)
			}
			out[c] = v
		}
	}
	return out
}

// Normalize converts every value of r to its wire type.
func Normalize(r Record) (Record, error) {
	out := make(Record, len(r))
	for k, v := range r {
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// NormalizeValue converts Go values used by the domain types into wire values.
func NormalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case time.Time:
		return FormatTime(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return FormatTime(*x), nil
	case dates.Day:
		if x.IsZero() {
			return nil, nil
		}
		return x.String(), nil
	case *dates.Day:
		if x == nil || x.IsZero() {
			return nil, nil
		}
		return x.String(), nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, it := range x {
			nv, err := NormalizeValue(it)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %T", common.ErrInvalidValue, v)
}

// Compare orders two wire values. nil sorts before everything else;
// values of different kinds compare by kind name.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return cmpOrdered(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

func cmpOrdered[T string | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
