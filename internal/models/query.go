package models

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/afterlog/internal/common"
)

// Op is a filter predicate.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

func (o Op) Valid() bool {
	return o == OpEq || o == OpGte || o == OpLte
}

// Filter is a single column predicate. Filters of a query are conjunctive.
type Filter struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  any    `json:"value"`
}

func Eq(col string, v any) Filter  { return Filter{Column: col, Op: OpEq, Value: v} }
func Gte(col string, v any) Filter { return Filter{Column: col, Op: OpGte, Value: v} }
func Lte(col string, v any) Filter { return Filter{Column: col, Op: OpLte, Value: v} }

// Matches reports whether r satisfies f. A null column never satisfies a
// range predicate.
func (f Filter) Matches(r Record) bool {
	v := r[f.Column]
	switch f.Op {
	case OpEq:
		return Compare(v, f.Value) == 0
	case OpGte:
		return v != nil && Compare(v, f.Value) >= 0
	case OpLte:
		return v != nil && Compare(v, f.Value) <= 0
	}
	return false
}

// Order is one sort key.
type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// Range is the zero-based window of rows to return. Count 0 means no limit.
type Range struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

// Query is a filtered, ordered, range-limited read of one collection.
type Query struct {
	Collection string   `json:"collection"`
	Columns    []string `json:"columns,omitempty"`
	Filters    []Filter `json:"filters,omitempty"`
	Order      []Order  `json:"order,omitempty"`
	Range      Range    `json:"range"`
}

// From starts a query over collection.
func From(collection string) Query {
	return Query{Collection: collection}
}

func (q Query) Select(cols ...string) Query {
	q.Columns = append(slices.Clone(q.Columns), cols...)
	return q
}

func (q Query) Where(f ...Filter) Query {
	q.Filters = append(slices.Clone(q.Filters), f...)
	return q
}

func (q Query) OrderBy(col string, desc bool) Query {
	q.Order = append(slices.Clone(q.Order), Order{Column: col, Desc: desc})
	return q
}

// Window sets the inclusive row range [from, to].
func (q Query) Window(from, to int) Query {
	q.Range = Range{Start: from, Count: to - from + 1}
	return q
}

// Validate checks the shape of q; column names are checked by the store.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: empty collection", common.ErrUnknownCollection)
	}
	for _, f := range q.Filters {
		if f.Column == "" {
			return fmt.Errorf("%w: filter without column", common.ErrUnknownColumn)
		}
		if !f.Op.Valid() {
			return fmt.Errorf("%w: filter op %q", common.ErrInvalidValue, f.Op)
		}
	}
	for _, o := range q.Order {
		if o.Column == "" {
			return fmt.Errorf("%w: order without column", common.ErrUnknownColumn)
		}
	}
	if q.Range.Start < 0 || q.Range.Count < 0 {
		return fmt.Errorf("%w: range %d+%d", common.ErrInvalidValue, q.Range.Start, q.Range.Count)
	}
	return nil
}

// Matches reports whether r satisfies every filter of q.
func (q Query) Matches(r Record) bool {
	for _, f := range q.Filters {
		if !f.Matches(r) {
			return false
		}
	}
	return true
}

// Less orders two records by the query's sort keys.
func (q Query) Less(a, b Record) int {
	for _, o := range q.Order {
		c := Compare(a[o.Column], b[o.Column])
		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Apply filters, sorts, windows and projects rows the way the store does.
// The input slice is not modified.
func (q Query) Apply(rows []Record) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, q.Less)

	start := min(q.Range.Start, len(out))
	end := len(out)
	if q.Range.Count > 0 {
		end = min(start+q.Range.Count, len(out))
	}
	out = out[start:end]

	res := make([]Record, len(out))
	for i, r := range out {
		res[i] = r.Pick(q.Columns)
	}
	return res
}
