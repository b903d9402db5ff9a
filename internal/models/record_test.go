package models

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime_SortsAsString(t *testing.T) {
	a := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := a.Add(100 * time.Millisecond)
	c := a.Add(time.Second)

	sa, sb, sc := FormatTime(a), FormatTime(b), FormatTime(c)
	assert.Equal(t, "2026-01-02T03:04:05.000000Z", sa)
	assert.Less(t, sa, sb)
	assert.Less(t, sb, sc)

	got, err := ParseTime(sb)
	require.NoError(t, err)
	assert.True(t, got.Equal(b))
}

func TestParseTime_Invalid(t *testing.T) {
	_, err := ParseTime("yesterday")
	assert.True(t, errors.Is(err, common.ErrInvalidValue))
}

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"s":    "x",
		"b":    true,
		"tags": []any{"a", 1.0, "b"},
		"day":  "2026-10-16",
		"ts":   "2026-10-16T08:00:00.000000Z",
		"null": nil,
	}

	assert.Equal(t, "x", r.String("s"))
	assert.Equal(t, "", r.String("b"))
	assert.True(t, r.Bool("b"))
	assert.Equal(t, []string{"a", "b"}, r.Strings("tags"))

	d, err := r.Day("day")
	require.NoError(t, err)
	assert.Equal(t, dates.MustParseDay("2026-10-16"), d)

	d, err = r.Day("null")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	ts, err := r.Time("ts")
	require.NoError(t, err)
	assert.Equal(t, 8, ts.Hour())
}

func TestPick_CopiesSlices(t *testing.T) {
	r := Record{"id": "1", "tags": []any{"a"}, "content": "x"}
	p := r.Pick([]string{"id", "tags", "missing"})

	assert.Equal(t, Record{"id": "1", "tags": []any{"a"}}, p)
	p["tags"].([]any)[0] = "changed"
	assert.Equal(t, "a", r["tags"].([]any)[0])

	assert.Equal(t, r, r.Pick(nil))
}

func TestNormalize(t *testing.T) {
	ts := time.Date(2026, 10, 16, 8, 0, 0, 0, time.FixedZone("X", 3600))
	day := dates.MustParseDay("2026-10-20")
	var nilDay *dates.Day

	got, err := Normalize(Record{
		"content":  "hi",
		"n":        3,
		"at":       ts,
		"due":      &day,
		"none":     nilDay,
		"zero_day": dates.Day{},
		"tags":     []string{"a", "b"},
	})
	require.NoError(t, err)

	want := Record{
		"content":  "hi",
		"n":        3.0,
		"at":       "2026-10-16T07:00:00.000000Z",
		"due":      "2026-10-20",
		"none":     nil,
		"zero_day": nil,
		"tags":     []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize mismatch (-want +got):\n%s", diff)
	}

	_, err = Normalize(Record{"bad": struct{}{}})
	assert.True(t, errors.Is(err, common.ErrInvalidValue))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare(nil, nil))
	assert.Equal(t, -1, Compare(nil, "a"))
	assert.Equal(t, 1, Compare("a", nil))
	assert.Equal(t, -1, Compare("2026-01-01", "2026-01-02"))
	assert.Equal(t, 1, Compare(2.0, 1.0))
	assert.Equal(t, -1, Compare(false, true))
	assert.Equal(t, 0, Compare(true, true))
}
