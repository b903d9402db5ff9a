// Package streak counts consecutive journaling days ending today.
package streak

import "github.com/dmitrijs2005/afterlog/internal/dates"

// Policy decides what an unwritten today means.
type Policy int

const (
	// StrictToday: no entry today means no streak.
	StrictToday Policy = iota
	// GraceToday: no entry today keeps the streak that ended yesterday.
	GraceToday
)

func (p Policy) String() string {
	if p == GraceToday {
		return "grace"
	}
	return "strict"
}

// Compute walks backward from today while each day has an entry. days may
// contain duplicates and any order.
func Compute(days []dates.Day, today dates.Day, policy Policy) int {
	present := make(map[dates.Day]bool, len(days))
	for _, d := range days {
		present[d] = true
	}

	cur := today
	if !present[cur] {
		if policy != GraceToday {
			return 0
		}
		cur = cur.AddDays(-1)
	}

	n := 0
	for present[cur] {
		n++
		cur = cur.AddDays(-1)
	}
	return n
}

// Window is the inclusive range of days to fetch: today and the size days
// before it.
func Window(today dates.Day, size int) (from, to dates.Day) {
	if size < 0 {
		size = 0
	}
	return today.AddDays(-size), today
}
