// Package paging tracks a page cursor over a list that is fetched one row
// past the page size. The extra row answers "is there a next page" without
// a count query.
package paging

// Pager is a 1-based page cursor.
type Pager struct {
	Page    int
	Size    int
	HasNext bool
}

// New returns a pager on page 1. A size below 1 is treated as 1.
func New(size int) Pager {
	if size < 1 {
		size = 1
	}
	return Pager{Page: 1, Size: size}
}

// Range returns the inclusive row window to request for the current page:
// Size+1 rows starting at (Page-1)*Size.
func (p Pager) Range() (from, to int) {
	from = (p.Page - 1) * p.Size
	return from, from + p.Size
}

// Apply records whether a next page exists and trims rows to one page.
func Apply[T any](p *Pager, rows []T) []T {
	p.HasNext = len(rows) > p.Size
	if p.HasNext {
		return rows[:p.Size]
	}
	return rows
}

// Next advances one page if there is one and reports whether it moved.
func (p *Pager) Next() bool {
	if !p.HasNext {
		return false
	}
	p.Page++
	return true
}

// Prev steps back one page, stopping at 1, and reports whether it moved.
func (p *Pager) Prev() bool {
	if p.Page <= 1 {
		p.Page = 1
		return false
	}
	p.Page--
	return true
}

// Reset returns to page 1.
func (p *Pager) Reset() {
	p.Page = 1
	p.HasNext = false
}

func (p Pager) PrevEnabled() bool { return p.Page > 1 }
func (p Pager) NextEnabled() bool { return p.HasNext }
