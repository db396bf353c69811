package core

const DefaultPageSize = 10

// Page is the client-side pagination state for a list view. It is
// ephemeral: totals are recomputed from every list response and the
// current page resets to 1 whenever filters or the page size change.
type Page struct {
	Current    int
	Size       int
	TotalPages int
	TotalItems int
}

func NewPage(size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	return Page{Current: 1, Size: size, TotalPages: 1}
}

// SetPage moves to page n, clamped to at least 1. Moving past the last
// known page is allowed; the server response corrects the totals.
func (p *Page) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	p.Current = n
}

// SetSize changes the page size and resets the view to the first page.
func (p *Page) SetSize(n int) {
	if n < 1 {
		n = DefaultPageSize
	}
	p.Size = n
	p.Current = 1
}

// Reset returns to the first page, keeping the size. Called whenever
// filters change.
func (p *Page) Reset() {
	p.Current = 1
}

// ApplyTotals records server-reported pagination metadata.
func (p *Page) ApplyTotals(totalItems, totalPages int) {
	if totalItems < 0 {
		totalItems = 0
	}
	p.TotalItems = totalItems
	if totalPages < 1 {
		totalPages = (totalItems + p.Size - 1) / p.Size
		if totalPages < 1 {
			totalPages = 1
		}
	}
	p.TotalPages = totalPages
}

func (p Page) HasPrev() bool { return p.Current > 1 }

func (p Page) HasNext() bool { return p.Current < p.TotalPages }

// Bounds returns the 1-based positions of the first and last item shown
// on the current page ("showing 41-47 of 47").
func (p Page) Bounds() (start, end int) {
	if p.TotalItems == 0 {
		return 0, 0
	}
	start = (p.Current-1)*p.Size + 1
	end = start + p.Size - 1
	if end > p.TotalItems {
		end = p.TotalItems
	}
	if start > p.TotalItems {
		return 0, 0
	}
	return start, end
}
