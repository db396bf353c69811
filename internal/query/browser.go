package query

import (
	"context"

	"contas/internal/core"
	"contas/internal/services"
)

// TransactionBrowser is the stateful list view over the transactions
// query: it owns the current filter and page, resets to the first page
// whenever the filter or the page size changes, and folds the
// server-reported totals back into the pagination state after every
// load.
type TransactionBrowser struct {
	queries *Queries
	filter  core.TransactionFilter
	page    core.Page
}

func NewTransactionBrowser(queries *Queries, pageSize int) *TransactionBrowser {
	return &TransactionBrowser{
		queries: queries,
		page:    core.NewPage(pageSize),
	}
}

// SetFilter replaces the filter and returns to the first page. A page
// number that made sense under the old filter means nothing under the
// new one.
func (b *TransactionBrowser) SetFilter(f core.TransactionFilter) {
	if f.Equal(b.filter) {
		return
	}
	b.filter = f
	b.page.Reset()
}

func (b *TransactionBrowser) Filter() core.TransactionFilter {
	return b.filter
}

// SetPageSize changes the page size and resets to the first page.
func (b *TransactionBrowser) SetPageSize(n int) {
	b.page.SetSize(n)
}

func (b *TransactionBrowser) SetPage(n int) {
	b.page.SetPage(n)
}

func (b *TransactionBrowser) NextPage() bool {
	if !b.page.HasNext() {
		return false
	}
	b.page.SetPage(b.page.Current + 1)
	return true
}

func (b *TransactionBrowser) PrevPage() bool {
	if !b.page.HasPrev() {
		return false
	}
	b.page.SetPage(b.page.Current - 1)
	return true
}

func (b *TransactionBrowser) Page() core.Page {
	return b.page
}

// Load fetches the current page and applies the server's pagination
// metadata. Backends without an envelope get totals derived from the
// returned slice.
func (b *TransactionBrowser) Load(ctx context.Context) ([]core.Transaction, error) {
	list, err := b.queries.Transactions(ctx, b.filter, b.page)
	if err != nil {
		return nil, err
	}
	b.applyMeta(list)
	return list.Items, nil
}

func (b *TransactionBrowser) applyMeta(list services.TransactionList) {
	if list.Meta != nil {
		if list.Meta.CurrentPage > 0 {
			b.page.Current = list.Meta.CurrentPage
		}
		b.page.ApplyTotals(list.Meta.TotalItems, list.Meta.TotalPages)
		return
	}
	// Bare-array backend: all we know is what we got.
	b.page.ApplyTotals(len(list.Items), 1)
}
