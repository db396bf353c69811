package query

import (
	"fmt"
	"strconv"
	"strings"

	"contas/internal/core"
)

// Entities group cache keys for invalidation. Every key starts with
// its entity name, so invalidating an entity flushes its cache and
// bumps its generation in one step.
const (
	entityTransactions = "transactions"
	entityCategories   = "categories"
	entitySummaries    = "summaries"
)

const categoriesKey = entityCategories + ":all"

// transactionsKey builds a cache key from everything that changes the
// result set: the filter fields plus the requested page and size.
func transactionsKey(f core.TransactionFilter, page core.Page) string {
	var b strings.Builder
	b.WriteString(entityTransactions)
	b.WriteByte(':')
	if !f.StartDate.IsZero() {
		b.WriteString(f.StartDate.Format("2006-01-02"))
	}
	b.WriteByte('|')
	if !f.EndDate.IsZero() {
		b.WriteString(f.EndDate.Format("2006-01-02"))
	}
	b.WriteByte('|')
	b.WriteString(string(f.Type))
	b.WriteByte('|')
	if f.CategoryID > 0 {
		b.WriteString(strconv.FormatInt(f.CategoryID, 10))
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(page.Current))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(page.Size))
	return b.String()
}

func summaryKey(ym core.YearMonth) string {
	return fmt.Sprintf("%s:%s", entitySummaries, ym)
}
