// Package adapters translates between the backend's wire formats and
// the canonical domain model. Two backend generations are in use: the
// legacy one speaks title/RECEITA-DESPESA and returns bare arrays, the
// standard one speaks description/income-expense and wraps lists in a
// pagination envelope. Each difference lives in one Convention table
// rather than duplicated code paths.
package adapters

import (
	"fmt"
	"net/url"
	"strconv"

	"contas/internal/core"
)

// Convention is the tagged mapping table for one backend generation.
type Convention struct {
	Name string

	// Field carrying the transaction description on the wire.
	DescriptionField string

	// Transaction type enum mapping, both directions.
	TypeToWire   map[core.TransactionType]string
	TypeFromWire map[string]core.TransactionType

	// Lists arrive enveloped with pagination metadata, or bare.
	ListEnvelope bool

	// Monthly summary is addressed by path segments or query params.
	SummaryByPath bool
}

var Legacy = Convention{
	Name:             "legacy",
	DescriptionField: "title",
	TypeToWire: map[core.TransactionType]string{
		core.Income:  "RECEITA",
		core.Expense: "DESPESA",
	},
	TypeFromWire: map[string]core.TransactionType{
		"RECEITA": core.Income,
		"DESPESA": core.Expense,
	},
	ListEnvelope:  false,
	SummaryByPath: true,
}

var Standard = Convention{
	Name:             "standard",
	DescriptionField: "description",
	TypeToWire: map[core.TransactionType]string{
		core.Income:  "income",
		core.Expense: "expense",
	},
	TypeFromWire: map[string]core.TransactionType{
		"income":  core.Income,
		"expense": core.Expense,
	},
	ListEnvelope:  true,
	SummaryByPath: false,
}

// ByName selects a convention from configuration.
func ByName(name string) (Convention, error) {
	switch name {
	case Legacy.Name:
		return Legacy, nil
	case Standard.Name:
		return Standard, nil
	default:
		return Convention{}, fmt.Errorf("unknown wire convention %q", name)
	}
}

// SummaryRequest returns the path and query for a monthly summary
// under this convention.
func (c Convention) SummaryRequest(ym core.YearMonth) (path string, query url.Values) {
	if c.SummaryByPath {
		return fmt.Sprintf("/transactions/summary/%d/%d", ym.Year, ym.Month), nil
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(ym.Year))
	q.Set("month", strconv.Itoa(ym.Month))
	return "/summaries/monthly", q
}

// FilterQuery serializes list filters and pagination as query
// parameters. The type filter goes out in the convention's enum.
func (c Convention) FilterQuery(f core.TransactionFilter, page core.Page) url.Values {
	q := url.Values{}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.Format("2006-01-02"))
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.Format("2006-01-02"))
	}
	if f.Type != "" {
		if wire, ok := c.TypeToWire[f.Type]; ok {
			q.Set("type", wire)
		}
	}
	if f.CategoryID > 0 {
		q.Set("categoryId", strconv.FormatInt(f.CategoryID, 10))
	}
	if page.Current > 0 {
		q.Set("page", strconv.Itoa(page.Current))
	}
	if page.Size > 0 {
		q.Set("pageSize", strconv.Itoa(page.Size))
	}
	return q
}
