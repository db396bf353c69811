package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType is the canonical direction of a transaction. Wire
	// representations vary between backends; adapters translate to and
	// from this form.
	TransactionType string

	Money struct {
		Cents int64
	}

	User struct {
		ID    int64
		Name  string
		Email string
	}

	Category struct {
		ID          int64
		Name        string
		Description string
		UserID      int64
		UpdatedAt   time.Time
	}

	Transaction struct {
		ID          int64
		Description string
		Amount      Money
		Type        TransactionType
		Date        time.Time
		Notes       string
		CategoryID  int64
		Category    *Category // embedded by list endpoints, may be nil
		UserID      int64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionFilter narrows list queries. Zero values mean "not set".
	TransactionFilter struct {
		StartDate  time.Time
		EndDate    time.Time
		Type       TransactionType
		CategoryID int64
	}

	// MonthlySummary is derived server-side per (year, month) query and
	// never persisted locally.
	MonthlySummary struct {
		Year    int
		Month   int
		Income  Money
		Expense Money
		Balance Money
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrMissingCategory  = errors.New("missing category")
	ErrEmptyName        = errors.New("empty name")
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if len(c.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (tx Transaction) Validate() error {
	if len(strings.TrimSpace(tx.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	if tx.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

// IsZero reports whether the filter carries no constraints at all.
func (f TransactionFilter) IsZero() bool {
	return f.StartDate.IsZero() && f.EndDate.IsZero() && f.Type == "" && f.CategoryID == 0
}

// Equal compares filters by instant, so the same moment in a
// different location or with a monotonic reading still matches.
func (f TransactionFilter) Equal(o TransactionFilter) bool {
	return f.StartDate.Equal(o.StartDate) &&
		f.EndDate.Equal(o.EndDate) &&
		f.Type == o.Type &&
		f.CategoryID == o.CategoryID
}
