// Package ui renders terminal output and validates user input before
// it reaches the services: field-level form validation, tabular lists,
// the monthly summary view and transient notifications.
package ui

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"contas/internal/core"
)

// amountPattern accepts plain decimals with at most two fraction
// digits. Anything else, including signs and exponents, is rejected
// before parsing.
var amountPattern = regexp.MustCompile(`^[0-9]+([.,][0-9]{1,2})?$`)

// FieldErrors maps field names to their first validation problem.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "invalid input"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

func (e FieldErrors) put(field, msg string) {
	if _, dup := e[field]; !dup {
		e[field] = msg
	}
}

func required(e FieldErrors, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.put(field, "is required")
		return false
	}
	return true
}

func minLength(e FieldErrors, field, value string, n int) {
	if len(strings.TrimSpace(value)) < n {
		e.put(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

// TransactionForm carries raw user input for creating or editing a
// transaction. Validate reports every field problem at once rather
// than stopping at the first.
type TransactionForm struct {
	Description string
	Amount      string
	Type        string
	Date        string
	Notes       string
	CategoryID  int64
}

func (f TransactionForm) Validate() (core.Transaction, error) {
	errs := FieldErrors{}

	if required(errs, "description", f.Description) {
		minLength(errs, "description", f.Description, 3)
	}

	var cents int64
	if required(errs, "amount", f.Amount) {
		if !amountPattern.MatchString(strings.TrimSpace(f.Amount)) {
			errs.put("amount", "must be a positive number with up to two decimal places")
		} else {
			var err error
			cents, err = core.ParseAmountToCents(f.Amount)
			if err != nil {
				errs.put("amount", "must be greater than zero")
			}
		}
	}

	txType := core.TransactionType(strings.ToLower(strings.TrimSpace(f.Type)))
	if required(errs, "type", f.Type) && !txType.IsValid() {
		errs.put("type", `must be "income" or "expense"`)
	}

	var date time.Time
	if required(errs, "date", f.Date) {
		var err error
		date, err = time.Parse("2006-01-02", strings.TrimSpace(f.Date))
		if err != nil {
			errs.put("date", "must be a date in YYYY-MM-DD form")
		}
	}

	if f.CategoryID <= 0 {
		errs.put("category", "is required")
	}

	if len(errs) > 0 {
		return core.Transaction{}, errs
	}
	return core.Transaction{
		Description: strings.TrimSpace(f.Description),
		Amount:      core.Money{Cents: cents},
		Type:        txType,
		Date:        date,
		Notes:       strings.TrimSpace(f.Notes),
		CategoryID:  f.CategoryID,
	}, nil
}

type CategoryForm struct {
	Name        string
	Description string
}

func (f CategoryForm) Validate() (core.Category, error) {
	errs := FieldErrors{}
	if required(errs, "name", f.Name) {
		minLength(errs, "name", f.Name, 3)
	}
	if len(f.Description) > 200 {
		errs.put("description", "must be at most 200 characters")
	}
	if len(errs) > 0 {
		return core.Category{}, errs
	}
	return core.Category{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
	}, nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) Validate() error {
	errs := FieldErrors{}
	if required(errs, "email", f.Email) && !emailPattern.MatchString(strings.TrimSpace(f.Email)) {
		errs.put("email", "must be a valid email address")
	}
	required(errs, "password", f.Password)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

func (f RegisterForm) Validate() error {
	errs := FieldErrors{}
	if required(errs, "name", f.Name) {
		minLength(errs, "name", f.Name, 3)
	}
	if required(errs, "email", f.Email) && !emailPattern.MatchString(strings.TrimSpace(f.Email)) {
		errs.put("email", "must be a valid email address")
	}
	if required(errs, "password", f.Password) {
		minLength(errs, "password", f.Password, 6)
	}
	if f.Password != f.ConfirmPassword {
		errs.put("confirmPassword", "passwords do not match")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
