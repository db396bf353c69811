package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"contas/internal/core"
)

// transactionDTO covers both wire shapes: exactly one of Title and
// Description is populated, depending on the convention.
type transactionDTO struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      amountField  `json:"amount"`
	Type        string       `json:"type"`
	Date        string       `json:"date"`
	Notes       string       `json:"notes,omitempty"`
	CategoryID  int64        `json:"categoryId"`
	Category    *categoryDTO `json:"category,omitempty"`
	UserID      int64        `json:"userId,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
}

// amountField tolerates amounts sent as JSON numbers or as quoted
// decimal strings, holding the value in cents.
type amountField int64

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, core.ErrInvalidAmount)
		}
		*a = amountField(core.CentsFromFloat(f))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = amountField(core.CentsFromFloat(f))
	return nil
}

func (a amountField) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(a)/100, 'f', -1, 64)), nil
}

// PageMeta is server-reported pagination metadata from an enveloped
// list response.
type PageMeta struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

type txListEnvelope struct {
	Data       []transactionDTO `json:"data"`
	Pagination *PageMeta        `json:"pagination"`
}

type TransactionAdapter struct {
	conv Convention
}

func NewTransactionAdapter(conv Convention) TransactionAdapter {
	return TransactionAdapter{conv: conv}
}

func (a TransactionAdapter) Convention() Convention {
	return a.conv
}

// One decodes a single transaction response.
func (a TransactionAdapter) One(raw json.RawMessage) (core.Transaction, error) {
	var dto transactionDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return a.toDomain(dto)
}

// List decodes a collection response. The standard convention wraps
// lists in a {data, pagination} envelope; the legacy one returns a
// bare array. The body is sniffed rather than trusted blindly, since
// some legacy deployments already emit the envelope.
func (a TransactionAdapter) List(raw json.RawMessage) ([]core.Transaction, *PageMeta, error) {
	trimmed := bytes.TrimSpace(raw)
	var (
		dtos []transactionDTO
		meta *PageMeta
	)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env txListEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, nil, fmt.Errorf("decode transaction envelope: %w", err)
		}
		dtos, meta = env.Data, env.Pagination
	} else {
		if err := json.Unmarshal(trimmed, &dtos); err != nil {
			return nil, nil, fmt.Errorf("decode transaction list: %w", err)
		}
	}

	out := make([]core.Transaction, 0, len(dtos))
	for _, dto := range dtos {
		tx, err := a.toDomain(dto)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, tx)
	}
	return out, meta, nil
}

// Encode builds the request body for create and update, using the
// convention's description field and type enum.
func (a TransactionAdapter) Encode(tx core.Transaction) any {
	body := map[string]any{
		a.conv.DescriptionField: tx.Description,
		"amount":                amountField(tx.Amount.Cents),
		"type":                  a.conv.TypeToWire[tx.Type],
		"date":                  tx.Date.Format("2006-01-02"),
		"categoryId":            tx.CategoryID,
	}
	if tx.Notes != "" {
		body["notes"] = tx.Notes
	}
	return body
}

func (a TransactionAdapter) toDomain(dto transactionDTO) (core.Transaction, error) {
	desc := dto.Description
	if a.conv.DescriptionField == "title" {
		desc = dto.Title
	}
	if desc == "" {
		// Mixed deployments: fall back to whichever field arrived.
		if dto.Title != "" {
			desc = dto.Title
		} else {
			desc = dto.Description
		}
	}

	txType, ok := a.conv.TypeFromWire[dto.Type]
	if !ok {
		return core.Transaction{}, fmt.Errorf("unknown transaction type %q for convention %s", dto.Type, a.conv.Name)
	}

	tx := core.Transaction{
		ID:          dto.ID,
		Description: desc,
		Amount:      core.Money{Cents: int64(dto.Amount)},
		Type:        txType,
		Date:        parseWireTime(dto.Date),
		Notes:       dto.Notes,
		CategoryID:  dto.CategoryID,
		UserID:      dto.UserID,
		CreatedAt:   parseWireTime(dto.CreatedAt),
		UpdatedAt:   parseWireTime(dto.UpdatedAt),
	}
	if dto.Category != nil {
		cat := dto.Category.toDomain()
		tx.Category = &cat
		if tx.CategoryID == 0 {
			tx.CategoryID = cat.ID
		}
	}
	return tx, nil
}

// summaryDTO is the wire shape of a monthly summary under both
// conventions.
type summaryDTO struct {
	Income  amountField `json:"income"`
	Expense amountField `json:"expense"`
	Balance amountField `json:"balance"`
}

// Summary decodes a monthly summary response for the given period.
func (a TransactionAdapter) Summary(raw json.RawMessage, ym core.YearMonth) (core.MonthlySummary, error) {
	var dto summaryDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("decode monthly summary: %w", err)
	}
	return core.MonthlySummary{
		Year:    ym.Year,
		Month:   ym.Month,
		Income:  core.Money{Cents: int64(dto.Income)},
		Expense: core.Money{Cents: int64(dto.Expense)},
		Balance: core.Money{Cents: int64(dto.Balance)},
	}, nil
}
