package services

import (
	"context"
	"encoding/json"
	"fmt"

	"contas/internal/adapters"
	"contas/internal/api"
	"contas/internal/core"
	"contas/internal/log"
)

// TransactionList is one page of transactions together with the
// server-reported pagination metadata, when the backend sends any.
type TransactionList struct {
	Items []core.Transaction
	Meta  *adapters.PageMeta
}

type TransactionService struct {
	client  *api.Client
	adapter adapters.TransactionAdapter
	logger  *log.Logger
}

func NewTransactionService(client *api.Client, conv adapters.Convention, logger *log.Logger) *TransactionService {
	return &TransactionService{
		client:  client,
		adapter: adapters.NewTransactionAdapter(conv),
		logger:  logger.WithComponent(log.ComponentAPI),
	}
}

// List fetches one page of transactions matching the filter.
func (s *TransactionService) List(ctx context.Context, filter core.TransactionFilter, page core.Page) (TransactionList, error) {
	query := s.adapter.Convention().FilterQuery(filter, page)
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/transactions", query, &raw); err != nil {
		return TransactionList{}, err
	}
	items, meta, err := s.adapter.List(raw)
	if err != nil {
		return TransactionList{}, err
	}
	return TransactionList{Items: items, Meta: meta}, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, fmt.Sprintf("/transactions/%d", id), nil, &raw); err != nil {
		return core.Transaction{}, err
	}
	return s.adapter.One(raw)
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/transactions", s.adapter.Encode(tx), &raw); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.adapter.One(raw)
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "transaction created", log.FieldTxID, created.ID)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID <= 0 {
		return core.Transaction{}, fmt.Errorf("update transaction: missing id")
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var raw json.RawMessage
	if err := s.client.Put(ctx, fmt.Sprintf("/transactions/%d", tx.ID), s.adapter.Encode(tx), &raw); err != nil {
		return core.Transaction{}, err
	}
	return s.adapter.One(raw)
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("delete transaction: missing id")
	}
	if err := s.client.Delete(ctx, fmt.Sprintf("/transactions/%d", id)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "transaction deleted", log.FieldTxID, id)
	return nil
}

// MonthlySummary fetches the income/expense/balance totals for one
// month. The endpoint shape depends on the wire convention.
func (s *TransactionService) MonthlySummary(ctx context.Context, ym core.YearMonth) (core.MonthlySummary, error) {
	if err := ym.Validate(); err != nil {
		return core.MonthlySummary{}, err
	}
	path, query := s.adapter.Convention().SummaryRequest(ym)
	var raw json.RawMessage
	if err := s.client.Get(ctx, path, query, &raw); err != nil {
		return core.MonthlySummary{}, err
	}
	return s.adapter.Summary(raw, ym)
}
