// Package services exposes the backend's resources as typed
// operations. Each service is thin glue: build the request, hand the
// raw response to an adapter, validate before writes. Caching and
// deduplication live one layer up, in internal/query.
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

type CategoryService struct {
	client  *api.Client
	adapter adapters.CategoryAdapter
	logger  *log.Logger
}

func NewCategoryService(client *api.Client, logger *log.Logger) *CategoryService {
	return &CategoryService{
		client:  client,
		adapter: adapters.NewCategoryAdapter(),
		logger:  logger.WithComponent(log.ComponentAPI),
	}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/categories", nil, &raw); err != nil {
		return nil, err
	}
	return s.adapter.List(raw)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, fmt.Sprintf("/categories/%d", id), nil, &raw); err != nil {
		return core.Category{}, err
	}
	return s.adapter.One(raw)
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/categories", s.adapter.Encode(c), &raw); err != nil {
		return core.Category{}, err
	}
	created, err := s.adapter.One(raw)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "category created", log.FieldCategoryID, created.ID)
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID <= 0 {
		return core.Category{}, fmt.Errorf("update category: missing id")
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	var raw json.RawMessage
	if err := s.client.Put(ctx, fmt.Sprintf("/categories/%d", c.ID), s.adapter.Encode(c), &raw); err != nil {
		return core.Category{}, err
	}
	return s.adapter.One(raw)
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("delete category: missing id")
	}
	if err := s.client.Delete(ctx, fmt.Sprintf("/categories/%d", id)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted", log.FieldCategoryID, id)
	return nil
}
