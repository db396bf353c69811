package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"contas/internal/core"
)

// categoryDTO is the wire shape of a category. Both backend
// generations agree on it; categories carry no income/expense type.
type categoryDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      int64  `json:"userId,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

type CategoryAdapter struct{}

func NewCategoryAdapter() CategoryAdapter {
	return CategoryAdapter{}
}

// One decodes a single category response.
func (CategoryAdapter) One(raw json.RawMessage) (core.Category, error) {
	var dto categoryDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return core.Category{}, fmt.Errorf("decode category: %w", err)
	}
	return dto.toDomain(), nil
}

// List decodes a category collection. Lists of categories are bare
// arrays under both conventions.
func (CategoryAdapter) List(raw json.RawMessage) ([]core.Category, error) {
	var dtos []categoryDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode category list: %w", err)
	}
	out := make([]core.Category, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.toDomain())
	}
	return out, nil
}

// Encode builds the request body for create and update.
func (CategoryAdapter) Encode(c core.Category) any {
	body := map[string]any{"name": c.Name}
	if c.Description != "" {
		body["description"] = c.Description
	}
	return body
}

func (dto categoryDTO) toDomain() core.Category {
	return core.Category{
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		UserID:      dto.UserID,
		UpdatedAt:   parseWireTime(dto.UpdatedAt),
	}
}

// parseWireTime accepts the formats backends actually emit, returning
// the zero time for anything else.
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
