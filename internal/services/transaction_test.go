package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/adapters"
	"contas/internal/api"
	"contas/internal/core"
	"contas/internal/log"
)

type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, bool) {
	return string(s), s != ""
}

type noopSessions struct{}

func (noopSessions) ClearSession(context.Context) error { return nil }

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL, 5*time.Second, staticTokens("tok"), noopSessions{}, quietLogger())
	require.NoError(t, err)
	return client
}

func TestListSendsFilterAndReadsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "expense", r.URL.Query().Get("type"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": 1, "description": "Coffee", "amount": 4.5, "type": "expense", "date": "2024-03-02", "categoryId": 1},
			},
			"pagination": map[string]int{"currentPage": 2, "pageSize": 10, "totalPages": 5, "totalItems": 47},
		})
	}))

	svc := NewTransactionService(client, adapters.Standard, quietLogger())
	page := core.NewPage(10)
	page.SetPage(2)
	list, err := svc.List(context.Background(), core.TransactionFilter{Type: core.Expense}, page)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.NotNil(t, list.Meta)
	assert.Equal(t, 47, list.Meta.TotalItems)
	assert.Equal(t, int64(450), list.Items[0].Amount.Cents)
}

func TestListLegacyBareArray(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DESPESA", r.URL.Query().Get("type"))
		w.Write([]byte(`[{"id":1,"title":"Luz","amount":230.9,"type":"DESPESA","date":"2024-03-10","categoryId":4}]`))
	}))

	svc := NewTransactionService(client, adapters.Legacy, quietLogger())
	list, err := svc.List(context.Background(), core.TransactionFilter{Type: core.Expense}, core.NewPage(10))
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Nil(t, list.Meta)
	assert.Equal(t, "Luz", list.Items[0].Description)
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	svc := NewTransactionService(client, adapters.Standard, quietLogger())
	_, err := svc.Create(context.Background(), core.Transaction{Description: "x", Amount: core.Money{Cents: -1}})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Zero(t, calls, "invalid transaction must not reach the network")
}

func TestCreateEncodesPerConvention(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":9,"title":"Rent","amount":1200,"type":"DESPESA","date":"2024-03-01","categoryId":3}`))
	}))

	svc := NewTransactionService(client, adapters.Legacy, quietLogger())
	created, err := svc.Create(context.Background(), core.Transaction{
		Description: "Rent",
		Amount:      core.Money{Cents: 120000},
		Type:        core.Expense,
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CategoryID:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rent", got["title"])
	assert.Equal(t, "DESPESA", got["type"])
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, "Rent", created.Description)
}

func TestUpdateRequiresID(t *testing.T) {
	svc := NewTransactionService(newTestClient(t, http.NotFoundHandler()), adapters.Standard, quietLogger())
	_, err := svc.Update(context.Background(), core.Transaction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestDeleteHitsResourcePath(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))

	svc := NewTransactionService(client, adapters.Standard, quietLogger())
	require.NoError(t, svc.Delete(context.Background(), 14))
	assert.Equal(t, "/transactions/14", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestMonthlySummaryPerConvention(t *testing.T) {
	tests := []struct {
		name      string
		conv      adapters.Convention
		wantPath  string
		wantQuery bool
	}{
		{"legacy path segments", adapters.Legacy, "/transactions/summary/2024/3", false},
		{"standard query params", adapters.Standard, "/summaries/monthly", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				if tt.wantQuery {
					assert.Equal(t, "2024", r.URL.Query().Get("year"))
					assert.Equal(t, "3", r.URL.Query().Get("month"))
				}
				w.Write([]byte(`{"income":5000,"expense":3200.5,"balance":1799.5}`))
			}))

			svc := NewTransactionService(client, tt.conv, quietLogger())
			sum, err := svc.MonthlySummary(context.Background(), core.YearMonth{Year: 2024, Month: 3})
			require.NoError(t, err)
			assert.Equal(t, int64(179950), sum.Balance.Cents)
		})
	}
}

func TestMonthlySummaryRejectsBadMonth(t *testing.T) {
	svc := NewTransactionService(newTestClient(t, http.NotFoundHandler()), adapters.Standard, quietLogger())
	_, err := svc.MonthlySummary(context.Background(), core.YearMonth{Year: 2024, Month: 13})
	require.Error(t, err)
}
