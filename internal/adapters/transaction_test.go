package adapters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/core"
)

func rentTransaction() core.Transaction {
	return core.Transaction{
		Description: "Rent",
		Amount:      core.Money{Cents: 120000},
		Type:        core.Expense,
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CategoryID:  3,
	}
}

// A transaction encoded under either convention must decode back to
// the same logical fields, whichever enum and field names the backend
// speaks.
func TestTransactionRoundTripAcrossConventions(t *testing.T) {
	for _, conv := range []Convention{Legacy, Standard} {
		t.Run(conv.Name, func(t *testing.T) {
			a := NewTransactionAdapter(conv)
			tx := rentTransaction()

			body, err := json.Marshal(a.Encode(tx))
			require.NoError(t, err)

			// The server echoes what it stored.
			got, err := a.One(body)
			require.NoError(t, err)

			assert.Equal(t, "Rent", got.Description)
			assert.Equal(t, int64(120000), got.Amount.Cents)
			assert.Equal(t, core.Expense, got.Type)
			assert.Equal(t, tx.Date, got.Date)
			assert.Equal(t, int64(3), got.CategoryID)
		})
	}
}

func TestEncodeUsesConventionFields(t *testing.T) {
	tx := rentTransaction()

	legacy, err := json.Marshal(NewTransactionAdapter(Legacy).Encode(tx))
	require.NoError(t, err)
	assert.Contains(t, string(legacy), `"title":"Rent"`)
	assert.Contains(t, string(legacy), `"type":"DESPESA"`)
	assert.Contains(t, string(legacy), `"amount":1200`)
	assert.NotContains(t, string(legacy), `"description"`)

	standard, err := json.Marshal(NewTransactionAdapter(Standard).Encode(tx))
	require.NoError(t, err)
	assert.Contains(t, string(standard), `"description":"Rent"`)
	assert.Contains(t, string(standard), `"type":"expense"`)
}

func TestDecodeLegacyTransaction(t *testing.T) {
	raw := `{
		"id": 12,
		"title": "Salary",
		"amount": "3500.00",
		"type": "RECEITA",
		"date": "2024-03-05",
		"userId": 7,
		"categoryId": 2,
		"createdAt": "2024-03-05T10:30:00Z"
	}`

	got, err := NewTransactionAdapter(Legacy).One([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.ID)
	assert.Equal(t, "Salary", got.Description)
	assert.Equal(t, int64(350000), got.Amount.Cents)
	assert.Equal(t, core.Income, got.Type)
	assert.Equal(t, 2024, got.Date.Year())
	assert.Equal(t, int64(7), got.UserID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDecodeUnknownTypeFails(t *testing.T) {
	raw := `{"id":1,"description":"x","amount":1,"type":"TRANSFER","date":"2024-01-01","categoryId":1}`
	_, err := NewTransactionAdapter(Standard).One([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transaction type")
}

func TestListEnvelopeDecoding(t *testing.T) {
	raw := `{
		"data": [
			{"id":1,"description":"Coffee","amount":4.5,"type":"expense","date":"2024-03-02","categoryId":1,
			 "category":{"id":1,"name":"Food"}},
			{"id":2,"description":"Salary","amount":3500,"type":"income","date":"2024-03-05","categoryId":2}
		],
		"pagination": {"currentPage":2,"pageSize":10,"totalPages":5,"totalItems":47}
	}`

	txs, meta, err := NewTransactionAdapter(Standard).List([]byte(raw))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 47, meta.TotalItems)
	assert.Equal(t, int64(450), txs[0].Amount.Cents)
	require.NotNil(t, txs[0].Category)
	assert.Equal(t, "Food", txs[0].Category.Name)
}

func TestListBareArrayDecoding(t *testing.T) {
	raw := `[
		{"id":1,"title":"Luz","amount":230.9,"type":"DESPESA","date":"2024-03-10","categoryId":4}
	]`

	txs, meta, err := NewTransactionAdapter(Legacy).List([]byte(raw))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, meta)
	assert.Equal(t, "Luz", txs[0].Description)
	assert.Equal(t, int64(23090), txs[0].Amount.Cents)
}

// Legacy deployments behind newer gateways already envelope their
// lists; the adapter sniffs the body instead of trusting the table.
func TestLegacyEnvelopeSniffing(t *testing.T) {
	raw := `{"data":[{"id":1,"title":"Luz","amount":10,"type":"DESPESA","date":"2024-03-10","categoryId":4}],
		"pagination":{"currentPage":1,"pageSize":10,"totalPages":1,"totalItems":1}}`

	txs, meta, err := NewTransactionAdapter(Legacy).List([]byte(raw))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, meta)
	assert.Equal(t, 1, meta.TotalItems)
}

func TestSummaryDecoding(t *testing.T) {
	raw := `{"income":"5000.00","expense":3200.5,"balance":1799.5}`
	sum, err := NewTransactionAdapter(Standard).Summary([]byte(raw), core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 2024, sum.Year)
	assert.Equal(t, 3, sum.Month)
	assert.Equal(t, int64(500000), sum.Income.Cents)
	assert.Equal(t, int64(320050), sum.Expense.Cents)
	assert.Equal(t, int64(179950), sum.Balance.Cents)
}

func TestSummaryNegativeBalance(t *testing.T) {
	raw := `{"income":100,"expense":350.25,"balance":-250.25}`
	sum, err := NewTransactionAdapter(Standard).Summary([]byte(raw), core.YearMonth{Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(-25025), sum.Balance.Cents)
}

func TestSummaryRequestPaths(t *testing.T) {
	ym := core.YearMonth{Year: 2024, Month: 3}

	path, query := Legacy.SummaryRequest(ym)
	assert.Equal(t, "/transactions/summary/2024/3", path)
	assert.Nil(t, query)

	path, query = Standard.SummaryRequest(ym)
	assert.Equal(t, "/summaries/monthly", path)
	assert.Equal(t, "2024", query.Get("year"))
	assert.Equal(t, "3", query.Get("month"))
}

func TestFilterQuerySerialization(t *testing.T) {
	f := core.TransactionFilter{
		StartDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Type:       core.Income,
		CategoryID: 9,
	}
	page := core.NewPage(20)
	page.SetPage(2)

	q := Legacy.FilterQuery(f, page)
	assert.Equal(t, "2024-03-01", q.Get("startDate"))
	assert.Equal(t, "2024-03-31", q.Get("endDate"))
	assert.Equal(t, "RECEITA", q.Get("type"))
	assert.Equal(t, "9", q.Get("categoryId"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "20", q.Get("pageSize"))

	q = Standard.FilterQuery(core.TransactionFilter{}, core.NewPage(10))
	assert.Empty(t, q.Get("startDate"))
	assert.Empty(t, q.Get("type"))
	assert.Equal(t, "1", q.Get("page"))
}

func TestConventionByName(t *testing.T) {
	conv, err := ByName("legacy")
	require.NoError(t, err)
	assert.Equal(t, "title", conv.DescriptionField)

	conv, err = ByName("standard")
	require.NoError(t, err)
	assert.True(t, conv.ListEnvelope)

	_, err = ByName("v3")
	require.Error(t, err)
}
