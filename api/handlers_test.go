package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/finance"
	"github.com/warp/budget-engine/finance/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer() http.Handler {
	engine := finance.NewCoordinator(finance.NewChain(), finance.NewLedger(), store.NewEcho(), nil)
	return api.NewRouter(api.NewHandler(engine, "u1"))
}

// do sends a JSON request to the router and decodes the JSON response into out.
func do(t *testing.T, h http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// seedPeriod opens the first period and returns its id.
func seedPeriod(t *testing.T, h http.Handler) string {
	t.Helper()

	var period api.PeriodDTO
	rec := do(t, h, http.MethodPost, "/api/periods", api.SeedPeriodRequest{
		StartDate:       "2025-04-01",
		StartBalance:    "1000",
		Stock:           "100",
		ForwardPayments: "50",
	}, &period)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, period.ID)
	return period.ID
}

// =============================================================================
// PERIOD ENDPOINTS
// =============================================================================

func TestAPI_SeedAndListPeriods(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var periods []api.PeriodDTO
	rec := do(t, h, http.MethodGet, "/api/periods", nil, &periods)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, periods, 1)

	assert.Equal(t, id, periods[0].ID)
	assert.Equal(t, "2025-04-01", periods[0].StartDate)
	assert.Equal(t, "1000", periods[0].StartBalance)
	assert.Equal(t, "1000", periods[0].EndBalance)
	assert.Equal(t, "100", periods[0].Stock)
	assert.Equal(t, "50", periods[0].ForwardPayments)
}

func TestAPI_AddNextPeriod(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var next api.PeriodDTO
	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/next", api.AddPeriodRequest{
		StartDate: "2025-05-01",
	}, &next)
	require.Equal(t, http.StatusCreated, rec.Code)

	// THEN: The new period inherits the predecessor's closing state.
	assert.Equal(t, "1000", next.StartBalance)
	assert.Equal(t, "100", next.Stock)
	assert.Equal(t, "50", next.ForwardPayments)

	// AND: The predecessor now reports the gap to its successor.
	var first api.PeriodDTO
	rec = do(t, h, http.MethodGet, "/api/periods/"+id, nil, &first)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, first.DaysToNext)
	assert.Equal(t, 30, *first.DaysToNext)
}

func TestAPI_AddNextPeriod_BeforePredecessor(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var errResp api.ErrorResponse
	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/next", api.AddPeriodRequest{
		StartDate: "2025-03-01",
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, errResp.Error)
}

func TestAPI_GetPeriod_NotFound(t *testing.T) {
	h := newTestServer()
	seedPeriod(t, h)

	rec := do(t, h, http.MethodGet, "/api/periods/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ChangeStartBalance(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var period api.PeriodDTO
	rec := do(t, h, http.MethodPut, "/api/periods/"+id+"/start-balance", api.ChangeStartBalanceRequest{
		StartBalance: "1500",
	}, &period)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1500", period.StartBalance)
	assert.Equal(t, "1500", period.EndBalance)
}

func TestAPI_DeletePeriod(t *testing.T) {
	h := newTestServer()
	first := seedPeriod(t, h)

	var next api.PeriodDTO
	rec := do(t, h, http.MethodPost, "/api/periods/"+first+"/next", api.AddPeriodRequest{
		StartDate: "2025-05-01",
	}, &next)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/periods/"+next.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var periods []api.PeriodDTO
	rec = do(t, h, http.MethodGet, "/api/periods", nil, &periods)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, periods, 1)
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

func TestAPI_CreateTransaction_RecalculatesPeriod(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var tx api.TransactionDTO
	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", api.CreateTransactionRequest{
		Type:   "payment/fixed",
		Title:  "rent",
		Amount: "250.45",
		Date:   "2025-04-03",
	}, &tx)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "250.45", tx.Amount)

	var period api.PeriodDTO
	rec = do(t, h, http.MethodGet, "/api/periods/"+id, nil, &period)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", period.StartBalance)
	assert.Equal(t, "749.55", period.EndBalance)
}

func TestAPI_CreateTransaction_BadAmount(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	tests := []struct {
		name   string
		amount string
	}{
		{"not a number", "lots"},
		{"negative", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", api.CreateTransactionRequest{
				Type:   "earning",
				Title:  "x",
				Amount: tt.amount,
				Date:   "2025-04-03",
			}, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAPI_CreateTransaction_UnknownType(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", api.CreateTransactionRequest{
		Type:   "wire_fraud",
		Title:  "x",
		Amount: "10",
		Date:   "2025-04-03",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ListTransactions_FilterByType(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	for i, req := range []api.CreateTransactionRequest{
		{Type: "earning", Title: "salary", Amount: "500", Date: "2025-04-02"},
		{Type: "payment/fixed", Title: "rent", Amount: "300", Date: "2025-04-03"},
	} {
		rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", req, nil)
		require.Equal(t, http.StatusCreated, rec.Code, "entry %d", i)
	}

	var all []api.TransactionDTO
	rec := do(t, h, http.MethodGet, "/api/periods/"+id+"/transactions", nil, &all)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, all, 2)

	var earnings []api.TransactionDTO
	rec = do(t, h, http.MethodGet, "/api/periods/"+id+"/transactions?type=earning", nil, &earnings)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, earnings, 1)
	assert.Equal(t, "salary", earnings[0].Title)
}

func TestAPI_EditTransactionAmount(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var tx api.TransactionDTO
	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", api.CreateTransactionRequest{
		Type:   "payment/fixed",
		Title:  "rent",
		Amount: "300",
		Date:   "2025-04-03",
	}, &tx)
	require.Equal(t, http.StatusCreated, rec.Code)

	var edited api.TransactionDTO
	rec = do(t, h, http.MethodPut, "/api/transactions/"+tx.ID, api.EditTransactionRequest{
		Field:  "amount",
		Amount: "200",
	}, &edited)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "200", edited.Amount)

	var period api.PeriodDTO
	rec = do(t, h, http.MethodGet, "/api/periods/"+id, nil, &period)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "800", period.EndBalance)
}

func TestAPI_DeleteTransactions(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	var tx api.TransactionDTO
	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", api.CreateTransactionRequest{
		Type:   "payment/fixed",
		Title:  "rent",
		Amount: "300",
		Date:   "2025-04-03",
	}, &tx)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.DeleteTransactionsResponse
	rec = do(t, h, http.MethodDelete, "/api/transactions", api.DeleteTransactionsRequest{
		IDs: []string{tx.ID},
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{tx.ID}, resp.Deleted)

	// THEN: The deletion is reversed out of the period balance.
	var period api.PeriodDTO
	rec = do(t, h, http.MethodGet, "/api/periods/"+id, nil, &period)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", period.EndBalance)
}

// =============================================================================
// COMPENSATION
// =============================================================================

func TestAPI_SubmitCompensation(t *testing.T) {
	// GIVEN: A period driven into shortfall by a large payment
	h := newTestServer()
	id := seedPeriod(t, h)

	rec := do(t, h, http.MethodPost, "/api/periods/"+id+"/transactions", api.CreateTransactionRequest{
		Type:   "payment/fixed",
		Title:  "repairs",
		Amount: "1080",
		Date:   "2025-04-03",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Covering the 80 shortfall from the stock pool
	var resp api.CompensationResponse
	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/periods/%s/compensation", id), api.CompensationRequest{
		Stock: "80",
	}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "compensation/stock", resp.Entries[0].Type)
	assert.Equal(t, "80", resp.Entries[0].Amount)

	// THEN: The balance is restored to zero and the pool is drained.
	var period api.PeriodDTO
	rec = do(t, h, http.MethodGet, "/api/periods/"+id, nil, &period)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", period.EndBalance)
	assert.Equal(t, "20", period.Stock)
	assert.Equal(t, "0", period.Shortfall)
}

func TestAPI_SubmitCompensation_NoShortfall(t *testing.T) {
	h := newTestServer()
	id := seedPeriod(t, h)

	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/periods/%s/compensation", id), api.CompensationRequest{
		Stock: "10",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
