/*
handlers.go - HTTP API handlers for the budget period engine

PURPOSE:
  Exposes the period recalculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Periods:
    GET    /api/periods                       List the period chain
    POST   /api/periods                       Open the first period
    GET    /api/periods/{id}                  Get one period
    DELETE /api/periods/{id}                  Delete a period and its entries
    POST   /api/periods/{id}/next             Open a period after this one
    PUT    /api/periods/{id}/start-date       Move a period's start date
    PUT    /api/periods/{id}/start-balance    Overwrite the opening balance
    POST   /api/periods/{id}/compensation     Cover a shortfall from reserves

  Transactions:
    GET    /api/periods/{id}/transactions     List a period's entries
    POST   /api/periods/{id}/transactions     Record a cashflow entry
    PUT    /api/transactions/{id}             Edit one field of an entry
    DELETE /api/transactions                  Batch-delete entries

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input shape (dates, decimals)
  3. Call the coordinator
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Period or entry not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - finance/coordinator.go: Domain operations
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/finance"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *finance.Coordinator
	UserID finance.UserID
}

// NewHandler creates a new handler around the coordinator.
func NewHandler(engine *finance.Coordinator, userID finance.UserID) *Handler {
	return &Handler{Engine: engine, UserID: userID}
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns the whole period chain in chronological order.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	chain := h.Engine.Chain()

	periods := chain.All()
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		var daysToNext *int
		if days, ok := chain.DaysToNext(p.ID); ok {
			daysToNext = &days
		}
		dtos[i] = toPeriodDTO(p, daysToNext)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetPeriod returns a single period.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	period, err := h.Engine.Chain().ByID(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var daysToNext *int
	if days, ok := h.Engine.Chain().DaysToNext(id); ok {
		daysToNext = &days
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period, daysToNext))
}

// SeedPeriod opens the very first period.
func (h *Handler) SeedPeriod(w http.ResponseWriter, r *http.Request) {
	var req SeedPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate, err := finance.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	startBalance, err := parseAmount(req.StartBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_balance", err)
		return
	}
	stock, err := parseOptionalAmount(req.Stock)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid stock", err)
		return
	}
	forward, err := parseOptionalAmount(req.ForwardPayments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid forward_payments", err)
		return
	}

	period, err := h.Engine.SeedPeriod(r.Context(), finance.PeriodDraft{
		UserID:          h.UserID,
		StartDate:       startDate,
		StartBalance:    startBalance,
		EndBalance:      startBalance,
		Stock:           stock,
		ForwardPayments: forward,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodDTO(period, nil))
}

// AddPeriod opens a new period after the given one. The new period
// inherits the previous period's closing balance and reserve pools.
func (h *Handler) AddPeriod(w http.ResponseWriter, r *http.Request) {
	prevID := finance.PeriodID(chi.URLParam(r, "id"))

	var req AddPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate, err := finance.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}

	period, err := h.Engine.AddPeriod(r.Context(), prevID, startDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodDTO(period, nil))
}

// DeletePeriod removes a period, its ledger entries, and recalculates
// every later period as if the deleted entries never happened.
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	if err := h.Engine.DeletePeriod(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": string(id)})
}

// ChangeStartDate moves a period to a new start date.
func (h *Handler) ChangeStartDate(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	var req ChangeStartDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate, err := finance.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}

	period, err := h.Engine.ChangeStartDate(r.Context(), id, startDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period, nil))
}

// ChangeStartBalance overwrites a period's opening balance and shifts
// the whole suffix by the difference.
func (h *Handler) ChangeStartBalance(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	var req ChangeStartBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startBalance, err := parseAmount(req.StartBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_balance", err)
		return
	}

	if _, err := h.Engine.ChangeStartBalance(r.Context(), id, startBalance); err != nil {
		writeDomainError(w, err)
		return
	}

	period, err := h.Engine.Chain().ByID(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period, nil))
}

// SubmitCompensation covers a period's shortfall from the reserve pools.
func (h *Handler) SubmitCompensation(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	var req CompensationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stock, err := parseOptionalAmount(req.Stock)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid stock", err)
		return
	}
	forward, err := parseOptionalAmount(req.ForwardPayments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid forward_payments", err)
		return
	}

	entries, err := h.Engine.SubmitCompensation(r.Context(), id, finance.CompensationAmount{
		Stock:           stock,
		ForwardPayments: forward,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CompensationResponse{Entries: toTransactionDTOs(entries)})
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns a period's ledger entries, optionally
// filtered by ?type=.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	if _, err := h.Engine.Chain().ByID(id); err != nil {
		writeDomainError(w, err)
		return
	}

	var items []finance.CashflowItem
	if txType := r.URL.Query().Get("type"); txType != "" {
		items = h.Engine.Ledger().ByPeriodAndType(id, finance.TransactionType(txType))
	} else {
		items = h.Engine.Ledger().ByPeriod(id)
	}

	writeJSON(w, http.StatusOK, toTransactionDTOs(items))
}

// CreateTransaction records a cashflow entry and recalculates the
// period suffix.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	id := finance.PeriodID(chi.URLParam(r, "id"))

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := finance.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	item, err := h.Engine.AddTransaction(r.Context(), finance.ItemDraft{
		PeriodID: id,
		Type:     finance.TransactionType(req.Type),
		Title:    req.Title,
		Amount:   amount,
		Date:     date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(item))
}

// EditTransaction applies a single-field edit to a ledger entry.
func (h *Handler) EditTransaction(w http.ResponseWriter, r *http.Request) {
	id := finance.ItemID(chi.URLParam(r, "id"))

	var req EditTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	update := finance.FieldUpdate{Field: finance.ItemField(req.Field)}
	switch update.Field {
	case finance.FieldTitle:
		update.Title = req.Title
	case finance.FieldAmount:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		update.Amount = amount
	case finance.FieldDate:
		date, err := finance.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		update.Date = date
	default:
		writeError(w, http.StatusBadRequest, "Unknown field", fmt.Errorf("field %q", req.Field))
		return
	}

	item, err := h.Engine.EditTransaction(r.Context(), id, update)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(item))
}

// DeleteTransactions removes a batch of entries from one period.
func (h *Handler) DeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req DeleteTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ids := make([]finance.ItemID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = finance.ItemID(id)
	}

	if err := h.Engine.DeleteTransactions(r.Context(), ids); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteTransactionsResponse{Deleted: req.IDs})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("amount is required")
	}
	return decimal.NewFromString(s)
}

// parseOptionalAmount treats an absent field as zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case finance.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case finance.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
