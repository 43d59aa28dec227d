/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as JSON strings ("1250.40"), never floats.
  Handlers parse them with decimal.NewFromString so no precision is
  lost on the boundary.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - finance/types.go: Domain model
*/
package api

import (
	"github.com/warp/budget-engine/finance"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PeriodDTO represents a budget period in API responses.
type PeriodDTO struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	StartDate       string `json:"start_date"`
	StartBalance    string `json:"start_balance"`
	EndBalance      string `json:"end_balance"`
	Stock           string `json:"stock"`
	ForwardPayments string `json:"forward_payments"`
	Shortfall       string `json:"shortfall"`
	DaysToNext      *int   `json:"days_to_next,omitempty"`
}

// SeedPeriodRequest is the request to open the very first period.
type SeedPeriodRequest struct {
	StartDate       string `json:"start_date"`
	StartBalance    string `json:"start_balance"`
	Stock           string `json:"stock,omitempty"`
	ForwardPayments string `json:"forward_payments,omitempty"`
}

// AddPeriodRequest is the request to open a period after an existing one.
type AddPeriodRequest struct {
	StartDate string `json:"start_date"`
}

// ChangeStartDateRequest moves a period to a new start date.
type ChangeStartDateRequest struct {
	StartDate string `json:"start_date"`
}

// ChangeStartBalanceRequest overwrites a period's opening balance.
type ChangeStartBalanceRequest struct {
	StartBalance string `json:"start_balance"`
}

// TransactionDTO represents a cashflow ledger entry.
type TransactionDTO struct {
	ID       string `json:"id"`
	PeriodID string `json:"period_id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
}

// CreateTransactionRequest is the request to record a cashflow entry.
type CreateTransactionRequest struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// EditTransactionRequest is a field-level edit of one entry. Exactly one
// of the value fields is read, selected by Field.
type EditTransactionRequest struct {
	Field  string `json:"field"` // "title", "amount" or "date"
	Title  string `json:"title,omitempty"`
	Amount string `json:"amount,omitempty"`
	Date   string `json:"date,omitempty"`
}

// DeleteTransactionsRequest is a batch deletion within one period.
type DeleteTransactionsRequest struct {
	IDs []string `json:"ids"`
}

// DeleteTransactionsResponse lists the deleted entry ids.
type DeleteTransactionsResponse struct {
	Deleted []string `json:"deleted"`
}

// CompensationRequest covers a shortfall from the reserve pools.
type CompensationRequest struct {
	Stock           string `json:"stock,omitempty"`
	ForwardPayments string `json:"forward_payments,omitempty"`
}

// CompensationResponse lists the ledger entries the compensation created.
type CompensationResponse struct {
	Entries []TransactionDTO `json:"entries"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPeriodDTO(p finance.Period, daysToNext *int) PeriodDTO {
	return PeriodDTO{
		ID:              string(p.ID),
		UserID:          string(p.UserID),
		StartDate:       p.StartDate.String(),
		StartBalance:    p.StartBalance.String(),
		EndBalance:      p.EndBalance.String(),
		Stock:           p.Stock.String(),
		ForwardPayments: p.ForwardPayments.String(),
		Shortfall:       p.Shortfall().String(),
		DaysToNext:      daysToNext,
	}
}

func toTransactionDTO(item finance.CashflowItem) TransactionDTO {
	return TransactionDTO{
		ID:       string(item.ID),
		PeriodID: string(item.PeriodID),
		Type:     string(item.Type),
		Title:    item.Title,
		Amount:   item.Amount.String(),
		Date:     item.Date.String(),
	}
}

func toTransactionDTOs(items []finance.CashflowItem) []TransactionDTO {
	dtos := make([]TransactionDTO, len(items))
	for i, item := range items {
		dtos[i] = toTransactionDTO(item)
	}
	return dtos
}
