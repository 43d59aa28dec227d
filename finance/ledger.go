/*
ledger.go - Cashflow ledger

PURPOSE:
  Owns every cashflow entry across all periods and answers the filtered
  queries the rest of the system needs. The ledger knows nothing about
  balances; a field edit or removal here only settles once the
  coordinator has run the matching recalculation pass.

CONTRACT:
  - Add:        insert an entry (id already assigned by the store)
  - UpdateField: field-level edit of title, amount, or date
  - RemoveMany: delete a batch; fails whole if any id is missing
  - ByPeriod / ByPeriodAndType: filtered queries

  Amounts are validated against [0, MaxAmount] on entry and on edit.
*/
package finance

import "github.com/shopspring/decimal"

// =============================================================================
// FIELD EDITS
// =============================================================================

// ItemField names an editable field of a cashflow entry.
type ItemField string

const (
	FieldTitle  ItemField = "title"
	FieldAmount ItemField = "amount"
	FieldDate   ItemField = "date"
)

// FieldUpdate is a single field-level edit. Only the value matching
// Field is read.
type FieldUpdate struct {
	Field  ItemField
	Title  string
	Amount decimal.Decimal
	Date   Date
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger holds all cashflow entries, ordered by insertion.
type Ledger struct {
	items []CashflowItem
	byID  map[ItemID]int
}

// NewLedger builds a ledger from existing entries.
func NewLedger(items ...CashflowItem) *Ledger {
	l := &Ledger{items: append([]CashflowItem(nil), items...)}
	l.reindex()
	return l
}

func (l *Ledger) reindex() {
	l.byID = make(map[ItemID]int, len(l.items))
	for i, item := range l.items {
		l.byID[item.ID] = i
	}
}

func (l *Ledger) Len() int { return len(l.items) }

// All returns a copy of every entry.
func (l *Ledger) All() []CashflowItem {
	return append([]CashflowItem(nil), l.items...)
}

// Get returns the entry with the given id.
func (l *Ledger) Get(id ItemID) (CashflowItem, error) {
	i, ok := l.byID[id]
	if !ok {
		return CashflowItem{}, &NotFoundError{Kind: "transaction", ID: string(id)}
	}
	return l.items[i], nil
}

// GetMany resolves a batch of ids. Fails on the first missing one.
func (l *Ledger) GetMany(ids []ItemID) ([]CashflowItem, error) {
	items := make([]CashflowItem, 0, len(ids))
	for _, id := range ids {
		item, err := l.Get(id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Add inserts an entry. The amount must already be within bounds and
// the id must be new; a repeated id would leave a stale copy behind
// the index.
func (l *Ledger) Add(item CashflowItem) (CashflowItem, error) {
	if !ValidAmount(item.Amount) {
		return CashflowItem{}, &AmountError{Amount: item.Amount}
	}
	if _, exists := l.byID[item.ID]; exists {
		return CashflowItem{}, &DuplicateError{Kind: "transaction", ID: string(item.ID)}
	}
	l.items = append(l.items, item)
	l.byID[item.ID] = len(l.items) - 1
	return item, nil
}

// UpdateField applies a field-level edit and returns the updated entry.
func (l *Ledger) UpdateField(id ItemID, update FieldUpdate) (CashflowItem, error) {
	i, ok := l.byID[id]
	if !ok {
		return CashflowItem{}, &NotFoundError{Kind: "transaction", ID: string(id)}
	}

	switch update.Field {
	case FieldTitle:
		l.items[i].Title = update.Title
	case FieldAmount:
		if !ValidAmount(update.Amount) {
			return CashflowItem{}, &AmountError{Amount: update.Amount}
		}
		l.items[i].Amount = update.Amount
	case FieldDate:
		l.items[i].Date = update.Date
	default:
		return CashflowItem{}, ErrUneditableEntry
	}
	return l.items[i], nil
}

// RemoveMany deletes the entries with the given ids. If any id is absent
// nothing is removed.
func (l *Ledger) RemoveMany(ids []ItemID) ([]CashflowItem, error) {
	removed, err := l.GetMany(ids)
	if err != nil {
		return nil, err
	}

	drop := make(map[ItemID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := l.items[:0]
	for _, item := range l.items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	l.items = kept
	l.reindex()
	return removed, nil
}

// ByPeriod returns every entry belonging to a period.
func (l *Ledger) ByPeriod(periodID PeriodID) []CashflowItem {
	var result []CashflowItem
	for _, item := range l.items {
		if item.PeriodID == periodID {
			result = append(result, item)
		}
	}
	return result
}

// ByPeriodAndType returns a period's entries of one type.
func (l *Ledger) ByPeriodAndType(periodID PeriodID, t TransactionType) []CashflowItem {
	var result []CashflowItem
	for _, item := range l.items {
		if item.PeriodID == periodID && item.Type == t {
			result = append(result, item)
		}
	}
	return result
}
