/*
coordinator.go - Mutation coordinator

PURPOSE:
  Orchestrates every user-initiated mutation across the ledger, the
  period chain, and the persistence boundary. One call is one logical
  transaction even though it runs as dependent persistence steps:

    1. classify the transaction (if any)
    2. snapshot the current period chain
    3. run the matching recalculation pass against the snapshot
    4. persist ledger change and period deltas through the store
    5. on success apply BOTH to in-memory state; on failure apply NEITHER

LIFECYCLE:
  Each operation moves through pending -> fulfilled | rejected, logged
  with structured fields. Validation and lookups happen before the first
  persistence call, so a rejection never leaves partial state behind.

CONCURRENCY:
  Single writer. Mutations are issued one at a time by one session; a
  multi-client deployment would need per-period version stamps on the
  backend to avoid lost updates on overlapping suffixes.
*/
package finance

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Coordinator wires the chain, the ledger, and the persistence boundary
// together. It is the only writer of both in-memory structures.
type Coordinator struct {
	chain  *Chain
	ledger *Ledger
	store  Persistence
	log    *logrus.Entry
}

// NewCoordinator creates a coordinator. A nil logger disables logging.
func NewCoordinator(chain *Chain, ledger *Ledger, store Persistence, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Coordinator{
		chain:  chain,
		ledger: ledger,
		store:  store,
		log:    logger.WithField("component", "coordinator"),
	}
}

// Chain exposes the period chain for reads.
func (c *Coordinator) Chain() *Chain { return c.chain }

// Ledger exposes the cashflow ledger for reads.
func (c *Coordinator) Ledger() *Ledger { return c.ledger }

func (c *Coordinator) begin(op string, fields logrus.Fields) *logrus.Entry {
	entry := c.log.WithField("op", op).WithFields(fields)
	entry.Debug("operation pending")
	return entry
}

func settle(entry *logrus.Entry, err error) {
	if err != nil {
		entry.WithError(err).Warn("operation rejected")
		return
	}
	entry.Info("operation fulfilled")
}

// =============================================================================
// PERIOD OPERATIONS
// =============================================================================

// SeedPeriod opens the very first period of an empty chain. Once any
// period exists, new ones are opened with AddPeriod so the opening
// balance carries over from the predecessor; seeding a populated chain
// would let an arbitrary balance break that linkage.
func (c *Coordinator) SeedPeriod(ctx context.Context, draft PeriodDraft) (period Period, err error) {
	entry := c.begin("seed_period", logrus.Fields{"start_date": draft.StartDate.String()})
	defer func() { settle(entry, err) }()

	if c.chain.Len() > 0 {
		return Period{}, ErrChainNotEmpty
	}

	period, err = c.store.CreatePeriod(ctx, draft)
	if err != nil {
		return Period{}, err
	}
	if err = c.chain.Insert(period); err != nil {
		return Period{}, err
	}
	return period, nil
}

// AddPeriod opens the period following prevID. The new period opens with
// the predecessor's closing balance and inherits its reserve pools.
func (c *Coordinator) AddPeriod(ctx context.Context, prevID PeriodID, startDate Date) (period Period, err error) {
	entry := c.begin("add_period", logrus.Fields{
		"prev_period_id": prevID,
		"start_date":     startDate.String(),
	})
	defer func() { settle(entry, err) }()

	prev, err := c.chain.ByID(prevID)
	if err != nil {
		return Period{}, err
	}
	if !startDate.After(prev.StartDate) {
		return Period{}, ErrOutOfOrder
	}
	prevIdx, _ := c.chain.IndexOf(prevID)
	if next, ok := c.chain.At(prevIdx + 1); ok && !startDate.Before(next.StartDate) {
		return Period{}, ErrOutOfOrder
	}

	period, err = c.store.CreatePeriod(ctx, prev.NextDraft(startDate))
	if err != nil {
		return Period{}, err
	}
	if err = c.chain.Insert(period); err != nil {
		return Period{}, err
	}
	return period, nil
}

// DeletePeriod removes a period together with its ledger entries and
// recomputes every later period as if those entries were batch-deleted.
// The successor thereby inherits the deleted period's predecessor's
// closing state.
func (c *Coordinator) DeletePeriod(ctx context.Context, id PeriodID) (err error) {
	entry := c.begin("delete_period", logrus.Fields{"period_id": id})
	defer func() { settle(entry, err) }()

	origin, err := c.chain.IndexOf(id)
	if err != nil {
		return err
	}

	items := c.ledger.ByPeriod(id)
	totals, err := SumByType(items)
	if err != nil {
		return err
	}
	changes := TransactionsDeleted(c.chain.All(), origin+1, totals, true)

	ids := make([]ItemID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	if len(ids) > 0 {
		if ids, err = c.store.DeleteTransactions(ctx, ids); err != nil {
			return err
		}
	}
	if _, err = c.store.DeletePeriod(ctx, id); err != nil {
		return err
	}
	if len(changes) > 0 {
		if changes, err = c.store.UpdatePeriodCompensation(ctx, changes); err != nil {
			return err
		}
	}

	if len(ids) > 0 {
		if _, err = c.ledger.RemoveMany(ids); err != nil {
			return err
		}
	}
	if _, err = c.chain.Remove(id); err != nil {
		return err
	}
	err = c.chain.ApplyChanges(changes)
	return err
}

// ChangeStartDate moves a period to a new start date. Balances are not
// affected; the chain's chronological order must be preserved.
func (c *Coordinator) ChangeStartDate(ctx context.Context, id PeriodID, newDate Date) (period Period, err error) {
	entry := c.begin("change_start_date", logrus.Fields{
		"period_id":  id,
		"start_date": newDate.String(),
	})
	defer func() { settle(entry, err) }()

	if err = c.chain.ValidateStartDate(id, newDate); err != nil {
		return Period{}, err
	}

	update, err := c.store.UpdatePeriodStartDate(ctx, StartDateUpdate{PeriodID: id, NewStartDate: newDate})
	if err != nil {
		return Period{}, err
	}
	if err = c.chain.SetStartDate(update.PeriodID, update.NewStartDate); err != nil {
		return Period{}, err
	}
	period, err = c.chain.ByID(id)
	return period, err
}

// ChangeStartBalance overwrites a period's opening balance and shifts the
// whole suffix by the difference.
func (c *Coordinator) ChangeStartBalance(ctx context.Context, id PeriodID, newStart decimal.Decimal) (changes []BalanceChange, err error) {
	entry := c.begin("change_start_balance", logrus.Fields{
		"period_id": id,
		"amount":    newStart.String(),
	})
	defer func() { settle(entry, err) }()

	origin, err := c.chain.IndexOf(id)
	if err != nil {
		return nil, err
	}

	changes = StartBalanceChanged(c.chain.All(), origin, newStart)
	if changes, err = c.store.UpdatePeriodBalances(ctx, changes); err != nil {
		return nil, err
	}
	if err = c.chain.ApplyBalances(changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// =============================================================================
// TRANSACTION OPERATIONS
// =============================================================================

// AddTransaction records a new ledger entry and recomputes the affected
// suffix according to the entry's type.
func (c *Coordinator) AddTransaction(ctx context.Context, draft ItemDraft) (item CashflowItem, err error) {
	entry := c.begin("add_transaction", logrus.Fields{
		"period_id": draft.PeriodID,
		"type":      draft.Type,
		"amount":    draft.Amount.String(),
	})
	defer func() { settle(entry, err) }()

	effect, err := Classify(draft.Type)
	if err != nil {
		return CashflowItem{}, err
	}
	if !ValidAmount(draft.Amount) {
		return CashflowItem{}, &AmountError{Amount: draft.Amount}
	}
	origin, err := c.chain.IndexOf(draft.PeriodID)
	if err != nil {
		return CashflowItem{}, err
	}
	snapshot := c.chain.All()

	switch {
	case draft.Type.IsCompensation():
		// A raw compensation entry goes through the same shortfall math
		// as a submitted compensation, as a one-sided split.
		comp := CompensationAmount{}
		if effect.Reserve == ReserveStock {
			comp.Stock = draft.Amount
		} else {
			comp.ForwardPayments = draft.Amount
		}
		changes, cerr := CompensationSubmitted(snapshot, origin, comp)
		if cerr != nil {
			err = cerr
			return CashflowItem{}, err
		}
		if item, err = c.store.CreateTransaction(ctx, draft); err != nil {
			return CashflowItem{}, err
		}
		if changes, err = c.store.UpdatePeriodCompensation(ctx, changes); err != nil {
			return CashflowItem{}, err
		}
		if item, err = c.ledger.Add(item); err != nil {
			return CashflowItem{}, err
		}
		err = c.chain.ApplyChanges(changes)
		return item, err

	case effect.Reserve != ReserveNone:
		changes, cerr := ReserveShifted(snapshot, origin, effect.Reserve, draft.Amount)
		if cerr != nil {
			err = cerr
			return CashflowItem{}, err
		}
		if item, err = c.store.CreateTransaction(ctx, draft); err != nil {
			return CashflowItem{}, err
		}
		if changes, err = c.store.UpdatePeriodReserves(ctx, changes); err != nil {
			return CashflowItem{}, err
		}
		if item, err = c.ledger.Add(item); err != nil {
			return CashflowItem{}, err
		}
		err = c.chain.ApplyReserves(changes)
		return item, err

	default:
		delta := draft.Amount
		if effect.BalanceSign < 0 {
			delta = delta.Neg()
		}
		changes := BalanceShifted(snapshot, origin, delta)
		if item, err = c.store.CreateTransaction(ctx, draft); err != nil {
			return CashflowItem{}, err
		}
		if changes, err = c.store.UpdatePeriodBalances(ctx, changes); err != nil {
			return CashflowItem{}, err
		}
		if item, err = c.ledger.Add(item); err != nil {
			return CashflowItem{}, err
		}
		err = c.chain.ApplyBalances(changes)
		return item, err
	}
}

// EditTransaction applies a field-level edit. Title and date edits leave
// balances alone; amount edits recompute the suffix by the signed
// difference. Compensation amounts cannot be edited.
func (c *Coordinator) EditTransaction(ctx context.Context, id ItemID, update FieldUpdate) (item CashflowItem, err error) {
	entry := c.begin("edit_transaction", logrus.Fields{
		"item_id": id,
		"field":   update.Field,
	})
	defer func() { settle(entry, err) }()

	item, err = c.ledger.Get(id)
	if err != nil {
		return CashflowItem{}, err
	}

	if update.Field != FieldAmount {
		var canonical TransactionFieldUpdate
		canonical, err = c.store.UpdateTransactionField(ctx, TransactionFieldUpdate{ItemID: id, FieldUpdate: update})
		if err != nil {
			return CashflowItem{}, err
		}
		item, err = c.ledger.UpdateField(canonical.ItemID, canonical.FieldUpdate)
		return item, err
	}

	if !ValidAmount(update.Amount) {
		return CashflowItem{}, &AmountError{Amount: update.Amount}
	}
	if item.Type.IsCompensation() {
		return CashflowItem{}, ErrUneditableEntry
	}
	effect, err := Classify(item.Type)
	if err != nil {
		return CashflowItem{}, err
	}
	origin, err := c.chain.IndexOf(item.PeriodID)
	if err != nil {
		return CashflowItem{}, err
	}

	diff := update.Amount.Sub(item.Amount)
	if diff.IsZero() {
		var canonical TransactionFieldUpdate
		canonical, err = c.store.UpdateTransactionField(ctx, TransactionFieldUpdate{ItemID: id, FieldUpdate: update})
		if err != nil {
			return CashflowItem{}, err
		}
		item, err = c.ledger.UpdateField(canonical.ItemID, canonical.FieldUpdate)
		return item, err
	}

	snapshot := c.chain.All()
	if effect.Reserve != ReserveNone {
		changes, rerr := ReserveShifted(snapshot, origin, effect.Reserve, diff)
		if rerr != nil {
			err = rerr
			return CashflowItem{}, err
		}
		var canonical TransactionFieldUpdate
		canonical, err = c.store.UpdateTransactionField(ctx, TransactionFieldUpdate{ItemID: id, FieldUpdate: update})
		if err != nil {
			return CashflowItem{}, err
		}
		if changes, err = c.store.UpdatePeriodReserves(ctx, changes); err != nil {
			return CashflowItem{}, err
		}
		if item, err = c.ledger.UpdateField(canonical.ItemID, canonical.FieldUpdate); err != nil {
			return CashflowItem{}, err
		}
		err = c.chain.ApplyReserves(changes)
		return item, err
	}

	delta := diff
	if effect.BalanceSign < 0 {
		delta = delta.Neg()
	}
	changes := BalanceShifted(snapshot, origin, delta)
	canonical, uerr := c.store.UpdateTransactionField(ctx, TransactionFieldUpdate{ItemID: id, FieldUpdate: update})
	if uerr != nil {
		err = uerr
		return CashflowItem{}, err
	}
	if changes, err = c.store.UpdatePeriodBalances(ctx, changes); err != nil {
		return CashflowItem{}, err
	}
	if item, err = c.ledger.UpdateField(canonical.ItemID, canonical.FieldUpdate); err != nil {
		return CashflowItem{}, err
	}
	err = c.chain.ApplyBalances(changes)
	return item, err
}

// DeleteTransactions removes a batch of entries from one period and
// applies a single combined recalculation pass over the suffix.
func (c *Coordinator) DeleteTransactions(ctx context.Context, ids []ItemID) (err error) {
	entry := c.begin("delete_transactions", logrus.Fields{"count": len(ids)})
	defer func() { settle(entry, err) }()

	if len(ids) == 0 {
		return nil
	}
	items, err := c.ledger.GetMany(ids)
	if err != nil {
		return err
	}
	periodID := items[0].PeriodID
	for _, item := range items[1:] {
		if item.PeriodID != periodID {
			return ErrCrossPeriodBatch
		}
	}
	origin, err := c.chain.IndexOf(periodID)
	if err != nil {
		return err
	}
	totals, err := SumByType(items)
	if err != nil {
		return err
	}

	changes := TransactionsDeleted(c.chain.All(), origin, totals, false)
	if ids, err = c.store.DeleteTransactions(ctx, ids); err != nil {
		return err
	}
	if changes, err = c.store.UpdatePeriodCompensation(ctx, changes); err != nil {
		return err
	}

	if _, err = c.ledger.RemoveMany(ids); err != nil {
		return err
	}
	err = c.chain.ApplyChanges(changes)
	return err
}

// SubmitCompensation withdraws from the reserve pools to cover the
// period's shortfall, recording one ledger entry per non-zero part.
func (c *Coordinator) SubmitCompensation(ctx context.Context, periodID PeriodID, comp CompensationAmount) (items []CashflowItem, err error) {
	entry := c.begin("submit_compensation", logrus.Fields{
		"period_id": periodID,
		"stock":     comp.Stock.String(),
		"forward":   comp.ForwardPayments.String(),
	})
	defer func() { settle(entry, err) }()

	origin, err := c.chain.IndexOf(periodID)
	if err != nil {
		return nil, err
	}
	if !comp.Sum().IsPositive() {
		return nil, &AmountError{Amount: comp.Sum()}
	}

	changes, err := CompensationSubmitted(c.chain.All(), origin, comp)
	if err != nil {
		return nil, err
	}

	var drafts []ItemDraft
	if comp.Stock.IsPositive() {
		drafts = append(drafts, ItemDraft{
			PeriodID: periodID,
			Type:     TxCompensationStock,
			Title:    "compensation from stock",
			Amount:   comp.Stock,
			Date:     Today(),
		})
	}
	if comp.ForwardPayments.IsPositive() {
		drafts = append(drafts, ItemDraft{
			PeriodID: periodID,
			Type:     TxCompensationForward,
			Title:    "compensation from forward payments",
			Amount:   comp.ForwardPayments,
			Date:     Today(),
		})
	}

	items = make([]CashflowItem, 0, len(drafts))
	for _, draft := range drafts {
		item, cerr := c.store.CreateTransaction(ctx, draft)
		if cerr != nil {
			err = cerr
			return nil, err
		}
		items = append(items, item)
	}
	if changes, err = c.store.UpdatePeriodCompensation(ctx, changes); err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, err = c.ledger.Add(item); err != nil {
			return nil, err
		}
	}
	err = c.chain.ApplyChanges(changes)
	return items, err
}
