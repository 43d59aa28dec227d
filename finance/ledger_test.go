package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/finance"
)

func entry(id, periodID string, txType finance.TransactionType, amount string) finance.CashflowItem {
	return finance.CashflowItem{
		ID:       finance.ItemID(id),
		PeriodID: finance.PeriodID(periodID),
		Type:     txType,
		Title:    "entry " + id,
		Amount:   d(amount),
		Date:     day(5),
	}
}

func TestLedger_AddAndGet(t *testing.T) {
	ledger := finance.NewLedger()

	added, err := ledger.Add(entry("t1", "p1", finance.TxEarning, "100"))
	require.NoError(t, err)
	assert.Equal(t, finance.ItemID("t1"), added.ID)

	got, err := ledger.Get("t1")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("100")))
}

func TestLedger_Add_RejectsOutOfBoundsAmount(t *testing.T) {
	ledger := finance.NewLedger()

	_, err := ledger.Add(entry("t1", "p1", finance.TxEarning, "-5"))
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)

	_, err = ledger.Add(finance.CashflowItem{
		ID: "t2", PeriodID: "p1", Type: finance.TxEarning,
		Amount: finance.MaxAmount.Add(d("1")), Date: day(5),
	})
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)
}

func TestLedger_Add_RejectsDuplicateID(t *testing.T) {
	ledger := finance.NewLedger(entry("t1", "p1", finance.TxEarning, "100"))

	_, err := ledger.Add(entry("t1", "p1", finance.TxEarning, "200"))
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrDuplicateEntity)

	// AND: The original entry survives and the ledger holds one item.
	assert.Equal(t, 1, ledger.Len())
	got, err := ledger.Get("t1")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("100")))
}

func TestLedger_UpdateField(t *testing.T) {
	ledger := finance.NewLedger(entry("t1", "p1", finance.TxEarning, "100"))

	updated, err := ledger.UpdateField("t1", finance.FieldUpdate{
		Field: finance.FieldTitle, Title: "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, "salary", updated.Title)

	updated, err = ledger.UpdateField("t1", finance.FieldUpdate{
		Field: finance.FieldAmount, Amount: d("250"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(d("250")))

	updated, err = ledger.UpdateField("t1", finance.FieldUpdate{
		Field: finance.FieldDate, Date: day(9),
	})
	require.NoError(t, err)
	assert.True(t, updated.Date.Equal(day(9)))
}

func TestLedger_UpdateField_InvalidAmount_LeavesEntryUntouched(t *testing.T) {
	ledger := finance.NewLedger(entry("t1", "p1", finance.TxEarning, "100"))

	_, err := ledger.UpdateField("t1", finance.FieldUpdate{
		Field: finance.FieldAmount, Amount: d("-1"),
	})
	require.ErrorIs(t, err, finance.ErrInvalidAmount)

	got, err := ledger.Get("t1")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("100")))
}

func TestLedger_UpdateField_UnknownField_Rejected(t *testing.T) {
	ledger := finance.NewLedger(entry("t1", "p1", finance.TxEarning, "100"))

	_, err := ledger.UpdateField("t1", finance.FieldUpdate{Field: "type"})
	assert.ErrorIs(t, err, finance.ErrUneditableEntry)
}

func TestLedger_RemoveMany_AllOrNothing(t *testing.T) {
	// GIVEN: Two entries
	// WHEN: Removing a batch where one id is missing
	// THEN: Nothing is removed

	ledger := finance.NewLedger(
		entry("t1", "p1", finance.TxEarning, "100"),
		entry("t2", "p1", finance.TxPaymentFixed, "40"),
	)

	_, err := ledger.RemoveMany([]finance.ItemID{"t1", "ghost"})
	require.ErrorIs(t, err, finance.ErrEntityNotFound)
	assert.Equal(t, 2, ledger.Len())

	removed, err := ledger.RemoveMany([]finance.ItemID{"t1", "t2"})
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, 0, ledger.Len())
}

func TestLedger_ByPeriodAndType(t *testing.T) {
	ledger := finance.NewLedger(
		entry("t1", "p1", finance.TxEarning, "100"),
		entry("t2", "p1", finance.TxPaymentFixed, "40"),
		entry("t3", "p2", finance.TxEarning, "60"),
	)

	assert.Len(t, ledger.ByPeriod("p1"), 2)
	assert.Len(t, ledger.ByPeriodAndType("p1", finance.TxEarning), 1)
	assert.Empty(t, ledger.ByPeriodAndType("p2", finance.TxPaymentFixed))
}
