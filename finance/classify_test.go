package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/finance"
)

func TestClassify_EffectTable(t *testing.T) {
	tests := []struct {
		txType finance.TransactionType
		want   finance.Effect
	}{
		{finance.TxEarning, finance.Effect{BalanceSign: +1}},
		{finance.TxPaymentFixed, finance.Effect{BalanceSign: -1}},
		{finance.TxPaymentVariable, finance.Effect{BalanceSign: -1}},
		{finance.TxReserveStock, finance.Effect{Reserve: finance.ReserveStock, ReserveSign: +1}},
		{finance.TxReserveForward, finance.Effect{Reserve: finance.ReserveForward, ReserveSign: +1}},
		{finance.TxCompensationStock, finance.Effect{BalanceSign: +1, Reserve: finance.ReserveStock, ReserveSign: -1}},
		{finance.TxCompensationForward, finance.Effect{BalanceSign: +1, Reserve: finance.ReserveForward, ReserveSign: -1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			effect, err := finance.Classify(tt.txType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, effect)
		})
	}
}

func TestClassify_UnknownType_Fails(t *testing.T) {
	_, err := finance.Classify("transfer")
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrUnknownTransactionType)
}

func TestSumByType_AggregatesByCategory(t *testing.T) {
	// GIVEN: A mixed batch of entries
	// WHEN: Summing by type
	// THEN: Each category accumulates only its own amounts

	items := []finance.CashflowItem{
		{ID: "t1", Type: finance.TxEarning, Amount: d("100")},
		{ID: "t2", Type: finance.TxEarning, Amount: d("50")},
		{ID: "t3", Type: finance.TxPaymentFixed, Amount: d("30")},
		{ID: "t4", Type: finance.TxPaymentVariable, Amount: d("20")},
		{ID: "t5", Type: finance.TxReserveStock, Amount: d("40")},
		{ID: "t6", Type: finance.TxReserveForward, Amount: d("15")},
		{ID: "t7", Type: finance.TxCompensationStock, Amount: d("25")},
		{ID: "t8", Type: finance.TxCompensationForward, Amount: d("10")},
	}

	totals, err := finance.SumByType(items)
	require.NoError(t, err)

	assert.True(t, totals.Income.Equal(d("150")))
	assert.True(t, totals.Outcome.Equal(d("50")))
	assert.True(t, totals.StockIncome.Equal(d("40")))
	assert.True(t, totals.ForwardIn.Equal(d("15")))
	assert.True(t, totals.StockSpent.Equal(d("25")))
	assert.True(t, totals.ForwardSpent.Equal(d("10")))
	assert.True(t, totals.SpentReserves().Equal(d("35")))
}

func TestSumByType_UnknownType_Fails(t *testing.T) {
	items := []finance.CashflowItem{
		{ID: "t1", Type: finance.TxEarning, Amount: d("100")},
		{ID: "t2", Type: "mystery", Amount: d("5")},
	}

	_, err := finance.SumByType(items)
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrUnknownTransactionType)
}

func TestValidAmount_Bounds(t *testing.T) {
	assert.True(t, finance.ValidAmount(d("0")))
	assert.True(t, finance.ValidAmount(d("0.01")))
	assert.True(t, finance.ValidAmount(finance.MaxAmount))
	assert.False(t, finance.ValidAmount(d("-0.01")))
	assert.False(t, finance.ValidAmount(finance.MaxAmount.Add(d("1"))))
}
