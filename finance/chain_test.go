package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/finance"
)

func TestNewChain_SortsByStartDate(t *testing.T) {
	// GIVEN: Periods handed over out of order
	// WHEN: Building the chain
	// THEN: They come back chronologically sorted

	chain := finance.NewChain(
		per("p3", 21, "600", "900", "0", "0"),
		per("p1", 1, "1000", "800", "0", "0"),
		per("p2", 11, "800", "600", "0", "0"),
	)

	all := chain.All()
	require.Len(t, all, 3)
	assert.Equal(t, finance.PeriodID("p1"), all[0].ID)
	assert.Equal(t, finance.PeriodID("p2"), all[1].ID)
	assert.Equal(t, finance.PeriodID("p3"), all[2].ID)
}

func TestChain_Insert_KeepsOrder(t *testing.T) {
	chain := finance.NewChain(
		per("p1", 1, "0", "0", "0", "0"),
		per("p3", 21, "0", "0", "0", "0"),
	)

	require.NoError(t, chain.Insert(per("p2", 11, "0", "0", "0", "0")))

	all := chain.All()
	require.Len(t, all, 3)
	assert.Equal(t, finance.PeriodID("p2"), all[1].ID)
}

func TestChain_Insert_DuplicateStartDate_Rejected(t *testing.T) {
	chain := finance.NewChain(per("p1", 1, "0", "0", "0", "0"))

	err := chain.Insert(per("p2", 1, "0", "0", "0", "0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrOutOfOrder)
}

func TestChain_Insert_DuplicateID_Rejected(t *testing.T) {
	chain := finance.NewChain(per("p1", 1, "0", "0", "0", "0"))

	err := chain.Insert(per("p1", 11, "0", "0", "0", "0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrDuplicateEntity)
	assert.Equal(t, 1, chain.Len())
}

func TestChain_ByID_Missing_ReturnsNotFound(t *testing.T) {
	chain := finance.NewChain()

	_, err := chain.ByID("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrEntityNotFound)
}

func TestChain_DaysToNext(t *testing.T) {
	chain := finance.NewChain(
		per("p1", 1, "0", "0", "0", "0"),
		per("p2", 11, "0", "0", "0", "0"),
	)

	days, ok := chain.DaysToNext("p1")
	require.True(t, ok)
	assert.Equal(t, 10, days)

	_, ok = chain.DaysToNext("p2")
	assert.False(t, ok, "the newest period has no successor")
}

func TestChain_ValidateStartDate_BetweenNeighbours(t *testing.T) {
	// GIVEN: Three periods on days 1, 11, 21
	// WHEN: Moving the middle one
	// THEN: Any day strictly between days 1 and 21 is fine; the
	//       neighbours' days and anything beyond them are rejected

	chain := finance.NewChain(
		per("p1", 1, "0", "0", "0", "0"),
		per("p2", 11, "0", "0", "0", "0"),
		per("p3", 21, "0", "0", "0", "0"),
	)

	assert.NoError(t, chain.ValidateStartDate("p2", day(2)))
	assert.NoError(t, chain.ValidateStartDate("p2", day(20)))
	assert.ErrorIs(t, chain.ValidateStartDate("p2", day(1)), finance.ErrOutOfOrder)
	assert.ErrorIs(t, chain.ValidateStartDate("p2", day(21)), finance.ErrOutOfOrder)
	assert.ErrorIs(t, chain.ValidateStartDate("p2", day(25)), finance.ErrOutOfOrder)
}

func TestChain_SetStartDate_MovesPeriod(t *testing.T) {
	chain := finance.NewChain(
		per("p1", 1, "0", "0", "0", "0"),
		per("p2", 11, "0", "0", "0", "0"),
	)

	require.NoError(t, chain.SetStartDate("p2", day(15)))

	p, err := chain.ByID("p2")
	require.NoError(t, err)
	assert.True(t, p.StartDate.Equal(day(15)))
}

func TestChain_Remove(t *testing.T) {
	chain := finance.NewChain(
		per("p1", 1, "0", "0", "0", "0"),
		per("p2", 11, "0", "0", "0", "0"),
	)

	removed, err := chain.Remove("p1")
	require.NoError(t, err)
	assert.Equal(t, finance.PeriodID("p1"), removed.ID)
	assert.Equal(t, 1, chain.Len())

	_, err = chain.Remove("p1")
	assert.ErrorIs(t, err, finance.ErrEntityNotFound)
}

func TestChain_ApplyBalances_UnknownPeriod_Fails(t *testing.T) {
	chain := finance.NewChain(per("p1", 1, "0", "0", "0", "0"))

	err := chain.ApplyBalances([]finance.BalanceChange{{ID: "ghost"}})
	assert.ErrorIs(t, err, finance.ErrEntityNotFound)
}

func TestChain_All_ReturnsCopy(t *testing.T) {
	// GIVEN: A chain
	// WHEN: Mutating the slice returned by All
	// THEN: The chain's own state is unaffected

	chain := finance.NewChain(per("p1", 1, "100", "100", "0", "0"))

	snapshot := chain.All()
	snapshot[0].StartBalance = d("999")

	p, err := chain.ByID("p1")
	require.NoError(t, err)
	assert.True(t, p.StartBalance.Equal(d("100")))
}

func TestPeriod_Shortfall(t *testing.T) {
	assert.True(t, per("p", 1, "0", "-120", "0", "0").Shortfall().Equal(d("120")))
	assert.True(t, per("p", 1, "0", "200", "0", "0").Shortfall().Equal(d("0")))
	assert.True(t, per("p", 1, "0", "0", "0", "0").Shortfall().Equal(d("0")))
}

func TestPeriod_NextDraft_InheritsClosingState(t *testing.T) {
	// GIVEN: A period closing at 600 with pools 100/50
	// WHEN: Drafting its successor
	// THEN: The successor opens and closes at 600 and carries both pools

	p := per("p1", 1, "1000", "600", "100", "50")
	draft := p.NextDraft(day(31))

	assert.True(t, draft.StartBalance.Equal(d("600")))
	assert.True(t, draft.EndBalance.Equal(d("600")))
	assert.True(t, draft.Stock.Equal(d("100")))
	assert.True(t, draft.ForwardPayments.Equal(d("50")))
	assert.True(t, draft.StartDate.Equal(day(31)))
	assert.Equal(t, p.UserID, draft.UserID)
}
