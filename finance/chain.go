/*
chain.go - Ordered chain of budget periods

PURPOSE:
  Holds the period sequence in strict chronological order and answers
  the lookups every mutation needs: by id, by index, and "this period
  plus everything after it" (the suffix a cascading recalculation
  touches). Insertion and removal keep the ordering intact.

OWNERSHIP:
  The chain owns period records. The recalculation functions in
  recalc.go are pure; they read a snapshot of the chain and return
  change sets that are applied back here once persistence succeeded.
*/
package finance

import "sort"

// Chain is the ordered, id-addressable collection of periods.
type Chain struct {
	periods []Period
	byID    map[PeriodID]int
}

// NewChain builds a chain from the given periods, ordering them by start
// date. Index 0 is the first period.
func NewChain(periods ...Period) *Chain {
	c := &Chain{periods: append([]Period(nil), periods...)}
	sort.SliceStable(c.periods, func(i, j int) bool {
		return c.periods[i].StartDate.Before(c.periods[j].StartDate)
	})
	c.reindex()
	return c
}

func (c *Chain) reindex() {
	c.byID = make(map[PeriodID]int, len(c.periods))
	for i, p := range c.periods {
		c.byID[p.ID] = i
	}
}

func (c *Chain) Len() int { return len(c.periods) }

// All returns a copy of the ordered periods.
func (c *Chain) All() []Period {
	return append([]Period(nil), c.periods...)
}

// First returns the earliest period.
func (c *Chain) First() (Period, bool) {
	if len(c.periods) == 0 {
		return Period{}, false
	}
	return c.periods[0], true
}

// Last returns the latest period.
func (c *Chain) Last() (Period, bool) {
	if len(c.periods) == 0 {
		return Period{}, false
	}
	return c.periods[len(c.periods)-1], true
}

// ByID returns the period with the given id.
func (c *Chain) ByID(id PeriodID) (Period, error) {
	i, ok := c.byID[id]
	if !ok {
		return Period{}, &NotFoundError{Kind: "period", ID: string(id)}
	}
	return c.periods[i], nil
}

// IndexOf returns the chronological index of the period with the given id.
func (c *Chain) IndexOf(id PeriodID) (int, error) {
	i, ok := c.byID[id]
	if !ok {
		return 0, &NotFoundError{Kind: "period", ID: string(id)}
	}
	return i, nil
}

// At returns the period at index i.
func (c *Chain) At(i int) (Period, bool) {
	if i < 0 || i >= len(c.periods) {
		return Period{}, false
	}
	return c.periods[i], true
}

// Suffix returns a copy of the periods from index `from` to the end.
func (c *Chain) Suffix(from int) []Period {
	if from < 0 {
		from = 0
	}
	if from >= len(c.periods) {
		return nil
	}
	return append([]Period(nil), c.periods[from:]...)
}

// DaysToNext returns the day distance from a period's start date to its
// successor's. The last period has no successor.
func (c *Chain) DaysToNext(id PeriodID) (int, bool) {
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.periods) {
		return 0, false
	}
	return DaysBetween(c.periods[i].StartDate, c.periods[i+1].StartDate), true
}

// Insert adds a period at its chronological position. The start date must
// be distinct from every existing one; ties would make the chain order
// ambiguous.
func (c *Chain) Insert(p Period) error {
	if _, exists := c.byID[p.ID]; exists {
		return &DuplicateError{Kind: "period", ID: string(p.ID)}
	}
	for _, q := range c.periods {
		if q.StartDate.Equal(p.StartDate) {
			return ErrOutOfOrder
		}
	}
	at := sort.Search(len(c.periods), func(i int) bool {
		return c.periods[i].StartDate.After(p.StartDate)
	})
	c.periods = append(c.periods, Period{})
	copy(c.periods[at+1:], c.periods[at:])
	c.periods[at] = p
	c.reindex()
	return nil
}

// Remove deletes the period with the given id and returns it.
func (c *Chain) Remove(id PeriodID) (Period, error) {
	i, ok := c.byID[id]
	if !ok {
		return Period{}, &NotFoundError{Kind: "period", ID: string(id)}
	}
	removed := c.periods[i]
	c.periods = append(c.periods[:i], c.periods[i+1:]...)
	c.reindex()
	return removed, nil
}

// ValidateStartDate checks that moving a period to a new start date keeps
// it between its neighbours.
func (c *Chain) ValidateStartDate(id PeriodID, date Date) error {
	i, ok := c.byID[id]
	if !ok {
		return &NotFoundError{Kind: "period", ID: string(id)}
	}
	if i > 0 && !date.After(c.periods[i-1].StartDate) {
		return ErrOutOfOrder
	}
	if i+1 < len(c.periods) && !date.Before(c.periods[i+1].StartDate) {
		return ErrOutOfOrder
	}
	return nil
}

// SetStartDate moves a period to a new start date.
func (c *Chain) SetStartDate(id PeriodID, date Date) error {
	if err := c.ValidateStartDate(id, date); err != nil {
		return err
	}
	c.periods[c.byID[id]].StartDate = date
	return nil
}

// =============================================================================
// APPLYING CANONICAL CHANGES
// =============================================================================

// ApplyBalances writes balance changes back into the chain.
func (c *Chain) ApplyBalances(changes []BalanceChange) error {
	for _, ch := range changes {
		i, ok := c.byID[ch.ID]
		if !ok {
			return &NotFoundError{Kind: "period", ID: string(ch.ID)}
		}
		c.periods[i].StartBalance = ch.StartBalance
		c.periods[i].EndBalance = ch.EndBalance
	}
	return nil
}

// ApplyReserves writes reserve changes back into the chain.
func (c *Chain) ApplyReserves(changes []ReserveChange) error {
	for _, ch := range changes {
		i, ok := c.byID[ch.ID]
		if !ok {
			return &NotFoundError{Kind: "period", ID: string(ch.ID)}
		}
		c.periods[i].Stock = ch.Stock
		c.periods[i].ForwardPayments = ch.ForwardPayments
	}
	return nil
}

// ApplyChanges writes combined balance+reserve changes back into the chain.
func (c *Chain) ApplyChanges(changes []PeriodChange) error {
	for _, ch := range changes {
		i, ok := c.byID[ch.ID]
		if !ok {
			return &NotFoundError{Kind: "period", ID: string(ch.ID)}
		}
		c.periods[i].StartBalance = ch.StartBalance
		c.periods[i].EndBalance = ch.EndBalance
		c.periods[i].Stock = ch.Stock
		c.periods[i].ForwardPayments = ch.ForwardPayments
	}
	return nil
}
