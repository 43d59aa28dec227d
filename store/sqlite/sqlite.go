/*
Package sqlite provides a SQLite-backed implementation of the persistence
boundary.

PURPOSE:
  Implements finance.Persistence using SQLite, plus the bootstrap queries
  the server uses to rebuild the in-memory chain and ledger on startup.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  finance.Persistence: period and cashflow mutations

KEY TABLES:
  periods:  one row per budget period (balances and reserves as TEXT
            decimals, start_date as YYYY-MM-DD)
  cashflow: one row per ledger entry, FK to its period

ECHO SHAPE:
  Every mutation returns its canonical input back to the caller, with
  identifiers generated for creations. The coordinator applies the
  RETURNED values, never its own input.

DECIMAL STORAGE:
  All monetary values are stored as decimal strings (TEXT), never REAL.
  Binary floats cannot represent amounts like 0.1 exactly; round-tripping
  through TEXT preserves the exact value.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - finance/store.go: Interface definition
  - finance/store/echo.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/finance"
)

// Store implements finance.Persistence using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	seq int64
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Budget periods (one row per period, balances mutate in place)
	CREATE TABLE IF NOT EXISTS periods (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		start_balance TEXT NOT NULL,
		end_balance TEXT NOT NULL,
		stock TEXT NOT NULL,
		forward_payments TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_periods_user
		ON periods(user_id);

	-- No two periods may open on the same day for the same user
	CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_user_start
		ON periods(user_id, start_date);

	-- Cashflow entries
	CREATE TABLE IF NOT EXISTS cashflow (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
		tx_type TEXT NOT NULL,
		title TEXT NOT NULL,
		amount TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cashflow_period
		ON cashflow(period_id);
	CREATE INDEX IF NOT EXISTS idx_cashflow_period_type
		ON cashflow(period_id, tx_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), s.seq)
}

// =============================================================================
// PERIODS (finance.Persistence interface)
// =============================================================================

// CreatePeriod inserts a new period row and returns the materialized period.
func (s *Store) CreatePeriod(ctx context.Context, draft finance.PeriodDraft) (finance.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	period := draft.Period(finance.PeriodID(s.nextID("per")))

	query := `
		INSERT INTO periods
		(id, user_id, start_date, start_balance, end_balance, stock, forward_payments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		period.ID,
		period.UserID,
		period.StartDate.String(),
		period.StartBalance.String(),
		period.EndBalance.String(),
		period.Stock.String(),
		period.ForwardPayments.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return finance.Period{}, fmt.Errorf("failed to insert period: %w", err)
	}

	return period, nil
}

// UpdatePeriodStartDate persists a start date change.
func (s *Store) UpdatePeriodStartDate(ctx context.Context, update finance.StartDateUpdate) (finance.StartDateUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE periods SET start_date = ? WHERE id = ?",
		update.NewStartDate.String(), update.PeriodID,
	)
	if err != nil {
		return finance.StartDateUpdate{}, fmt.Errorf("failed to update start date: %w", err)
	}
	if err := requireRow(res, "period", string(update.PeriodID)); err != nil {
		return finance.StartDateUpdate{}, err
	}

	return update, nil
}

// UpdatePeriodBalances persists new opening/closing balances atomically.
func (s *Store) UpdatePeriodBalances(ctx context.Context, changes []finance.BalanceChange) ([]finance.BalanceChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ch := range changes {
			res, err := tx.ExecContext(ctx,
				"UPDATE periods SET start_balance = ?, end_balance = ? WHERE id = ?",
				ch.StartBalance.String(), ch.EndBalance.String(), ch.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update balances: %w", err)
			}
			if err := requireRow(res, "period", string(ch.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// UpdatePeriodReserves persists new reserve levels atomically.
func (s *Store) UpdatePeriodReserves(ctx context.Context, changes []finance.ReserveChange) ([]finance.ReserveChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ch := range changes {
			res, err := tx.ExecContext(ctx,
				"UPDATE periods SET stock = ?, forward_payments = ? WHERE id = ?",
				ch.Stock.String(), ch.ForwardPayments.String(), ch.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update reserves: %w", err)
			}
			if err := requireRow(res, "period", string(ch.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// UpdatePeriodCompensation persists combined balance+reserve changes atomically.
func (s *Store) UpdatePeriodCompensation(ctx context.Context, changes []finance.PeriodChange) ([]finance.PeriodChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ch := range changes {
			res, err := tx.ExecContext(ctx,
				`UPDATE periods SET start_balance = ?, end_balance = ?, stock = ?, forward_payments = ?
				 WHERE id = ?`,
				ch.StartBalance.String(), ch.EndBalance.String(),
				ch.Stock.String(), ch.ForwardPayments.String(), ch.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update period: %w", err)
			}
			if err := requireRow(res, "period", string(ch.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// DeletePeriod removes a period row. Its cashflow rows cascade.
func (s *Store) DeletePeriod(ctx context.Context, id finance.PeriodID) (finance.PeriodID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM periods WHERE id = ?", id)
	if err != nil {
		return "", fmt.Errorf("failed to delete period: %w", err)
	}
	if err := requireRow(res, "period", string(id)); err != nil {
		return "", err
	}

	return id, nil
}

// =============================================================================
// CASHFLOW (finance.Persistence interface)
// =============================================================================

// CreateTransaction inserts a new ledger entry and returns it with its id.
func (s *Store) CreateTransaction(ctx context.Context, draft finance.ItemDraft) (finance.CashflowItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := draft.Item(finance.ItemID(s.nextID("txn")))

	query := `
		INSERT INTO cashflow (id, period_id, tx_type, title, amount, entry_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.PeriodID,
		string(item.Type),
		item.Title,
		item.Amount.String(),
		item.Date.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return finance.CashflowItem{}, fmt.Errorf("failed to insert cashflow entry: %w", err)
	}

	return item, nil
}

// UpdateTransactionField persists a field-level entry edit.
func (s *Store) UpdateTransactionField(ctx context.Context, update finance.TransactionFieldUpdate) (finance.TransactionFieldUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	var err error
	switch update.Field {
	case finance.FieldTitle:
		res, err = s.db.ExecContext(ctx,
			"UPDATE cashflow SET title = ? WHERE id = ?", update.Title, update.ItemID)
	case finance.FieldAmount:
		res, err = s.db.ExecContext(ctx,
			"UPDATE cashflow SET amount = ? WHERE id = ?", update.Amount.String(), update.ItemID)
	case finance.FieldDate:
		res, err = s.db.ExecContext(ctx,
			"UPDATE cashflow SET entry_date = ? WHERE id = ?", update.Date.String(), update.ItemID)
	default:
		return finance.TransactionFieldUpdate{}, finance.ErrUneditableEntry
	}
	if err != nil {
		return finance.TransactionFieldUpdate{}, fmt.Errorf("failed to update cashflow entry: %w", err)
	}
	if err := requireRow(res, "cashflow entry", string(update.ItemID)); err != nil {
		return finance.TransactionFieldUpdate{}, err
	}

	return update, nil
}

// DeleteTransactions removes a batch of entries atomically and returns
// the deleted ids.
func (s *Store) DeleteTransactions(ctx context.Context, ids []finance.ItemID) ([]finance.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, "DELETE FROM cashflow WHERE id = ?", id)
			if err != nil {
				return fmt.Errorf("failed to delete cashflow entry: %w", err)
			}
			if err := requireRow(res, "cashflow entry", string(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// =============================================================================
// BOOTSTRAP QUERIES
// =============================================================================

// LoadPeriods returns every stored period ordered by start date. The
// server rebuilds its in-memory chain from this on startup.
func (s *Store) LoadPeriods(ctx context.Context) ([]finance.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, start_date, start_balance, end_balance, stock, forward_payments
		FROM periods
		ORDER BY start_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []finance.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// LoadCashflow returns every stored ledger entry ordered by date.
func (s *Store) LoadCashflow(ctx context.Context) ([]finance.CashflowItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, period_id, tx_type, title, amount, entry_date
		FROM cashflow
		ORDER BY entry_date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cashflow: %w", err)
	}
	defer rows.Close()

	var items []finance.CashflowItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// requireRow turns a zero-row UPDATE/DELETE into a not-found error so the
// coordinator never applies a change the database silently ignored.
func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &finance.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func scanPeriod(rows *sql.Rows) (finance.Period, error) {
	var (
		p                        finance.Period
		startDate                string
		startBalance, endBalance string
		stock, forwardPayments   string
	)

	err := rows.Scan(&p.ID, &p.UserID, &startDate, &startBalance, &endBalance, &stock, &forwardPayments)
	if err != nil {
		return p, fmt.Errorf("failed to scan period: %w", err)
	}

	if p.StartDate, err = finance.ParseDate(startDate); err != nil {
		return p, fmt.Errorf("failed to parse period start date: %w", err)
	}
	if p.StartBalance, err = decimal.NewFromString(startBalance); err != nil {
		return p, fmt.Errorf("failed to parse start balance: %w", err)
	}
	if p.EndBalance, err = decimal.NewFromString(endBalance); err != nil {
		return p, fmt.Errorf("failed to parse end balance: %w", err)
	}
	if p.Stock, err = decimal.NewFromString(stock); err != nil {
		return p, fmt.Errorf("failed to parse stock: %w", err)
	}
	if p.ForwardPayments, err = decimal.NewFromString(forwardPayments); err != nil {
		return p, fmt.Errorf("failed to parse forward payments: %w", err)
	}

	return p, nil
}

func scanItem(rows *sql.Rows) (finance.CashflowItem, error) {
	var (
		item      finance.CashflowItem
		txType    string
		amount    string
		entryDate string
	)

	err := rows.Scan(&item.ID, &item.PeriodID, &txType, &item.Title, &amount, &entryDate)
	if err != nil {
		return item, fmt.Errorf("failed to scan cashflow entry: %w", err)
	}

	item.Type = finance.TransactionType(txType)
	if item.Amount, err = decimal.NewFromString(amount); err != nil {
		return item, fmt.Errorf("failed to parse amount: %w", err)
	}
	if item.Date, err = finance.ParseDate(entryDate); err != nil {
		return item, fmt.Errorf("failed to parse entry date: %w", err)
	}

	return item, nil
}
