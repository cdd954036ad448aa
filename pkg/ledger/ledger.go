package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nexmind-one/nexmind/pkg/models"
)

// ErrInsufficientBalance is returned when a debit would take an account
// below zero. The account is left untouched.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Store manages per-user token balances.
type Store interface {
	// Balance returns the current balance, applying any due free allowance
	// grant first. Unknown users are created with the free allowance.
	Balance(ctx context.Context, userID string) (int64, error)

	// Debit atomically subtracts units from the balance and returns the
	// remainder, or ErrInsufficientBalance without changing anything.
	Debit(ctx context.Context, userID string, units int64) (int64, error)

	// Credit adds units to the balance and returns the new total.
	Credit(ctx context.Context, userID string, units int64) (int64, error)

	// Account returns the full account row.
	Account(ctx context.Context, userID string) (*models.Account, error)

	// MarkEventProcessed durably records a payment event ID and reports
	// whether it was already processed. Redelivered events are applied at
	// most once even across restarts.
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// SQLiteStore is the SQLite-backed Store. Debits use a conditional UPDATE
// so concurrent requests can never drive a balance negative.
type SQLiteStore struct {
	db            *sql.DB
	freeAllowance int64

	// now is swapped out in tests to control the grant window.
	now func() time.Time
}

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	balance INTEGER NOT NULL CHECK (balance >= 0),
	last_grant_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS processed_events (
	event_id TEXT PRIMARY KEY,
	processed_at DATETIME NOT NULL
);
`

// grantInterval is how often the free allowance tops an account back up.
const grantInterval = 24 * time.Hour

// New opens the ledger database and creates the schema.
func New(dbPath string, freeAllowance int64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec(createAccountsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}

	return &SQLiteStore{db: db, freeAllowance: freeAllowance, now: time.Now}, nil
}

// ensure creates the account if missing and applies a due allowance grant.
func (s *SQLiteStore) ensure(ctx context.Context, userID string) error {
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO accounts (user_id, balance, last_grant_at) VALUES (?, ?, ?)`,
		userID, s.freeAllowance, now,
	)
	if err != nil {
		return fmt.Errorf("ledger ensure account: %w", err)
	}

	cutoff := now.Add(-grantInterval)
	_, err = s.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + ?, last_grant_at = ?
		 WHERE user_id = ? AND last_grant_at <= ?`,
		s.freeAllowance, now, userID, cutoff,
	)
	if err != nil {
		return fmt.Errorf("ledger apply grant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Balance(ctx context.Context, userID string) (int64, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE user_id = ?`, userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStore) Debit(ctx context.Context, userID string, units int64) (int64, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance - ?
		 WHERE user_id = ? AND balance >= ?
		 RETURNING balance`,
		units, userID, units,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("ledger debit: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStore) Credit(ctx context.Context, userID string, units int64) (int64, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + ?
		 WHERE user_id = ?
		 RETURNING balance`,
		units, userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ledger credit: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStore) Account(ctx context.Context, userID string) (*models.Account, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return nil, err
	}

	var acct models.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, balance, last_grant_at FROM accounts WHERE user_id = ?`, userID,
	).Scan(&acct.UserID, &acct.Balance, &acct.LastGrantAt)
	if err != nil {
		return nil, fmt.Errorf("ledger account: %w", err)
	}
	return &acct, nil
}

func (s *SQLiteStore) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_events (event_id, processed_at) VALUES (?, ?)`,
		eventID, s.now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("ledger mark event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ledger mark event: %w", err)
	}
	return n == 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
