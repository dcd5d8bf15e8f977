// Every balance movement is recorded as an immutable ledger entry alongside
// the conditional update that made it. The entries are never compacted, so
// the wallet balances can always be re-derived by folding them.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type LedgerEntry struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	EntryType    string    `db:"entry_type"`
	Bucket       string    `db:"bucket"`
	Amount       float64   `db:"amount"`
	BalanceAfter float64   `db:"balance_after"`
	Reason       string    `db:"reason"`
	Entity       string    `db:"entity"`
	EntityID     *string   `db:"entity_id"`
	CreatedAt    time.Time `db:"created_at"`
}

const (
	LedgerEntryCredit = "credit"
	LedgerEntryDebit  = "debit"

	LedgerBucketAvailable = "available"
	LedgerBucketLocked    = "locked"

	LedgerReasonDeposit          = "deposit_credited"
	LedgerReasonInvestment       = "investment_created"
	LedgerReasonROIExtraction    = "roi_extracted"
	LedgerReasonTaxClearance     = "tax_clearance_settled"
	LedgerReasonWithdrawal       = "withdrawal_created"
	LedgerReasonWithdrawalRefund = "withdrawal_rejected_refund"
	LedgerReasonAdminAdjustment  = "admin_adjustment"
)

type LedgerRepository interface {
	Insert(entry *LedgerEntry, tx *sqlx.Tx) (string, error)
	GetAllByUserId(userID string, limit, offset int) ([]LedgerEntry, error)
}

type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

func (repo *LedgerRepositoryImpl) Insert(entry *LedgerEntry, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO ledger_entries (user_id, entry_type, bucket, amount, balance_after, reason, entity, entity_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	args := []any{
		entry.UserID,
		entry.EntryType,
		entry.Bucket,
		entry.Amount,
		entry.BalanceAfter,
		entry.Reason,
		entry.Entity,
		entry.EntityID,
	}

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, args...)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *LedgerRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entries []LedgerEntry

	query := `
		SELECT * FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &entries, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
