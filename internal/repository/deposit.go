package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Deposit struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Amount     float64        `db:"amount"`
	Currency   string         `db:"currency"`
	ProofURL   sql.NullString `db:"proof_url"`
	Reference  string         `db:"reference"`
	Status     string         `db:"status"`
	ReviewedBy sql.NullString `db:"reviewed_by"`
	ReviewedAt sql.NullTime   `db:"reviewed_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

const (
	DepositPendingStatus   = "pending"
	DepositConfirmedStatus = "confirmed"
	DepositRejectedStatus  = "rejected"
)

type DepositRepository interface {
	Insert(deposit *Deposit, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*Deposit, bool, error)
	GetAllByUserId(userID string, limit, offset int) ([]Deposit, error)
	GetPending(limit, offset int) ([]Deposit, error)
	Review(id, status, reviewerID string) (bool, error)
}

type DepositRepositoryImpl struct {
	db *sqlx.DB
}

func NewDepositRepository(db *sqlx.DB) DepositRepository {
	return &DepositRepositoryImpl{db: db}
}

func (repo *DepositRepositoryImpl) Insert(deposit *Deposit, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO deposits (user_id, amount, currency, proof_url, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	args := []any{
		deposit.UserID,
		deposit.Amount,
		deposit.Currency,
		deposit.ProofURL,
		deposit.Reference,
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

func (repo *DepositRepositoryImpl) GetOne(id string) (*Deposit, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var deposit Deposit

	query := `SELECT * FROM deposits WHERE id = $1`

	err := repo.db.GetContext(ctx, &deposit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &deposit, true, err
}

func (repo *DepositRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]Deposit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var deposits []Deposit

	query := `
		SELECT * FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &deposits, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return deposits, nil
}

func (repo *DepositRepositoryImpl) GetPending(limit, offset int) ([]Deposit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var deposits []Deposit

	query := `
		SELECT * FROM deposits
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &deposits, query, DepositPendingStatus, limit, offset)
	if err != nil {
		return nil, err
	}

	return deposits, nil
}

// Review moves a pending deposit to confirmed or rejected. It reports false
// when the deposit was already reviewed, so a double confirmation cannot
// credit twice.
func (repo *DepositRepositoryImpl) Review(id, status, reviewerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE deposits
		SET status = $1, reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := repo.db.ExecContext(ctx, query, status, reviewerID, id, DepositPendingStatus)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}
