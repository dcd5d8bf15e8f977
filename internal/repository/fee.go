package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Fee is a one-shot gate on a user's account. A fee becomes required as a
// side effect of the pipeline (or an admin override) and stays required
// until explicitly paid or cleared.
type Fee struct {
	ID                   string         `db:"id"`
	UserID               string         `db:"user_id"`
	FeeType              string         `db:"fee_type"`
	Required             bool           `db:"required"`
	Amount               float64        `db:"amount"`
	Paid                 bool           `db:"paid"`
	PaidAt               sql.NullTime   `db:"paid_at"`
	TransactionReference sql.NullString `db:"transaction_reference"`
	Reason               sql.NullString `db:"reason"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            sql.NullTime   `db:"updated_at"`
}

const (
	FeeTypeActivation   = "activation"
	FeeTypeTaxClearance = "tax_clearance"
)

type FeeRepository interface {
	Get(userID, feeType string) (*Fee, bool, error)
	Require(userID, feeType string, amount float64, reason string, tx *sqlx.Tx) error
	Impose(userID, feeType string, amount float64, reason string, tx *sqlx.Tx) error
	MarkPaid(userID, feeType, reference string, tx *sqlx.Tx) error
	Clear(userID, feeType string) error
	GetAllByUserId(userID string) ([]Fee, error)
}

type FeeRepositoryImpl struct {
	db *sqlx.DB
}

func NewFeeRepository(db *sqlx.DB) FeeRepository {
	return &FeeRepositoryImpl{db: db}
}

func (repo *FeeRepositoryImpl) querier(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return repo.db
}

func (repo *FeeRepositoryImpl) Get(userID, feeType string) (*Fee, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var fee Fee

	query := `SELECT * FROM fees WHERE user_id = $1 AND fee_type = $2`

	err := repo.db.GetContext(ctx, &fee, query, userID, feeType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &fee, true, err
}

// Require creates or refreshes the obligation. An already-paid fee is left
// untouched so a later attempt cannot re-obligate the user.
func (repo *FeeRepositoryImpl) Require(userID, feeType string, amount float64, reason string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO fees (user_id, fee_type, required, amount, reason)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (user_id, fee_type) DO UPDATE
		SET required = TRUE, amount = EXCLUDED.amount, reason = EXCLUDED.reason, updated_at = NOW()
		WHERE fees.paid = FALSE`

	_, err := repo.querier(tx).ExecContext(ctx, query, userID, feeType, amount, reason)
	return err
}

// Impose writes a fresh obligation even over a previously settled one,
// clearing the paid state. Each ROI extraction owes its own tax clearance,
// so the gate closes again on every new cycle.
func (repo *FeeRepositoryImpl) Impose(userID, feeType string, amount float64, reason string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO fees (user_id, fee_type, required, amount, reason)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (user_id, fee_type) DO UPDATE
		SET required = TRUE, amount = EXCLUDED.amount, reason = EXCLUDED.reason,
		    paid = FALSE, paid_at = NULL, transaction_reference = NULL, updated_at = NOW()`

	_, err := repo.querier(tx).ExecContext(ctx, query, userID, feeType, amount, reason)
	return err
}

func (repo *FeeRepositoryImpl) MarkPaid(userID, feeType, reference string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE fees
		SET paid = TRUE, paid_at = NOW(), transaction_reference = $1, updated_at = NOW()
		WHERE user_id = $2 AND fee_type = $3 AND required = TRUE AND paid = FALSE`

	result, err := repo.querier(tx).ExecContext(ctx, query, reference, userID, feeType)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (repo *FeeRepositoryImpl) Clear(userID, feeType string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE fees
		SET required = FALSE, amount = 0, paid = FALSE, paid_at = NULL,
		    transaction_reference = NULL, reason = NULL, updated_at = NOW()
		WHERE user_id = $1 AND fee_type = $2`

	_, err := repo.db.ExecContext(ctx, query, userID, feeType)
	return err
}

func (repo *FeeRepositoryImpl) GetAllByUserId(userID string) ([]Fee, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var fees []Fee

	query := `SELECT * FROM fees WHERE user_id = $1 ORDER BY fee_type`

	err := repo.db.SelectContext(ctx, &fees, query, userID)
	if err != nil {
		return nil, err
	}

	return fees, nil
}
