package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Withdrawal struct {
	ID                  string         `db:"id"`
	UserID              string         `db:"user_id"`
	Amount              float64        `db:"amount"`
	Currency            string         `db:"currency"`
	Network             string         `db:"network"`
	WalletAddress       string         `db:"wallet_address"`
	WithdrawalType      string         `db:"withdrawal_type"`
	Status              string         `db:"status"`
	NetworkFeeAmount    float64        `db:"network_fee_amount"`
	NetworkFeeStatus    string         `db:"network_fee_status"`
	NetworkFeeReference sql.NullString `db:"network_fee_reference"`
	ReviewedBy          sql.NullString `db:"reviewed_by"`
	ReviewedAt          sql.NullTime   `db:"reviewed_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           sql.NullTime   `db:"updated_at"`
}

// Withdrawal lifecycle: processing (network fee owed) -> pending (fee
// submitted, admin-reviewable) -> confirmed (approved) -> completed
// (disbursed), or rejected at review.
const (
	WithdrawalProcessingStatus = "processing"
	WithdrawalPendingStatus    = "pending"
	WithdrawalConfirmedStatus  = "confirmed"
	WithdrawalCompletedStatus  = "completed"
	WithdrawalRejectedStatus   = "rejected"

	WithdrawalTypeRegular = "regular"
	WithdrawalTypeROI     = "roi"

	NetworkFeeUnpaid              = "unpaid"
	NetworkFeePendingVerification = "pending_verification"
	NetworkFeeVerified            = "verified"
	NetworkFeeRejected            = "rejected"
)

type WithdrawalRepository interface {
	Insert(withdrawal *Withdrawal, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*Withdrawal, bool, error)
	GetAllByUserId(userID string, limit, offset int) ([]Withdrawal, error)
	GetAllByStatus(status string, limit, offset int) ([]Withdrawal, error)
	SubmitNetworkFee(id, reference string) (bool, error)
	ReviewNetworkFee(id, status, reviewerID string) (bool, error)
	Approve(id, reviewerID string) (bool, error)
	Complete(id string) (bool, error)
	Reject(id, reviewerID string, tx *sqlx.Tx) (bool, error)
}

type WithdrawalRepositoryImpl struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) WithdrawalRepository {
	return &WithdrawalRepositoryImpl{db: db}
}

func (repo *WithdrawalRepositoryImpl) querier(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return repo.db
}

func (repo *WithdrawalRepositoryImpl) Insert(withdrawal *Withdrawal, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO withdrawals (user_id, amount, currency, network, wallet_address, withdrawal_type, network_fee_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.querier(tx), &id, query,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.Currency,
		withdrawal.Network,
		withdrawal.WalletAddress,
		withdrawal.WithdrawalType,
		withdrawal.NetworkFeeAmount,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *WithdrawalRepositoryImpl) GetOne(id string) (*Withdrawal, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var withdrawal Withdrawal

	query := `SELECT * FROM withdrawals WHERE id = $1`

	err := repo.db.GetContext(ctx, &withdrawal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &withdrawal, true, err
}

func (repo *WithdrawalRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]Withdrawal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var withdrawals []Withdrawal

	query := `
		SELECT * FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &withdrawals, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

func (repo *WithdrawalRepositoryImpl) GetAllByStatus(status string, limit, offset int) ([]Withdrawal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var withdrawals []Withdrawal

	query := `
		SELECT * FROM withdrawals
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &withdrawals, query, status, limit, offset)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

// SubmitNetworkFee records the caller-supplied fee payment reference and
// moves the withdrawal into the admin review queue. The guard in the WHERE
// clause makes the submission one-shot.
func (repo *WithdrawalRepositoryImpl) SubmitNetworkFee(id, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawals
		SET network_fee_status = $1, network_fee_reference = $2, status = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5 AND network_fee_status = $6`

	result, err := repo.db.ExecContext(ctx, query,
		NetworkFeePendingVerification,
		reference,
		WithdrawalPendingStatus,
		id,
		WithdrawalProcessingStatus,
		NetworkFeeUnpaid,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (repo *WithdrawalRepositoryImpl) ReviewNetworkFee(id, status, reviewerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawals
		SET network_fee_status = $1, reviewed_by = $2, updated_at = NOW()
		WHERE id = $3 AND network_fee_status = $4`

	result, err := repo.db.ExecContext(ctx, query, status, reviewerID, id, NetworkFeePendingVerification)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// Approve requires the network fee to have been verified first.
func (repo *WithdrawalRepositoryImpl) Approve(id, reviewerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawals
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4 AND network_fee_status = $5`

	result, err := repo.db.ExecContext(ctx, query,
		WithdrawalConfirmedStatus,
		reviewerID,
		id,
		WithdrawalPendingStatus,
		NetworkFeeVerified,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (repo *WithdrawalRepositoryImpl) Complete(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawals
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := repo.db.ExecContext(ctx, query, WithdrawalCompletedStatus, id, WithdrawalConfirmedStatus)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// Reject can happen from processing or pending; the handler refunds the
// amount inside the same transaction.
func (repo *WithdrawalRepositoryImpl) Reject(id, reviewerID string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE withdrawals
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)`

	result, err := repo.querier(tx).ExecContext(ctx, query,
		WithdrawalRejectedStatus,
		reviewerID,
		id,
		WithdrawalProcessingStatus,
		WithdrawalPendingStatus,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}
