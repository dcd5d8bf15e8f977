package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Investment struct {
	ID           string       `db:"id"`
	UserID       string       `db:"user_id"`
	PlanID       string       `db:"plan_id"`
	Amount       float64      `db:"amount"`
	CurrentValue float64      `db:"current_value"`
	Status       string       `db:"status"`
	RoiWithdrawn bool         `db:"roi_withdrawn"`
	MaturesAt    time.Time    `db:"matures_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

type InvestmentTransaction struct {
	ID           string         `db:"id"`
	InvestmentID string         `db:"investment_id"`
	TxType       string         `db:"tx_type"`
	Amount       float64        `db:"amount"`
	Description  sql.NullString `db:"description"`
	CreatedAt    time.Time      `db:"created_at"`
}

const (
	InvestmentActiveStatus    = "active"
	InvestmentCompletedStatus = "completed"

	InvestmentTxDeposit    = "deposit"
	InvestmentTxInterest   = "interest"
	InvestmentTxExtraction = "roi_extraction"
	InvestmentTxAdjustment = "admin_adjustment"
)

type InvestmentRepository interface {
	Insert(investment *Investment, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*Investment, bool, error)
	GetAllByUserId(userID string) ([]Investment, error)
	GetActive(limit int) ([]Investment, error)
	UpdateValue(id string, value float64, tx *sqlx.Tx) error
	Complete(id string, finalValue float64) error
	LatchRoiWithdrawn(id string, tx *sqlx.Tx) (bool, error)
	AppendTransaction(entry *InvestmentTransaction, tx *sqlx.Tx) (string, error)
	GetTransactions(investmentID string) ([]InvestmentTransaction, error)
}

type InvestmentRepositoryImpl struct {
	db *sqlx.DB
}

func NewInvestmentRepository(db *sqlx.DB) InvestmentRepository {
	return &InvestmentRepositoryImpl{db: db}
}

func (repo *InvestmentRepositoryImpl) querier(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return repo.db
}

func (repo *InvestmentRepositoryImpl) Insert(investment *Investment, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	// current_value starts at principal
	query := `
		INSERT INTO investments (user_id, plan_id, amount, current_value, matures_at)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.querier(tx), &id, query,
		investment.UserID,
		investment.PlanID,
		investment.Amount,
		investment.MaturesAt,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *InvestmentRepositoryImpl) GetOne(id string) (*Investment, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var investment Investment

	query := `SELECT * FROM investments WHERE id = $1`

	err := repo.db.GetContext(ctx, &investment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &investment, true, err
}

func (repo *InvestmentRepositoryImpl) GetAllByUserId(userID string) ([]Investment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var investments []Investment

	query := `
		SELECT * FROM investments
		WHERE user_id = $1
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &investments, query, userID)
	if err != nil {
		return nil, err
	}

	return investments, nil
}

func (repo *InvestmentRepositoryImpl) GetActive(limit int) ([]Investment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var investments []Investment

	query := `
		SELECT * FROM investments
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`

	err := repo.db.SelectContext(ctx, &investments, query, InvestmentActiveStatus, limit)
	if err != nil {
		return nil, err
	}

	return investments, nil
}

func (repo *InvestmentRepositoryImpl) UpdateValue(id string, value float64, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE investments SET current_value = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.querier(tx).ExecContext(ctx, query, value, id)
	return err
}

func (repo *InvestmentRepositoryImpl) Complete(id string, finalValue float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE investments
		SET status = $1, current_value = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	_, err := repo.db.ExecContext(ctx, query, InvestmentCompletedStatus, finalValue, id, InvestmentActiveStatus)
	return err
}

// LatchRoiWithdrawn flips the one-shot latch. The WHERE clause makes the
// latch first-writer-wins: of two concurrent extraction requests only one
// sees a matched row.
func (repo *InvestmentRepositoryImpl) LatchRoiWithdrawn(id string, tx *sqlx.Tx) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE investments
		SET roi_withdrawn = TRUE, updated_at = NOW()
		WHERE id = $1 AND roi_withdrawn = FALSE`

	result, err := repo.querier(tx).ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (repo *InvestmentRepositoryImpl) AppendTransaction(entry *InvestmentTransaction, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO investment_transactions (investment_id, tx_type, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.querier(tx), &id, query,
		entry.InvestmentID,
		entry.TxType,
		entry.Amount,
		entry.Description,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *InvestmentRepositoryImpl) GetTransactions(investmentID string) ([]InvestmentTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transactions []InvestmentTransaction

	query := `
		SELECT * FROM investment_transactions
		WHERE investment_id = $1
		ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &transactions, query, investmentID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
