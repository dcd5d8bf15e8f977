package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Wallet struct {
	ID               string       `db:"id"`
	UserID           string       `db:"user_id"`
	AvailableBalance float64      `db:"available_balance"`
	LockedBalance    float64      `db:"locked_balance"`
	Currency         string       `db:"currency"`
	Status           string       `db:"status"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
	DeletedAt        sql.NullTime `db:"deleted_at"`
}

const (
	WalletActiveStatus = "active"
	WalletOnHoldStatus = "on-hold"
)

// ErrInsufficientFunds is returned when a conditional debit does not match a
// row, i.e. the bucket does not hold the requested amount. The condition is
// enforced in the UPDATE itself so two concurrent debits can never both
// succeed past the balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

type WalletRepository interface {
	Insert(wallet *Wallet, tx *sqlx.Tx) (string, error)
	GetByUserID(userID string) (*Wallet, bool, error)
	CreditAvailable(userID string, amount float64, tx *sqlx.Tx) (float64, error)
	DebitAvailable(userID string, amount float64, tx *sqlx.Tx) (float64, error)
	CreditLocked(userID string, amount float64, tx *sqlx.Tx) (float64, error)
	DebitLocked(userID string, amount float64, tx *sqlx.Tx) (float64, error)
	Hold(id string) error
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

func (repo *WalletRepositoryImpl) querier(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return repo.db
}

func (repo *WalletRepositoryImpl) Insert(wallet *Wallet, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		RETURNING id`

	currency := wallet.Currency
	if currency == "" {
		currency = "USD"
	}

	err := sqlx.GetContext(ctx, repo.querier(tx), &id, query, wallet.UserID, currency)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *WalletRepositoryImpl) GetByUserID(userID string) (*Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet Wallet

	query := `SELECT * FROM wallets WHERE user_id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &wallet, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &wallet, true, err
}

func (repo *WalletRepositoryImpl) CreditAvailable(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var balance float64

	query := `
		UPDATE wallets
		SET available_balance = available_balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING available_balance`

	err := sqlx.GetContext(ctx, repo.querier(tx), &balance, query, amount, userID)
	return balance, err
}

func (repo *WalletRepositoryImpl) DebitAvailable(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var balance float64

	query := `
		UPDATE wallets
		SET available_balance = available_balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND available_balance >= $1
		RETURNING available_balance`

	err := sqlx.GetContext(ctx, repo.querier(tx), &balance, query, amount, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientFunds
	}

	return balance, err
}

func (repo *WalletRepositoryImpl) CreditLocked(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var balance float64

	query := `
		UPDATE wallets
		SET locked_balance = locked_balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING locked_balance`

	err := sqlx.GetContext(ctx, repo.querier(tx), &balance, query, amount, userID)
	return balance, err
}

func (repo *WalletRepositoryImpl) DebitLocked(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var balance float64

	query := `
		UPDATE wallets
		SET locked_balance = locked_balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND locked_balance >= $1
		RETURNING locked_balance`

	err := sqlx.GetContext(ctx, repo.querier(tx), &balance, query, amount, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientFunds
	}

	return balance, err
}

func (repo *WalletRepositoryImpl) Hold(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, WalletOnHoldStatus, id)
	return err
}
