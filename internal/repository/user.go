package repository

import (
	"context"
	"database/sql"
	"errors"

	"time"

	"github.com/jmoiron/sqlx"
)

type User struct {
	ID             string         `db:"id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	PhoneNumber    string         `db:"phone_number"`
	Gender         string         `db:"gender"`
	Email          string         `db:"email"`
	HashedPassword string         `db:"hashed_password"`
	Role           string         `db:"role"`
	Status         string         `db:"status"`
	KycStatus      string         `db:"kyc_status"`
	WithdrawalPin  sql.NullString `db:"withdrawal_pin"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      sql.NullTime   `db:"updated_at"`
	VerifiedAt     sql.NullTime   `db:"verified_at"`
	DeletedAt      sql.NullTime   `db:"deleted_at"`
}

const (
	// UserAccountActiveStatus indicates that the user's account is active and fully functional.
	UserAccountActiveStatus = "active"

	// UserAccountLockedStatus indicates that the account has been locked,
	// either after repeated failed logins or by an operator. A locked
	// account cannot authenticate until unlocked.
	UserAccountLockedStatus = "locked"

	UserRoleCustomer = "user"
	UserRoleAdmin    = "admin"

	KycStatusUnverified = "unverified"
	KycStatusPending    = "pending"
	KycStatusVerified   = "verified"
	KycStatusRejected   = "rejected"
)

type UserRepository interface {
	Insert(user *User, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*User, bool, error)
	GetByEmail(email string) (*User, bool, error)
	CheckIfPhoneNumberExist(phoneNumber string) (bool, error)
	UpdatePassword(id, hashedPassword string) error
	SetWithdrawalPin(id, hashedPin string) error
	SetKycStatus(id, status string) error
	Lock(id string) error
	Unlock(id string) error
	List(limit, offset int) ([]User, error)
}

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(user *User, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO users (first_name, last_name, phone_number, gender, email, hashed_password, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	args := []any{
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Gender,
		user.Email,
		user.HashedPassword,
		UserRoleCustomer,
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

func (repo *UserRepositoryImpl) GetOne(id string) (*User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user User

	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user User

	query := `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone_number = $1)`

	err := repo.db.GetContext(ctx, &exists, query, phoneNumber)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *UserRepositoryImpl) UpdatePassword(id, hashedPassword string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, hashedPassword, id)
	return err
}

func (repo *UserRepositoryImpl) SetWithdrawalPin(id, hashedPin string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET withdrawal_pin = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, hashedPin, id)
	return err
}

func (repo *UserRepositoryImpl) SetKycStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET kyc_status = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}

func (repo *UserRepositoryImpl) Lock(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, UserAccountLockedStatus, id)
	return err
}

func (repo *UserRepositoryImpl) Unlock(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, UserAccountActiveStatus, id)
	return err
}

func (repo *UserRepositoryImpl) List(limit, offset int) ([]User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var users []User

	query := `
		SELECT * FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &users, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return users, nil
}
