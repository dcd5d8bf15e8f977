package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// AuditLog records every admin override: who did it, what it touched and a
// free-form detail string. Best effort, written from background tasks.
type AuditLog struct {
	ID        string         `db:"id"`
	ActorID   string         `db:"actor_id"`
	Action    string         `db:"action"`
	Entity    string         `db:"entity"`
	EntityID  *string        `db:"entity_id"`
	Detail    sql.NullString `db:"detail"`
	CreatedAt time.Time      `db:"created_at"`
}

const (
	AuditActionDepositConfirmed   = "deposit_confirmed"
	AuditActionDepositRejected    = "deposit_rejected"
	AuditActionWithdrawalApproved = "withdrawal_approved"
	AuditActionWithdrawalRejected = "withdrawal_rejected"
	AuditActionNetworkFeeReviewed = "network_fee_reviewed"
	AuditActionFeeOverride        = "fee_override"
	AuditActionValueAdjusted      = "investment_value_adjusted"
	AuditActionTransactionPushed  = "investment_transaction_pushed"
	AuditActionUserLocked         = "user_locked"
	AuditActionUserUnlocked       = "user_unlocked"
	AuditActionKycReviewed        = "kyc_reviewed"
)

type AuditRepository interface {
	Insert(log *AuditLog) (string, error)
	List(limit, offset int) ([]AuditLog, error)
}

type AuditRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (repo *AuditRepositoryImpl) Insert(log *AuditLog) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO audit_logs (actor_id, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		log.ActorID,
		log.Action,
		log.Entity,
		log.EntityID,
		log.Detail,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *AuditRepositoryImpl) List(limit, offset int) ([]AuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var logs []AuditLog

	query := `
		SELECT * FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	err := repo.db.SelectContext(ctx, &logs, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return logs, nil
}
