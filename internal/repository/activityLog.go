// Logging is a critical part of the system.
// Every customer-visible action (synchronous or asynchronous) should be
// logged; the entries back the account activity feed and support audits.
// Entity and entity_id are polymorphic so the table serves every part of
// the application.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type ActivityLog struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Entity      string    `db:"entity"`
	EntityId    *string   `db:"entity_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

const (
	ActivityLogUserEntity       = "user"
	ActivityLogWalletEntity     = "wallet"
	ActivityLogDepositEntity    = "deposit"
	ActivityLogInvestmentEntity = "investment"
	ActivityLogWithdrawalEntity = "withdrawal"
	ActivityLogFeeEntity        = "fee"
	ActivityLogTicketEntity     = "ticket"
)

type ActivityRepository interface {
	Insert(log *ActivityLog) (*ActivityLog, error)
	CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int
	GetAllByUserId(userID string, limit, offset int) ([]ActivityLog, error)
}

type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *ActivityLog) (*ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := repo.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return nil, err
	}

	return log, nil
}

// CountConsecutiveFailedLoginAttempts counts the failed-login entries since
// the last successful login. Errors deliberately read as zero; the lockout
// is best effort.
func (repo *ActivityRepositoryImpl) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `
		SELECT COUNT(*) FROM activity_logs
		WHERE user_id = $1
		AND description = $2
		AND created_at > COALESCE(
			(SELECT MAX(created_at) FROM activity_logs WHERE user_id = $1 AND description != $2),
			'-infinity'::timestamptz
		)`

	err := repo.db.GetContext(ctx, &count, query, userID, actionDesc)
	if err != nil {
		return 0
	}

	return count
}

func (repo *ActivityRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var logs []ActivityLog

	query := `
		SELECT * FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &logs, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return logs, nil
}
