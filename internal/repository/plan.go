package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Plan struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	MinAmount     float64   `db:"min_amount"`
	MaxAmount     float64   `db:"max_amount"`
	PercentReturn float64   `db:"percent_return"`
	DurationDays  int       `db:"duration_days"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

const (
	PlanActiveStatus  = "active"
	PlanRetiredStatus = "retired"
)

type PlanRepository interface {
	GetAllActive() ([]Plan, error)
	GetOne(id string) (*Plan, bool, error)
	Upsert(plan *Plan, tx *sqlx.Tx) error
}

type PlanRepositoryImpl struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

func (repo *PlanRepositoryImpl) GetAllActive() ([]Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var plans []Plan

	query := `SELECT * FROM plans WHERE status = $1 ORDER BY min_amount`

	err := repo.db.SelectContext(ctx, &plans, query, PlanActiveStatus)
	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (repo *PlanRepositoryImpl) GetOne(id string) (*Plan, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var plan Plan

	query := `SELECT * FROM plans WHERE id = $1`

	err := repo.db.GetContext(ctx, &plan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &plan, true, err
}

func (repo *PlanRepositoryImpl) Upsert(plan *Plan, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO plans (name, min_amount, max_amount, percent_return, duration_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING`

	args := []any{plan.Name, plan.MinAmount, plan.MaxAmount, plan.PercentReturn, plan.DurationDays}

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, args...)
	return err
}
