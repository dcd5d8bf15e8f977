package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type KycRequirement struct {
	ID          string    `db:"id"`
	Requirement string    `db:"requirement"`
	CreatedAt   time.Time `db:"created_at"`
}

type KycDocument struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	RequirementID string         `db:"requirement_id"`
	DocumentURL   string         `db:"document_url"`
	Status        string         `db:"status"`
	ReviewedBy    sql.NullString `db:"reviewed_by"`
	ReviewedAt    sql.NullTime   `db:"reviewed_at"`
	CreatedAt     time.Time      `db:"created_at"`
}

const (
	KycDocumentPendingStatus  = "pending"
	KycDocumentApprovedStatus = "approved"
	KycDocumentRejectedStatus = "rejected"
)

type KycRepository interface {
	GetRequirements() ([]KycRequirement, error)
	UpsertRequirement(requirement string, tx *sqlx.Tx) error
	InsertDocument(document *KycDocument) (string, error)
	GetDocumentsByUser(userID string) ([]KycDocument, error)
	GetDocument(id string) (*KycDocument, bool, error)
	ReviewDocument(id, status, reviewerID string) (bool, error)
	CountApprovedDocuments(userID string) (int, error)
}

type KycRepositoryImpl struct {
	db *sqlx.DB
}

func NewKycRepository(db *sqlx.DB) KycRepository {
	return &KycRepositoryImpl{db: db}
}

func (repo *KycRepositoryImpl) GetRequirements() ([]KycRequirement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var requirements []KycRequirement

	query := `SELECT * FROM kyc_requirements ORDER BY requirement`

	err := repo.db.SelectContext(ctx, &requirements, query)
	if err != nil {
		return nil, err
	}

	return requirements, nil
}

func (repo *KycRepositoryImpl) UpsertRequirement(requirement string, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO kyc_requirements (requirement)
		VALUES ($1)
		ON CONFLICT (requirement) DO NOTHING`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, requirement)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, requirement)
	return err
}

func (repo *KycRepositoryImpl) InsertDocument(document *KycDocument) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO kyc_documents (user_id, requirement_id, document_url)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		document.UserID,
		document.RequirementID,
		document.DocumentURL,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *KycRepositoryImpl) GetDocumentsByUser(userID string) ([]KycDocument, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var documents []KycDocument

	query := `
		SELECT * FROM kyc_documents
		WHERE user_id = $1
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &documents, query, userID)
	if err != nil {
		return nil, err
	}

	return documents, nil
}

func (repo *KycRepositoryImpl) GetDocument(id string) (*KycDocument, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var document KycDocument

	query := `SELECT * FROM kyc_documents WHERE id = $1`

	err := repo.db.GetContext(ctx, &document, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &document, true, err
}

func (repo *KycRepositoryImpl) ReviewDocument(id, status, reviewerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE kyc_documents
		SET status = $1, reviewed_by = $2, reviewed_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := repo.db.ExecContext(ctx, query, status, reviewerID, id, KycDocumentPendingStatus)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (repo *KycRepositoryImpl) CountApprovedDocuments(userID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `SELECT COUNT(*) FROM kyc_documents WHERE user_id = $1 AND status = $2`

	err := repo.db.GetContext(ctx, &count, query, userID, KycDocumentApprovedStatus)
	if err != nil {
		return 0, err
	}

	return count, nil
}
