package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type Ticket struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Subject   string       `db:"subject"`
	Status    string       `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

type TicketMessage struct {
	ID        string    `db:"id"`
	TicketID  string    `db:"ticket_id"`
	SenderID  string    `db:"sender_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	TicketOpenStatus   = "open"
	TicketClosedStatus = "closed"
)

type TicketRepository interface {
	Insert(ticket *Ticket) (string, error)
	GetOne(id string) (*Ticket, bool, error)
	GetAllByUserId(userID string, limit, offset int) ([]Ticket, error)
	GetAllByStatus(status string, limit, offset int) ([]Ticket, error)
	AddMessage(message *TicketMessage) (string, error)
	GetMessages(ticketID string) ([]TicketMessage, error)
	SetStatus(id, status string) error
}

type TicketRepositoryImpl struct {
	db *sqlx.DB
}

func NewTicketRepository(db *sqlx.DB) TicketRepository {
	return &TicketRepositoryImpl{db: db}
}

func (repo *TicketRepositoryImpl) Insert(ticket *Ticket) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO tickets (user_id, subject)
		VALUES ($1, $2)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query, ticket.UserID, ticket.Subject)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *TicketRepositoryImpl) GetOne(id string) (*Ticket, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var ticket Ticket

	query := `SELECT * FROM tickets WHERE id = $1`

	err := repo.db.GetContext(ctx, &ticket, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &ticket, true, err
}

func (repo *TicketRepositoryImpl) GetAllByUserId(userID string, limit, offset int) ([]Ticket, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var tickets []Ticket

	query := `
		SELECT * FROM tickets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &tickets, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (repo *TicketRepositoryImpl) GetAllByStatus(status string, limit, offset int) ([]Ticket, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var tickets []Ticket

	query := `
		SELECT * FROM tickets
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &tickets, query, status, limit, offset)
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (repo *TicketRepositoryImpl) AddMessage(message *TicketMessage) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO ticket_messages (ticket_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query, message.TicketID, message.SenderID, message.Body)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *TicketRepositoryImpl) GetMessages(ticketID string) ([]TicketMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var messages []TicketMessage

	query := `
		SELECT * FROM ticket_messages
		WHERE ticket_id = $1
		ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &messages, query, ticketID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (repo *TicketRepositoryImpl) SetStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE tickets SET status = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}
