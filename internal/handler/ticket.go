package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/request"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/validator"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket is closed")
)

type TicketResponseData struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type TicketMessageResponseData struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type TicketHandler struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewTicketHandler(handler *TicketHandler) *TicketHandler {
	return &TicketHandler{
		TicketRepo:   handler.TicketRepo,
		ActivityRepo: handler.ActivityRepo,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

func ticketResponse(ticket *repository.Ticket) *TicketResponseData {
	return &TicketResponseData{
		ID:        ticket.ID,
		Subject:   ticket.Subject,
		Status:    ticket.Status,
		CreatedAt: ticket.CreatedAt.Format(time.RFC3339),
	}
}

func (h *TicketHandler) HandleOpenTicket(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Subject   string              `json:"subject"`
		Message   string              `json:"message"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.Subject), "Subject is required")
	input.Validator.Check(validator.NotBlank(input.Message), "Message is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	ticketID, err := h.TicketRepo.Insert(&repository.Ticket{
		UserID:  user.ID,
		Subject: input.Subject,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.TicketRepo.AddMessage(&repository.TicketMessage{
		TicketID: ticketID,
		SenderID: user.ID,
		Body:     input.Message,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogTicketEntity,
			EntityId:    &ticketID,
			Description: "Support ticket opened",
		})
		return err
	})

	message := "Ticket opened successfully"

	err = response.JSONCreatedResponse(w, map[string]any{"Id": ticketID}, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleMyTickets(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	tickets, err := h.TicketRepo.GetAllByUserId(user.ID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*TicketResponseData, len(tickets))
	for i := range tickets {
		data[i] = ticketResponse(&tickets[i])
	}

	message := "Tickets retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleTicketThread(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	ticket, found, err := h.TicketRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrTicketNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	// admins can read any thread
	if ticket.UserID != user.ID && user.Role != repository.UserRoleAdmin {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	messages, err := h.TicketRepo.GetMessages(ticket.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	messageData := make([]*TicketMessageResponseData, len(messages))
	for i, entry := range messages {
		messageData[i] = &TicketMessageResponseData{
			ID:        entry.ID,
			SenderID:  entry.SenderID,
			Body:      entry.Body,
			CreatedAt: entry.CreatedAt,
		}
	}

	message := "Ticket retrieved successfully"

	data := map[string]any{
		"Ticket":   ticketResponse(ticket),
		"Messages": messageData,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *TicketHandler) HandleReplyTicket(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Message   string              `json:"message"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.Message), "Message is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	ticket, found, err := h.TicketRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrTicketNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if ticket.UserID != user.ID && user.Role != repository.UserRoleAdmin {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	if ticket.Status == repository.TicketClosedStatus {
		response.JSONErrorResponse(w, nil, ErrTicketClosed.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	messageID, err := h.TicketRepo.AddMessage(&repository.TicketMessage{
		TicketID: ticket.ID,
		SenderID: user.ID,
		Body:     input.Message,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Reply added successfully"

	err = response.JSONCreatedResponse(w, map[string]any{"Id": messageID}, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
