package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/request"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/stream"
	"github.com/arkvest/arkvest/internal/validator"
	"github.com/arkvest/arkvest/internal/worker"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrKycDocumentNotFound = errors.New("KYC document not found")
)

type AdminHandler struct {
	DB         repository.Database
	Stream     *stream.KafkaStream
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
}

func NewAdminHandler(handler *AdminHandler) *AdminHandler {
	return &AdminHandler{
		DB:         handler.DB,
		Stream:     handler.Stream,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
	}
}

// audit writes the override trail in the background; failures are logged but
// never block the admin's request.
func (h *AdminHandler) audit(r *http.Request, action, entity string, entityID string, detail string) {
	actor := context.ContextGetAuthenticatedUser(r)

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Audit().Insert(&repository.AuditLog{
			ActorID:  actor.ID,
			Action:   action,
			Entity:   entity,
			EntityID: &entityID,
			Detail:   nullString(detail),
		})

		if err != nil {
			log.Printf("Error writing audit log: %v", err)
			return err
		}

		return nil
	})
}

type AdminUserResponseData struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	KycStatus string `json:"kyc_status"`
	CreatedAt string `json:"created_at"`
}

func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	users, err := h.DB.User().List(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*AdminUserResponseData, len(users))
	for i, user := range users {
		data[i] = &AdminUserResponseData{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Role:      user.Role,
			Status:    user.Status,
			KycStatus: user.KycStatus,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		}
	}

	message := "Users retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleLockUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	_, found, err := h.DB.User().GetOne(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrUserNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if err := h.DB.User().Lock(userID); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionUserLocked, repository.ActivityLogUserEntity, userID, "")

	message := "User locked"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleUnlockUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	_, found, err := h.DB.User().GetOne(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrUserNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if err := h.DB.User().Unlock(userID); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionUserUnlocked, repository.ActivityLogUserEntity, userID, "")

	message := "User unlocked"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandlePendingDeposits(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	deposits, err := h.DB.Deposit().GetPending(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*DepositResponseData, len(deposits))
	for i := range deposits {
		data[i] = depositResponse(&deposits[i])
	}

	message := "Pending deposits retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleReviewDeposit confirms or rejects a pending deposit. Confirmation
// does not credit the wallet directly; it publishes the deposit to Kafka and
// the credit worker applies the balance movement exactly once.
func (h *AdminHandler) HandleReviewDeposit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Action    string              `json:"action"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	admin := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.In(input.Action, "confirm", "reject"), "Action must be confirm or reject")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	deposit, found, err := h.DB.Deposit().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrDepositNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	status := repository.DepositConfirmedStatus
	auditAction := repository.AuditActionDepositConfirmed
	if input.Action == "reject" {
		status = repository.DepositRejectedStatus
		auditAction = repository.AuditActionDepositRejected
	}

	reviewed, err := h.DB.Deposit().Review(deposit.ID, status, admin.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !reviewed {
		message := "Deposit has already been reviewed"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	if status == repository.DepositConfirmedStatus {
		payload, err := json.Marshal(map[string]string{"deposit_id": deposit.ID})
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		if err := h.Stream.ProduceMessage(worker.DepositConfirmedTopic, string(payload)); err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	}

	h.audit(r, auditAction, repository.ActivityLogDepositEntity, deposit.ID,
		fmt.Sprintf("amount %.2f %s", deposit.Amount, deposit.Currency))

	message := "Deposit " + status

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleWithdrawalQueue(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	status := r.URL.Query().Get("status")
	if status == "" {
		status = repository.WithdrawalPendingStatus
	}

	withdrawals, err := h.DB.Withdrawal().GetAllByStatus(status, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*WithdrawalResponseData, len(withdrawals))
	for i := range withdrawals {
		data[i] = withdrawalResponse(&withdrawals[i])
	}

	message := "Withdrawals retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleReviewNetworkFee settles the operator's verdict on a submitted
// network fee reference. Verification is what makes the withdrawal
// approvable.
func (h *AdminHandler) HandleReviewNetworkFee(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Action    string              `json:"action"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	admin := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.In(input.Action, "verify", "reject"), "Action must be verify or reject")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	withdrawalID := r.PathValue("id")

	status := repository.NetworkFeeVerified
	if input.Action == "reject" {
		status = repository.NetworkFeeRejected
	}

	reviewed, err := h.DB.Withdrawal().ReviewNetworkFee(withdrawalID, status, admin.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !reviewed {
		message := "Network fee is not awaiting verification"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	h.audit(r, repository.AuditActionNetworkFeeReviewed, repository.ActivityLogWithdrawalEntity, withdrawalID, input.Action)

	message := "Network fee " + status

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleApproveWithdrawal moves a reviewed withdrawal to confirmed and hands
// it to the disbursement worker over Kafka. Approval requires the network fee
// to be verified; the state machine enforces that in the update itself.
func (h *AdminHandler) HandleApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin := context.ContextGetAuthenticatedUser(r)

	withdrawalID := r.PathValue("id")

	approved, err := h.DB.Withdrawal().Approve(withdrawalID, admin.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !approved {
		message := "Withdrawal cannot be approved; it must be pending with a verified network fee"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	payload, err := json.Marshal(map[string]string{"withdrawal_id": withdrawalID})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err := h.Stream.ProduceMessage(worker.WithdrawalApprovedTopic, string(payload)); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionWithdrawalApproved, repository.ActivityLogWithdrawalEntity, withdrawalID, "")

	message := "Withdrawal approved for disbursement"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleRejectWithdrawal rejects a withdrawal and refunds its amount to the
// user's available balance in the same transaction.
func (h *AdminHandler) HandleRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin := context.ContextGetAuthenticatedUser(r)

	withdrawal, found, err := h.DB.Withdrawal().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWithdrawalNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rejected, err := h.DB.Withdrawal().Reject(withdrawal.ID, admin.ID, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !rejected {
		err = errors.New("withdrawal not rejectable")
		message := "Withdrawal cannot be rejected in its current state"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	balanceAfter, err := h.DB.Wallet().CreditAvailable(withdrawal.UserID, withdrawal.Amount, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Ledger().Insert(&repository.LedgerEntry{
		UserID:       withdrawal.UserID,
		EntryType:    repository.LedgerEntryCredit,
		Bucket:       repository.LedgerBucketAvailable,
		Amount:       withdrawal.Amount,
		BalanceAfter: balanceAfter,
		Reason:       repository.LedgerReasonWithdrawalRefund,
		Entity:       repository.ActivityLogWithdrawalEntity,
		EntityID:     &withdrawal.ID,
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionWithdrawalRejected, repository.ActivityLogWithdrawalEntity, withdrawal.ID,
		fmt.Sprintf("refunded %.2f", withdrawal.Amount))

	message := "Withdrawal rejected and refunded"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSetFee lets an operator impose or reprice a fee obligation directly.
func (h *AdminHandler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID    string              `json:"user_id"`
		FeeType   string              `json:"fee_type"`
		Amount    float64             `json:"amount"`
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.UserID), "User id is required")
	input.Validator.Check(validator.In(input.FeeType, repository.FeeTypeActivation, repository.FeeTypeTaxClearance), "Unknown fee type")
	input.Validator.Check(input.Amount > 0, "Amount is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	err = h.DB.Fee().Require(input.UserID, input.FeeType, input.Amount, input.Reason, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionFeeOverride, repository.ActivityLogFeeEntity, input.UserID,
		fmt.Sprintf("set %s to %.2f", input.FeeType, input.Amount))

	message := "Fee requirement set"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleClearFee(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID    string              `json:"user_id"`
		FeeType   string              `json:"fee_type"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.UserID), "User id is required")
	input.Validator.Check(validator.In(input.FeeType, repository.FeeTypeActivation, repository.FeeTypeTaxClearance), "Unknown fee type")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	err = h.DB.Fee().Clear(input.UserID, input.FeeType)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionFeeOverride, repository.ActivityLogFeeEntity, input.UserID,
		"cleared "+input.FeeType)

	message := "Fee requirement cleared"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleAdjustInvestmentValue overrides current_value directly. The change is
// recorded as an adjustment transaction so the value history stays auditable.
func (h *AdminHandler) HandleAdjustInvestmentValue(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Value     float64             `json:"value"`
		Reason    string              `json:"reason"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Value >= 0, "Value must not be negative")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	investment, found, err := h.DB.Investment().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = h.DB.Investment().UpdateValue(investment.ID, input.Value, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Investment().AppendTransaction(&repository.InvestmentTransaction{
		InvestmentID: investment.ID,
		TxType:       repository.InvestmentTxAdjustment,
		Amount:       input.Value - investment.CurrentValue,
		Description:  nullString(input.Reason),
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionValueAdjusted, repository.ActivityLogInvestmentEntity, investment.ID,
		fmt.Sprintf("%.2f -> %.2f", investment.CurrentValue, input.Value))

	message := "Investment value adjusted"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandlePushInvestmentTransaction appends a manual entry to an investment's
// transaction history without touching its value.
func (h *AdminHandler) HandlePushInvestmentTransaction(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TxType      string              `json:"tx_type"`
		Amount      float64             `json:"amount"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.In(input.TxType,
		repository.InvestmentTxDeposit,
		repository.InvestmentTxInterest,
		repository.InvestmentTxExtraction,
		repository.InvestmentTxAdjustment,
	), "Unknown transaction type")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	investment, found, err := h.DB.Investment().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	transactionID, err := h.DB.Investment().AppendTransaction(&repository.InvestmentTransaction{
		InvestmentID: investment.ID,
		TxType:       input.TxType,
		Amount:       input.Amount,
		Description:  nullString(input.Description),
	}, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionTransactionPushed, repository.ActivityLogInvestmentEntity, investment.ID,
		fmt.Sprintf("%s %.2f", input.TxType, input.Amount))

	message := "Transaction added to investment history"

	err = response.JSONCreatedResponse(w, map[string]any{"Id": transactionID}, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleReviewKycDocument approves or rejects one document. The user becomes
// verified once every seeded requirement has an approved document; a
// rejection sends their KYC status back to rejected.
func (h *AdminHandler) HandleReviewKycDocument(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Action    string              `json:"action"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	admin := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.In(input.Action, "approve", "reject"), "Action must be approve or reject")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	document, found, err := h.DB.Kyc().GetDocument(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrKycDocumentNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	status := repository.KycDocumentApprovedStatus
	if input.Action == "reject" {
		status = repository.KycDocumentRejectedStatus
	}

	reviewed, err := h.DB.Kyc().ReviewDocument(document.ID, status, admin.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !reviewed {
		message := "Document has already been reviewed"
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	if status == repository.KycDocumentRejectedStatus {
		err = h.DB.User().SetKycStatus(document.UserID, repository.KycStatusRejected)
	} else {
		var requirements []repository.KycRequirement
		var approved int

		requirements, err = h.DB.Kyc().GetRequirements()
		if err == nil {
			approved, err = h.DB.Kyc().CountApprovedDocuments(document.UserID)
		}
		if err == nil && approved >= len(requirements) {
			err = h.DB.User().SetKycStatus(document.UserID, repository.KycStatusVerified)
		}
	}
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.audit(r, repository.AuditActionKycReviewed, repository.ActivityLogUserEntity, document.UserID, input.Action)

	message := "Document " + status

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleOpenTickets(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	tickets, err := h.DB.Ticket().GetAllByStatus(repository.TicketOpenStatus, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*TicketResponseData, len(tickets))
	for i := range tickets {
		data[i] = ticketResponse(&tickets[i])
	}

	message := "Open tickets retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AdminHandler) HandleCloseTicket(w http.ResponseWriter, r *http.Request) {
	ticket, found, err := h.DB.Ticket().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrTicketNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if err := h.DB.Ticket().SetStatus(ticket.ID, repository.TicketClosedStatus); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Ticket closed"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type AuditLogResponseData struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  *string   `json:"entity_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AdminHandler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	logs, err := h.DB.Audit().List(queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*AuditLogResponseData, len(logs))
	for i, entry := range logs {
		data[i] = &AuditLogResponseData{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			Entity:    entry.Entity,
			EntityID:  entry.EntityID,
			Detail:    entry.Detail.String,
			CreatedAt: entry.CreatedAt,
		}
	}

	message := "Audit log retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
