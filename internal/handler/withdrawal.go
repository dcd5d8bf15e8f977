package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/arkvest/arkvest/internal/cache"
	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/gate"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/request"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/validator"

	"github.com/cradoe/gopass"
)

const (
	maxPinAttempts         = 5
	pinAttemptWindow       = 15 * time.Minute
	duplicateSubmitsWindow = 10 * time.Second
)

var (
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrPinNotSet           = errors.New("set a withdrawal PIN before withdrawing")
	ErrTooManyPinAttempts  = errors.New("too many PIN attempts, try again later")
	ErrDuplicateSubmission = errors.New("duplicate withdrawal submission")
)

type WithdrawalResponseData struct {
	ID               string  `json:"id"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Network          string  `json:"network"`
	WalletAddress    string  `json:"wallet_address"`
	WithdrawalType   string  `json:"withdrawal_type"`
	Status           string  `json:"status"`
	NetworkFeeAmount float64 `json:"network_fee_amount"`
	NetworkFeeStatus string  `json:"network_fee_status"`
	CreatedAt        string  `json:"created_at"`
}

type WithdrawalHandler struct {
	DB         repository.Database
	Cache      *cache.Cache
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
}

func NewWithdrawalHandler(handler *WithdrawalHandler) *WithdrawalHandler {
	return &WithdrawalHandler{
		DB:         handler.DB,
		Cache:      handler.Cache,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
	}
}

func withdrawalResponse(withdrawal *repository.Withdrawal) *WithdrawalResponseData {
	return &WithdrawalResponseData{
		ID:               withdrawal.ID,
		Amount:           withdrawal.Amount,
		Currency:         withdrawal.Currency,
		Network:          withdrawal.Network,
		WalletAddress:    withdrawal.WalletAddress,
		WithdrawalType:   withdrawal.WithdrawalType,
		Status:           withdrawal.Status,
		NetworkFeeAmount: withdrawal.NetworkFeeAmount,
		NetworkFeeStatus: withdrawal.NetworkFeeStatus,
		CreatedAt:        withdrawal.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCreateWithdrawal debits the available balance and opens a withdrawal
// in processing state with its network fee owed. The debit is a conditional
// update, so concurrent requests cannot overdraw the wallet; a short-lived
// Redis key rejects accidental double submissions.
func (h *WithdrawalHandler) HandleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Amount        float64             `json:"amount"`
		Currency      string              `json:"currency"`
		Network       string              `json:"network"`
		WalletAddress string              `json:"wallet_address"`
		Pin           string              `json:"pin"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(input.Amount > 0, "Amount is required")
	input.Validator.Check(validator.NotBlank(input.Network), "Network is required")
	input.Validator.Check(validator.NotBlank(input.WalletAddress), "Wallet address is required")
	input.Validator.Check(validator.NotBlank(input.Pin), "Withdrawal PIN is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if !user.WithdrawalPin.Valid {
		response.JSONErrorResponse(w, nil, ErrPinNotSet.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	attemptsKey := fmt.Sprintf("pin_attempts:%s", user.ID)

	attempts, err := h.Cache.Increment(attemptsKey, pinAttemptWindow)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if attempts > maxPinAttempts {
		response.JSONErrorResponse(w, nil, ErrTooManyPinAttempts.Error(), http.StatusTooManyRequests, nil)
		return
	}

	pinMatches, err := gopass.ComparePasswordAndHash(input.Pin, user.WithdrawalPin.String)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !pinMatches {
		h.Helper.BackgroundTask(r, func() error {
			_, err := h.DB.Activity().Insert(&repository.ActivityLog{
				UserID:      user.ID,
				Entity:      repository.ActivityLogUserEntity,
				EntityId:    &user.ID,
				Description: "Failed withdrawal PIN attempt",
			})
			return err
		})

		input.Validator.AddError("Incorrect withdrawal PIN")
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	// correct PIN resets the attempt counter
	if err := h.Cache.Delete(attemptsKey); err != nil {
		log.Printf("Error resetting PIN attempt counter: %v", err)
	}

	submitKey := fmt.Sprintf("withdrawal_submit:%s:%.2f", user.ID, input.Amount)

	claimed, err := h.Cache.SetIfNotExists(submitKey, "1", duplicateSubmitsWindow)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !claimed {
		response.JSONErrorResponse(w, nil, ErrDuplicateSubmission.Error(), http.StatusConflict, nil)
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

	balanceAfter, err := h.DB.Wallet().DebitAvailable(user.ID, input.Amount, tx)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			response.JSONErrorResponse(w, nil, ErrInsufficientBalance.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	networkFee := gate.NetworkFee(input.Amount)

	withdrawalID, err := h.DB.Withdrawal().Insert(&repository.Withdrawal{
		UserID:           user.ID,
		Amount:           input.Amount,
		Currency:         input.Currency,
		Network:          input.Network,
		WalletAddress:    input.WalletAddress,
		WithdrawalType:   repository.WithdrawalTypeRegular,
		NetworkFeeAmount: networkFee,
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Ledger().Insert(&repository.LedgerEntry{
		UserID:       user.ID,
		EntryType:    repository.LedgerEntryDebit,
		Bucket:       repository.LedgerBucketAvailable,
		Amount:       input.Amount,
		BalanceAfter: balanceAfter,
		Reason:       repository.LedgerReasonWithdrawal,
		Entity:       repository.ActivityLogWithdrawalEntity,
		EntityID:     &withdrawalID,
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogWithdrawalEntity,
			EntityId:    &withdrawalID,
			Description: "Withdrawal requested",
		})

		if err != nil {
			log.Printf("Error logging withdrawal request: %v", err)
			return err
		}

		return nil
	})

	message := "Withdrawal created; pay the network fee to proceed"

	data := map[string]any{
		"Id":            withdrawalID,
		"NetworkFeeDue": networkFee,
	}

	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *WithdrawalHandler) HandleMyWithdrawals(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	withdrawals, err := h.DB.Withdrawal().GetAllByUserId(user.ID, queryValues.Limit, queryValues.Offset)
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

func (h *WithdrawalHandler) HandleWithdrawalDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	withdrawal, found, err := h.DB.Withdrawal().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWithdrawalNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if withdrawal.UserID != user.ID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	message := "Withdrawal retrieved successfully"

	err = response.JSONOkResponse(w, withdrawalResponse(withdrawal), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSubmitNetworkFee records the user's claimed fee payment and moves the
// withdrawal into the admin review queue. The transition is one-shot at the
// database level; a second submission reports what actually blocked it.
func (h *WithdrawalHandler) HandleSubmitNetworkFee(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TransactionReference string              `json:"transaction_reference"`
		Validator            validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.TransactionReference), "Transaction reference is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	withdrawal, found, err := h.DB.Withdrawal().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWithdrawalNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if withdrawal.UserID != user.ID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	submitted, err := h.DB.Withdrawal().SubmitNetworkFee(withdrawal.ID, input.TransactionReference)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !submitted {
		var message string
		if withdrawal.NetworkFeeStatus != repository.NetworkFeeUnpaid {
			message = "Network fee has already been submitted for this withdrawal"
		} else {
			message = "Withdrawal is not awaiting a network fee"
		}
		response.JSONErrorResponse(w, nil, message, http.StatusUnprocessableEntity, nil)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogWithdrawalEntity,
			EntityId:    &withdrawal.ID,
			Description: "Network fee submitted",
		})
		return err
	})

	message := "Network fee submitted for verification"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
