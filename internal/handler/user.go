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

	"github.com/cradoe/gopass"
)

var ErrWalletNotFound = errors.New("wallet not found")

type UserResponseData struct {
	ID               string `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phone_number"`
	Gender           string `json:"gender"`
	KycStatus        string `json:"kyc_status"`
	HasWithdrawalPin bool   `json:"has_withdrawal_pin"`
	CreatedAt        string `json:"created_at"`
}

type WalletResponseData struct {
	ID               string    `json:"id"`
	AvailableBalance float64   `json:"available_balance"`
	LockedBalance    float64   `json:"locked_balance"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type UserHandler struct {
	UserRepo     repository.UserRepository
	WalletRepo   repository.WalletRepository
	LedgerRepo   repository.LedgerRepository
	FeeRepo      repository.FeeRepository
	ActivityRepo repository.ActivityRepository
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		UserRepo:     handler.UserRepo,
		WalletRepo:   handler.WalletRepo,
		LedgerRepo:   handler.LedgerRepo,
		FeeRepo:      handler.FeeRepo,
		ActivityRepo: handler.ActivityRepo,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	message := "Profile fetched successfully"

	data := &UserResponseData{
		ID:               user.ID,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		PhoneNumber:      user.PhoneNumber,
		Gender:           user.Gender,
		KycStatus:        user.KycStatus,
		HasWithdrawalPin: user.WithdrawalPin.Valid,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
	}

	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleSetWithdrawalPin stores the 6-digit credential that authorizes
// withdrawal creation. The PIN is hashed and never returned by any endpoint.
func (h *UserHandler) HandleSetWithdrawalPin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Pin       string              `json:"pin"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.Pin), "Pin is required")
	input.Validator.Check(validator.Matches(input.Pin, validator.RgxPin), "Pin must be exactly 6 digits")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	// changing the PIN requires the account password
	passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !passwordMatches {
		input.Validator.AddError("Incorrect password")
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPin, err := gopass.Hash(input.Pin)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.UserRepo.SetWithdrawalPin(user.ID, hashedPin)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    &user.ID,
			Description: "Withdrawal PIN changed",
		})
		return err
	})

	message := "Withdrawal PIN updated successfully"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *UserHandler) HandleWalletBalance(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, found, err := h.WalletRepo.GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	message := "Wallet fetched successfully"

	data := &WalletResponseData{
		ID:               wallet.ID,
		AvailableBalance: wallet.AvailableBalance,
		LockedBalance:    wallet.LockedBalance,
		Currency:         wallet.Currency,
		Status:           wallet.Status,
		CreatedAt:        wallet.CreatedAt,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type LedgerEntryResponseData struct {
	ID           string    `json:"id"`
	EntryType    string    `json:"entry_type"`
	Bucket       string    `json:"bucket"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *UserHandler) HandleLedgerHistory(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	entries, err := h.LedgerRepo.GetAllByUserId(user.ID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*LedgerEntryResponseData, len(entries))
	for i, entry := range entries {
		data[i] = &LedgerEntryResponseData{
			ID:           entry.ID,
			EntryType:    entry.EntryType,
			Bucket:       entry.Bucket,
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			Reason:       entry.Reason,
			CreatedAt:    entry.CreatedAt,
		}
	}

	message := "Ledger history retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type FeeResponseData struct {
	FeeType  string  `json:"fee_type"`
	Required bool    `json:"required"`
	Amount   float64 `json:"amount"`
	Paid     bool    `json:"paid"`
	Reason   string  `json:"reason,omitempty"`
}

func (h *UserHandler) HandleFees(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	fees, err := h.FeeRepo.GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*FeeResponseData, len(fees))
	for i, fee := range fees {
		data[i] = &FeeResponseData{
			FeeType:  fee.FeeType,
			Required: fee.Required,
			Amount:   fee.Amount,
			Paid:     fee.Paid,
			Reason:   fee.Reason.String,
		}
	}

	message := "Fees retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
