package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/gate"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/request"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/validator"
)

type FeeHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
}

func NewFeeHandler(handler *FeeHandler) *FeeHandler {
	return &FeeHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
	}
}

// HandlePayActivationFee settles the activation gate. The platform does not
// verify the payment rail; the caller's transaction reference is stored and
// the fee flips to paid, unblocking ROI extraction.
func (h *FeeHandler) HandlePayActivationFee(w http.ResponseWriter, r *http.Request) {
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

	fee, found, err := h.DB.Fee().Get(user.ID, repository.FeeTypeActivation)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, gate.ErrFeeNotRequired.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if err := gate.SettleFee(fee.Required, fee.Paid); err != nil {
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	err = h.DB.Fee().MarkPaid(user.ID, repository.FeeTypeActivation, input.TransactionReference, nil)
	if err != nil {
		// lost to a concurrent settlement
		if errors.Is(err, sql.ErrNoRows) {
			response.JSONErrorResponse(w, nil, gate.ErrFeeAlreadyPaid.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogFeeEntity,
			EntityId:    &fee.ID,
			Description: "Activation fee paid",
		})

		if err != nil {
			log.Printf("Error logging activation fee payment: %v", err)
			return err
		}

		return nil
	})

	message := "Activation fee recorded; you can now extract your ROI"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandlePayTaxClearanceFee settles the tax gate on extracted ROI. When the
// locked balance covers the fee, the balance (less the fee) becomes a
// withdrawal in processing state that owes its own network fee, the next
// stage of the pipeline. The destination wallet for that withdrawal comes
// from this request.
func (h *FeeHandler) HandlePayTaxClearanceFee(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TransactionReference string              `json:"transaction_reference"`
		Currency             string              `json:"currency"`
		Network              string              `json:"network"`
		WalletAddress        string              `json:"wallet_address"`
		Validator            validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.TransactionReference), "Transaction reference is required")
	input.Validator.Check(validator.NotBlank(input.Network), "Network is required")
	input.Validator.Check(validator.NotBlank(input.WalletAddress), "Wallet address is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	fee, found, err := h.DB.Fee().Get(user.ID, repository.FeeTypeTaxClearance)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, gate.ErrFeeNotRequired.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if err := gate.SettleFee(fee.Required, fee.Paid); err != nil {
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	wallet, found, err := h.DB.Wallet().GetByUserID(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrWalletNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	settlement, settleErr := gate.SettleTaxClearance(wallet.LockedBalance, fee.Amount)

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

	err = h.DB.Fee().MarkPaid(user.ID, repository.FeeTypeTaxClearance, input.TransactionReference, tx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.JSONErrorResponse(w, nil, gate.ErrFeeAlreadyPaid.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// the locked balance can fall short only after an admin adjustment; the
	// fee still settles and support resolves the stranded balance
	if settleErr != nil {
		if err = tx.Commit(); err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		message := "Tax clearance fee recorded; no releasable balance at this time"
		err = response.JSONOkResponse(w, nil, message, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	lockedAfter, err := h.DB.Wallet().DebitLocked(user.ID, wallet.LockedBalance, tx)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			response.JSONErrorResponse(w, nil, gate.ErrInsufficientLocked.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	withdrawalID, err := h.DB.Withdrawal().Insert(&repository.Withdrawal{
		UserID:           user.ID,
		Amount:           settlement.NetAmount,
		Currency:         input.Currency,
		Network:          input.Network,
		WalletAddress:    input.WalletAddress,
		WithdrawalType:   repository.WithdrawalTypeROI,
		NetworkFeeAmount: settlement.NetworkFeeDue,
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Ledger().Insert(&repository.LedgerEntry{
		UserID:       user.ID,
		EntryType:    repository.LedgerEntryDebit,
		Bucket:       repository.LedgerBucketLocked,
		Amount:       wallet.LockedBalance,
		BalanceAfter: lockedAfter,
		Reason:       repository.LedgerReasonTaxClearance,
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
			Entity:      repository.ActivityLogFeeEntity,
			EntityId:    &fee.ID,
			Description: "Tax clearance fee paid",
		})
		return err
	})

	message := "Tax clearance fee recorded; pay the network fee to complete your withdrawal"

	data := map[string]any{
		"WithdrawalId":  withdrawalID,
		"NetAmount":     settlement.NetAmount,
		"NetworkFeeDue": settlement.NetworkFeeDue,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
