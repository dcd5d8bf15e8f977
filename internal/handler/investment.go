package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/gate"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/request"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/validator"
)

var (
	ErrPlanNotFound        = errors.New("investment plan not found")
	ErrInvestmentNotFound  = errors.New("investment not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type InvestmentResponseData struct {
	ID           string  `json:"id"`
	PlanID       string  `json:"plan_id"`
	Amount       float64 `json:"amount"`
	CurrentValue float64 `json:"current_value"`
	Status       string  `json:"status"`
	RoiWithdrawn bool    `json:"roi_withdrawn"`
	MaturesAt    string  `json:"matures_at"`
	CreatedAt    string  `json:"created_at"`
}

type InvestmentTransactionResponseData struct {
	ID          string    `json:"id"`
	TxType      string    `json:"tx_type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type InvestmentHandler struct {
	DB         repository.Database
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
}

func NewInvestmentHandler(handler *InvestmentHandler) *InvestmentHandler {
	return &InvestmentHandler{
		DB:         handler.DB,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
	}
}

func investmentResponse(investment *repository.Investment) *InvestmentResponseData {
	return &InvestmentResponseData{
		ID:           investment.ID,
		PlanID:       investment.PlanID,
		Amount:       investment.Amount,
		CurrentValue: investment.CurrentValue,
		Status:       investment.Status,
		RoiWithdrawn: investment.RoiWithdrawn,
		MaturesAt:    investment.MaturesAt.Format(time.RFC3339),
		CreatedAt:    investment.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCreateInvestment moves funds from the available balance into a new
// investment on the selected plan. The debit is conditional on sufficient
// balance, so two rapid submissions cannot both draw from the same funds.
func (h *InvestmentHandler) HandleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlanID    string              `json:"plan_id"`
		Amount    float64             `json:"amount"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	input.Validator.Check(validator.NotBlank(input.PlanID), "Plan is required")
	input.Validator.Check(input.Amount > 0, "Amount is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	plan, found, err := h.DB.Plan().GetOne(input.PlanID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found || plan.Status != repository.PlanActiveStatus {
		response.JSONErrorResponse(w, nil, ErrPlanNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	input.Validator.Check(input.Amount >= plan.MinAmount, "Amount is below the plan minimum")
	input.Validator.Check(input.Amount <= plan.MaxAmount, "Amount is above the plan maximum")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
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

	investmentID, err := h.DB.Investment().Insert(&repository.Investment{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Amount:    input.Amount,
		MaturesAt: time.Now().AddDate(0, 0, plan.DurationDays),
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
		Reason:       repository.LedgerReasonInvestment,
		Entity:       repository.ActivityLogInvestmentEntity,
		EntityID:     &investmentID,
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Investment().AppendTransaction(&repository.InvestmentTransaction{
		InvestmentID: investmentID,
		TxType:       repository.InvestmentTxDeposit,
		Amount:       input.Amount,
		Description:  nullString("Principal deposit into " + plan.Name),
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
			Entity:      repository.ActivityLogInvestmentEntity,
			EntityId:    &investmentID,
			Description: "Investment created",
		})

		if err != nil {
			log.Printf("Error logging investment creation: %v", err)
			return err
		}

		return nil
	})

	message := "Investment created successfully"

	err = response.JSONCreatedResponse(w, map[string]any{"Id": investmentID}, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *InvestmentHandler) HandleMyInvestments(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	investments, err := h.DB.Investment().GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*InvestmentResponseData, len(investments))
	for i := range investments {
		data[i] = investmentResponse(&investments[i])
	}

	message := "Investments retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *InvestmentHandler) HandleInvestmentDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	investmentID := r.PathValue("id")

	investment, found, err := h.DB.Investment().GetOne(investmentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if investment.UserID != user.ID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	transactions, err := h.DB.Investment().GetTransactions(investment.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	txData := make([]*InvestmentTransactionResponseData, len(transactions))
	for i, entry := range transactions {
		txData[i] = &InvestmentTransactionResponseData{
			ID:          entry.ID,
			TxType:      entry.TxType,
			Amount:      entry.Amount,
			Description: entry.Description.String,
			CreatedAt:   entry.CreatedAt,
		}
	}

	message := "Investment retrieved successfully"

	data := map[string]any{
		"Investment":   investmentResponse(investment),
		"Transactions": txData,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleExtractROI realizes the return on a matured investment.
//
// When the profit exceeds the activation margin and the activation fee is
// unpaid, the request is refused and the fee obligation is written in the
// same breath; the rejection itself is what obligates the user. A permitted
// extraction latches roi_withdrawn, credits the locked balance and creates
// the tax-clearance obligation, all in one transaction.
func (h *InvestmentHandler) HandleExtractROI(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	investmentID := r.PathValue("id")

	investment, found, err := h.DB.Investment().GetOne(investmentID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrInvestmentNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if investment.UserID != user.ID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	activationFee, feeFound, err := h.DB.Fee().Get(user.ID, repository.FeeTypeActivation)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	activationFeePaid := feeFound && activationFee.Paid

	decision, err := gate.EvaluateExtraction(
		investment.Amount,
		investment.CurrentValue,
		investment.Status == repository.InvestmentCompletedStatus,
		investment.RoiWithdrawn,
		activationFeePaid,
	)
	if err != nil {
		response.JSONErrorResponse(w, nil, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if !decision.Permitted() {
		// the attempt creates (or refreshes) the obligation
		err = h.DB.Fee().Require(user.ID, repository.FeeTypeActivation, decision.ActivationFeeDue,
			"Account activation fee on realized ROI", nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		errorData := map[string]any{
			"fee_type":   repository.FeeTypeActivation,
			"fee_amount": decision.ActivationFeeDue,
		}
		message := "Activation fee is required before ROI can be extracted"
		response.JSONErrorResponse(w, errorData, message, http.StatusPaymentRequired, nil)
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

	// first-writer-wins; a concurrent duplicate sees the latch closed
	latched, err := h.DB.Investment().LatchRoiWithdrawn(investment.ID, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !latched {
		err = gate.ErrROIAlreadyWithdrawn
		response.JSONErrorResponse(w, nil, gate.ErrROIAlreadyWithdrawn.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	lockedAfter, err := h.DB.Wallet().CreditLocked(user.ID, decision.ROI, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Ledger().Insert(&repository.LedgerEntry{
		UserID:       user.ID,
		EntryType:    repository.LedgerEntryCredit,
		Bucket:       repository.LedgerBucketLocked,
		Amount:       decision.ROI,
		BalanceAfter: lockedAfter,
		Reason:       repository.LedgerReasonROIExtraction,
		Entity:       repository.ActivityLogInvestmentEntity,
		EntityID:     &investment.ID,
	}, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.DB.Fee().Impose(user.ID, repository.FeeTypeTaxClearance, decision.TaxClearanceFeeDue,
		"Tax clearance on extracted ROI", tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	_, err = h.DB.Investment().AppendTransaction(&repository.InvestmentTransaction{
		InvestmentID: investment.ID,
		TxType:       repository.InvestmentTxExtraction,
		Amount:       decision.ROI,
		Description:  nullString("ROI moved to locked balance"),
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
			Entity:      repository.ActivityLogInvestmentEntity,
			EntityId:    &investment.ID,
			Description: "ROI extracted",
		})
		return err
	})

	message := "ROI extracted; pay the tax clearance fee to release the funds"

	data := map[string]any{
		"Roi":                decision.ROI,
		"LockedBalance":      lockedAfter,
		"TaxClearanceFeeDue": decision.TaxClearanceFeeDue,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
