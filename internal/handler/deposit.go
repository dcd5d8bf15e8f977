package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/file"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/validator"

	"github.com/google/uuid"
)

var ErrDepositNotFound = errors.New("deposit not found")

type DepositResponseData struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	ProofURL  string  `json:"proof_url,omitempty"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

type DepositHandler struct {
	DB           repository.Database
	FileUploader *file.FileUploader
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewDepositHandler(handler *DepositHandler) *DepositHandler {
	return &DepositHandler{
		DB:           handler.DB,
		FileUploader: handler.FileUploader,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

func depositResponse(deposit *repository.Deposit) *DepositResponseData {
	return &DepositResponseData{
		ID:        deposit.ID,
		Amount:    deposit.Amount,
		Currency:  deposit.Currency,
		ProofURL:  deposit.ProofURL.String,
		Reference: deposit.Reference,
		Status:    deposit.Status,
		CreatedAt: deposit.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCreateDeposit records a claimed payment with its proof image. Nothing
// is credited here; the wallet moves only after an operator confirms the
// deposit and the credit worker picks it up.
func (h *DepositHandler) HandleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var v validator.Validator

	err := r.ParseMultipartForm(10 << 20)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	v.Check(err == nil && amount > 0, "Amount is required")

	currency := r.FormValue("currency")
	v.Check(validator.NotBlank(currency), "Currency is required")

	uploaded, header, err := r.FormFile("proof")
	if err != nil {
		v.AddError("Proof of payment is required")
	}

	if v.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, v.Errors)
		return
	}
	defer uploaded.Close()

	tempFile, err := os.CreateTemp("", "deposit-*"+filepath.Ext(header.Filename))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, uploaded); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	proofURL, err := h.FileUploader.UploadFile(tempFile.Name())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	reference := uuid.NewString()

	depositID, err := h.DB.Deposit().Insert(&repository.Deposit{
		UserID:    user.ID,
		Amount:    amount,
		Currency:  currency,
		ProofURL:  nullString(proofURL),
		Reference: reference,
	}, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogDepositEntity,
			EntityId:    &depositID,
			Description: "Deposit submitted",
		})

		if err != nil {
			log.Printf("Error logging deposit submission: %v", err)
			return err
		}

		return nil
	})

	message := "Deposit submitted and awaiting confirmation"

	data := map[string]any{
		"Id":        depositID,
		"Reference": reference,
	}

	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DepositHandler) HandleMyDeposits(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	queryValues := retrieveUrlQueryValues(r)

	deposits, err := h.DB.Deposit().GetAllByUserId(user.ID, queryValues.Limit, queryValues.Offset)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*DepositResponseData, len(deposits))
	for i := range deposits {
		data[i] = depositResponse(&deposits[i])
	}

	message := "Deposits retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DepositHandler) HandleDepositDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	deposit, found, err := h.DB.Deposit().GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrDepositNotFound.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	if deposit.UserID != user.ID {
		message := "Access denied"
		response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		return
	}

	message := "Deposit retrieved successfully"

	err = response.JSONOkResponse(w, depositResponse(deposit), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
