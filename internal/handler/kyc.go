package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/file"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/validator"
)

var ErrRequirementNotFound = errors.New("KYC requirement not found")

type KycRequirementResponseData struct {
	ID          string `json:"id"`
	Requirement string `json:"requirement"`
}

type KycDocumentResponseData struct {
	ID          string `json:"id"`
	Requirement string `json:"requirement_id"`
	DocumentURL string `json:"document_url"`
	Status      string `json:"status"`
}

type KycHandler struct {
	KycRepo      repository.KycRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	FileUploader *file.FileUploader
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewKycHandler(handler *KycHandler) *KycHandler {
	return &KycHandler{
		KycRepo:      handler.KycRepo,
		UserRepo:     handler.UserRepo,
		ActivityRepo: handler.ActivityRepo,
		FileUploader: handler.FileUploader,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

func (h *KycHandler) HandleRequirements(w http.ResponseWriter, r *http.Request) {
	requirements, err := h.KycRepo.GetRequirements()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*KycRequirementResponseData, len(requirements))
	for i, requirement := range requirements {
		data[i] = &KycRequirementResponseData{
			ID:          requirement.ID,
			Requirement: requirement.Requirement,
		}
	}

	message := "Requirements retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleUploadDocument accepts a multipart upload for one requirement,
// pushes the file to Cloudinary and stores the hosted URL for review. The
// user's KYC status moves to pending until an operator decides.
func (h *KycHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var v validator.Validator

	err := r.ParseMultipartForm(10 << 20)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	requirementID := r.FormValue("requirement_id")
	v.Check(validator.NotBlank(requirementID), "Requirement id is required")

	uploaded, header, err := r.FormFile("document")
	if err != nil {
		v.AddError("Document file is required")
	}

	if v.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, v.Errors)
		return
	}
	defer uploaded.Close()

	// stage the upload in a temp file; the uploader works from a path
	tempFile, err := os.CreateTemp("", "kyc-*"+filepath.Ext(header.Filename))
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

	documentURL, err := h.FileUploader.UploadFile(tempFile.Name())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	documentID, err := h.KycRepo.InsertDocument(&repository.KycDocument{
		UserID:        user.ID,
		RequirementID: requirementID,
		DocumentURL:   documentURL,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if user.KycStatus == repository.KycStatusUnverified || user.KycStatus == repository.KycStatusRejected {
		if err := h.UserRepo.SetKycStatus(user.ID, repository.KycStatusPending); err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    &documentID,
			Description: "KYC document submitted",
		})

		if err != nil {
			log.Printf("Error logging KYC submission: %v", err)
			return err
		}

		return nil
	})

	message := "Document submitted for review"

	err = response.JSONCreatedResponse(w, map[string]any{"Id": documentID, "DocumentUrl": documentURL}, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleMyDocuments(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	documents, err := h.KycRepo.GetDocumentsByUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*KycDocumentResponseData, len(documents))
	for i, document := range documents {
		data[i] = &KycDocumentResponseData{
			ID:          document.ID,
			Requirement: document.RequirementID,
			DocumentURL: document.DocumentURL,
			Status:      document.Status,
		}
	}

	message := "Documents retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
