package handler

import (
	"net/http"

	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/response"
)

type PlanResponseData struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	MinAmount     float64 `json:"min_amount"`
	MaxAmount     float64 `json:"max_amount"`
	PercentReturn float64 `json:"percent_return"`
	DurationDays  int     `json:"duration_days"`
}

type PlanHandler struct {
	PlanRepo   repository.PlanRepository
	ErrHandler *errHandler.ErrorHandler
}

func NewPlanHandler(handler *PlanHandler) *PlanHandler {
	return &PlanHandler{
		PlanRepo:   handler.PlanRepo,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *PlanHandler) HandlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.PlanRepo.GetAllActive()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if len(plans) == 0 {
		message := "No plan found"
		err = response.JSONOkResponse(w, []PlanResponseData{}, message, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	message := "Plans retrieved successfully"

	data := make([]*PlanResponseData, len(plans))
	for i, plan := range plans {
		data[i] = &PlanResponseData{
			ID:            plan.ID,
			Name:          plan.Name,
			MinAmount:     plan.MinAmount,
			MaxAmount:     plan.MaxAmount,
			PercentReturn: plan.PercentReturn,
			DurationDays:  plan.DurationDays,
		}
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
