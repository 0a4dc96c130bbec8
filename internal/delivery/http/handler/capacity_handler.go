package handler

import (
	"encoding/json"
	"net/http"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/response"
	"dental-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type CapacityHandler struct {
	capacityUsecase usecase.CapacityUsecase
	validator       *validator.CustomValidator
}

func NewCapacityHandler(capacityUsecase usecase.CapacityUsecase, validator *validator.CustomValidator) *CapacityHandler {
	return &CapacityHandler{
		capacityUsecase: capacityUsecase,
		validator:       validator,
	}
}

func (h *CapacityHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	capacity, err := h.capacityUsecase.GetCapacity(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Capacity retrieved successfully", capacity)
}

func (h *CapacityHandler) SetCapacity(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]

	var req dto.UpdateCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	rule, err := h.capacityUsecase.SetCapacity(r.Context(), day, *req.Capacity)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Capacity updated successfully", rule)
}
