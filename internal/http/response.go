package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/kenqu-rs/kugelpos-backend/internal/service"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details *ErrDetails `json:"details,omitempty"`
}

type ErrDetails struct {
	Kind              string `json:"kind,omitempty"`
	ItemCode          string `json:"item_code,omitempty"`
	LineNo            int    `json:"line_no,omitempty"`
	CurrentQuantity   int    `json:"current_quantity,omitempty"`
	RequestedQuantity int    `json:"requested_quantity,omitempty"`
}

const (
	codeInvalidRequest = "invalid_request"
	codeValidation     = "validation_error"
	codeTimeout        = "timeout"
	codeInternal       = "internal_error"
)

func respondJSON(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	respondJSON(w, log, status, Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, log *logger.Logger, status int, code, message string) {
	respondJSON(w, log, status, Response{Success: false, Code: code, Message: message})
}

// respondCartError maps service failures onto HTTP statuses. Validation
// kinds are client errors; collaborator failures are ours.
func respondCartError(w http.ResponseWriter, log *logger.Logger, err error) {
	var ce *service.CartError
	if errors.As(err, &ce) {
		status := http.StatusBadRequest
		switch ce.Kind {
		case service.KindCartNotFound:
			status = http.StatusNotFound
		case service.KindCollaboratorFailure:
			status = http.StatusInternalServerError
			if errors.Is(ce, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
		}
		resp := Response{Success: false, Code: ce.Code, Message: ce.Message}
		if ce.Kind != service.KindCollaboratorFailure {
			resp.Details = &ErrDetails{
				Kind:              string(ce.Kind),
				ItemCode:          ce.ItemCode,
				LineNo:            ce.LineNo,
				CurrentQuantity:   ce.CurrentQuantity,
				RequestedQuantity: ce.RequestedQuantity,
			}
		}
		respondJSON(w, log, status, resp)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		respondError(w, log, http.StatusGatewayTimeout, codeTimeout, "request timed out")
		return
	}
	respondError(w, log, http.StatusInternalServerError, codeInternal, "internal server error")
}
