package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/email"
	"github.com/ekaya-inc/ekaya-procure/pkg/llm"
)

// ApiResponse is the envelope every API endpoint responds with.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse writes a failed envelope and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string, details any) error {
	return WriteJSON(w, statusCode, ApiResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful envelope, logging encoding failures.
func writeSuccess(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any, message string) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data, Message: message}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeError writes a failed envelope, logging encoding failures.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, message string, details any) {
	if err := ErrorResponse(w, statusCode, message, details); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// decodeJSON reads the request body into v, answering 400 when it is not JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, logger, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}

// writeServiceError maps a service error onto a status code and envelope.
// notFound is the message used for apperrors.ErrNotFound; fallback is the
// message for anything unclassified, whose detail is only logged.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, notFound, fallback string) {
	var (
		validationErr *apperrors.ValidationError
		transportErr  *email.TransportError
		llmErr        *llm.Error
	)

	switch {
	case errors.As(err, &validationErr):
		var details any
		if len(validationErr.Fields) > 0 {
			details = validationErr.Fields
		}
		writeError(w, logger, http.StatusBadRequest, validationErr.Message, details)
	case errors.Is(err, apperrors.ErrDuplicateVendor):
		writeError(w, logger, http.StatusBadRequest, "Vendor with this email already exists", nil)
	case errors.Is(err, apperrors.ErrVendorInUse):
		writeError(w, logger, http.StatusBadRequest, "Vendor is referenced by RFPs or proposals and cannot be deleted", nil)
	case errors.Is(err, apperrors.ErrVendorNotFound),
		errors.Is(err, apperrors.ErrNoAssociatedRFP),
		errors.Is(err, apperrors.ErrInsufficientProposals),
		errors.Is(err, apperrors.ErrConflict):
		writeError(w, logger, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, notFound, nil)
	case errors.As(err, &transportErr):
		logger.Error(fallback, zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, transportErr.Remediation, map[string]string{
			"kind":      string(transportErr.Kind),
			"operation": transportErr.Op,
		})
	case errors.As(err, &llmErr):
		logger.Error(fallback, zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, fallback, map[string]string{
			"kind":        string(llmErr.Type),
			"remediation": llmRemediation(llmErr.Type),
		})
	default:
		logger.Error(fallback, zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, fallback, nil)
	}
}

func llmRemediation(t llm.ErrorType) string {
	switch t {
	case llm.ErrorTypeAuth:
		return "The language model rejected the API key. Check LLM_API_KEY."
	case llm.ErrorTypeModel:
		return "The configured model was not found. Check LLM_MODEL."
	case llm.ErrorTypeEndpoint:
		return "The language model endpoint could not be reached. Check LLM_BASE_URL."
	case llm.ErrorTypeTimeout:
		return "The language model did not answer in time. Try again or raise LLM_TIMEOUT."
	default:
		return "The language model request failed. Try again later."
	}
}
