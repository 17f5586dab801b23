package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/email"
	"github.com/ekaya-inc/ekaya-procure/pkg/llm"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var resp ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()

	err := ErrorResponse(rec, http.StatusBadRequest, "bad input", map[string]string{"name": "required"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "bad input", body["error"])
	assert.Equal(t, map[string]any{"name": "required"}, body["details"])
	assert.NotContains(t, body, "data")
}

func TestWriteJSON_OmitsEmptyEnvelopeFields(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusOK, ApiResponse{Success: true, Data: map[string]int{"n": 1}}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, rec.Body.String())
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantDetails bool
	}{
		{
			name: "validation with fields",
			err: &apperrors.ValidationError{
				Message: "Validation failed",
				Fields:  map[string]string{"email": "must be a valid email address"},
			},
			wantStatus:  http.StatusBadRequest,
			wantError:   "Validation failed",
			wantDetails: true,
		},
		{
			name:       "validation without fields",
			err:        apperrors.NewValidationError("Natural language input is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Natural language input is required",
		},
		{
			name:       "duplicate vendor",
			err:        fmt.Errorf("failed to create vendor: %w", apperrors.ErrDuplicateVendor),
			wantStatus: http.StatusBadRequest,
			wantError:  "Vendor with this email already exists",
		},
		{
			name:       "vendor in use",
			err:        apperrors.ErrVendorInUse,
			wantStatus: http.StatusBadRequest,
			wantError:  "Vendor is referenced by RFPs or proposals and cannot be deleted",
		},
		{
			name:       "insufficient proposals",
			err:        apperrors.ErrInsufficientProposals,
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ErrInsufficientProposals.Error(),
		},
		{
			name:       "no associated rfp",
			err:        fmt.Errorf("a@b.test: %w", apperrors.ErrNoAssociatedRFP),
			wantStatus: http.StatusBadRequest,
			wantError:  "a@b.test: " + apperrors.ErrNoAssociatedRFP.Error(),
		},
		{
			name:       "not found",
			err:        fmt.Errorf("get rfp: %w", apperrors.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantError:  "Thing not found",
		},
		{
			name:        "mail transport",
			err:         email.ClassifyTransportError("fetch", errors.New("535 authentication failed")),
			wantStatus:  http.StatusInternalServerError,
			wantDetails: true,
		},
		{
			name:        "llm failure",
			err:         llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, nil),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Operation failed",
			wantDetails: true,
		},
		{
			name:       "unexpected",
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			writeServiceError(rec, zap.NewNop(), tt.err, "Thing not found", "Operation failed")

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Error)
			} else {
				assert.NotEmpty(t, resp.Error)
			}
			if tt.wantDetails {
				assert.NotNil(t, resp.Details)
			} else {
				assert.Nil(t, resp.Details)
			}
		})
	}
}

func TestWriteServiceError_UnexpectedErrorTextIsNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()

	writeServiceError(rec, zap.NewNop(), errors.New("password=hunter2 rejected"), "x", "Failed to fetch RFPs")

	assert.NotContains(t, rec.Body.String(), "hunter2")
}
