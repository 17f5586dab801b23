package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

func serve(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func newRFPTestMux(svc *mockRFPService) http.Handler {
	return testMux(svc, &mockVendorService{}, &mockProposalService{}, &mockComparisonService{})
}

func TestRFPHandler_Create(t *testing.T) {
	budget := 50000.0
	svc := &mockRFPService{rfp: &models.RFP{
		ID:     1,
		Title:  "Procurement of Laptops",
		Budget: &budget,
		Status: models.RFPStatusDraft,
	}}

	rec := serve(newRFPTestMux(svc), http.MethodPost, "/api/rfps/create-from-natural-language",
		`{"naturalLanguage":"We need 20 laptops"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "We need 20 laptops", svc.gotText)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	rfp := data["rfp"].(map[string]any)
	assert.Equal(t, "Procurement of Laptops", rfp["title"])
	assert.Equal(t, "draft", rfp["status"])
}

func TestRFPHandler_Create_ValidationError(t *testing.T) {
	svc := &mockRFPService{err: apperrors.NewValidationError("Natural language input is required")}

	rec := serve(newRFPTestMux(svc), http.MethodPost, "/api/rfps/create-from-natural-language", `{"naturalLanguage":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Natural language input is required", resp.Error)
}

func TestRFPHandler_Create_InvalidJSON(t *testing.T) {
	rec := serve(newRFPTestMux(&mockRFPService{}), http.MethodPost, "/api/rfps/create-from-natural-language", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeEnvelope(t, rec).Error)
}

func TestRFPHandler_Parse(t *testing.T) {
	svc := &mockRFPService{draft: &models.RFPDraft{Title: "Procurement of Monitors"}}

	rec := serve(newRFPTestMux(svc), http.MethodPost, "/api/rfps/parse", `{"naturalLanguage":"10 monitors"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Procurement of Monitors")
}

func TestRFPHandler_List_EmptyIsArray(t *testing.T) {
	rec := serve(newRFPTestMux(&mockRFPService{}), http.MethodGet, "/api/rfps", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"rfps":[],"total":0}}`, rec.Body.String())
}

func TestRFPHandler_List_ServiceFailure(t *testing.T) {
	svc := &mockRFPService{err: errors.New("connection refused")}

	rec := serve(newRFPTestMux(svc), http.MethodGet, "/api/rfps", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch RFPs", decodeEnvelope(t, rec).Error)
}

func TestRFPHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &mockRFPService{detail: &models.RFPDetail{RFP: &models.RFP{ID: 3, Title: "Chairs"}}}

		rec := serve(newRFPTestMux(svc), http.MethodGet, "/api/rfps/3", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"title":"Chairs"`)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockRFPService{err: apperrors.ErrNotFound}

		rec := serve(newRFPTestMux(svc), http.MethodGet, "/api/rfps/99", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RFP not found", decodeEnvelope(t, rec).Error)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := serve(newRFPTestMux(&mockRFPService{}), http.MethodGet, "/api/rfps/abc", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRFPHandler_Send(t *testing.T) {
	svc := &mockRFPService{sendResult: &models.SendResult{
		RFPID:  1,
		Sent:   1,
		Failed: 1,
		Results: []models.VendorSendResult{
			{VendorID: 1, Recorded: true, EmailSent: true, MessageID: "<a@test>"},
			{VendorID: 2, Recorded: true, MessageID: "<local@ekaya-procure>", Warning: "Email could not be delivered"},
		},
		Message: "RFP sent to 1 of 2 vendor(s); see results for failures",
	}}

	rec := serve(newRFPTestMux(svc), http.MethodPost, "/api/rfps/send", `{"rfpId":1,"vendorIds":[1,2]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 2}, svc.gotVendorIDs)
	body := rec.Body.String()
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "RFP sent to 1 of 2 vendor(s); see results for failures", resp.Message)
	assert.Contains(t, body, `"warning":"Email could not be delivered"`)
}

func TestRFPHandler_UpdateStatus(t *testing.T) {
	svc := &mockRFPService{rfp: &models.RFP{ID: 1, Status: models.RFPStatusClosed}}

	rec := serve(newRFPTestMux(svc), http.MethodPatch, "/api/rfps/1/status", `{"status":"closed"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RFPStatusClosed, svc.gotStatus)
}
