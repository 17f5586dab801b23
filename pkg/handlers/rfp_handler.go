package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// NaturalLanguageRequest for POST /api/rfps/parse and
// POST /api/rfps/create-from-natural-language
type NaturalLanguageRequest struct {
	NaturalLanguage string `json:"naturalLanguage"`
}

// SendRFPRequest for POST /api/rfps/send
type SendRFPRequest struct {
	RFPID     int64   `json:"rfpId"`
	VendorIDs []int64 `json:"vendorIds"`
}

// UpdateRFPStatusRequest for PATCH /api/rfps/{id}/status
type UpdateRFPStatusRequest struct {
	Status models.RFPStatus `json:"status"`
}

// RFPResponse wraps a single RFP.
type RFPResponse struct {
	RFP *models.RFP `json:"rfp"`
}

// RFPDraftResponse wraps an unsaved RFP preview.
type RFPDraftResponse struct {
	RFP *models.RFPDraft `json:"rfp"`
}

// RFPListResponse for GET /api/rfps
type RFPListResponse struct {
	RFPs  []*models.RFP `json:"rfps"`
	Total int           `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// RFPHandler handles RFP HTTP requests.
type RFPHandler struct {
	rfpService services.RFPService
	logger     *zap.Logger
}

// NewRFPHandler creates a new RFP handler.
func NewRFPHandler(rfpService services.RFPService, logger *zap.Logger) *RFPHandler {
	return &RFPHandler{
		rfpService: rfpService,
		logger:     logger,
	}
}

// RegisterRoutes registers the RFP handler's routes on the given mux.
func (h *RFPHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/rfps"

	mux.HandleFunc("POST "+base+"/parse", h.Parse)
	mux.HandleFunc("POST "+base+"/create-from-natural-language", h.Create)
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("GET "+base+"/{id}", h.Get)
	mux.HandleFunc("POST "+base+"/send", h.Send)
	mux.HandleFunc("PATCH "+base+"/{id}/status", h.UpdateStatus)
}

// Parse handles POST /api/rfps/parse
func (h *RFPHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req NaturalLanguageRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	draft, err := h.rfpService.ParsePreview(r.Context(), req.NaturalLanguage)
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to parse RFP")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, RFPDraftResponse{RFP: draft}, "")
}

// Create handles POST /api/rfps/create-from-natural-language
func (h *RFPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req NaturalLanguageRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	rfp, err := h.rfpService.Create(r.Context(), req.NaturalLanguage)
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to create RFP")
		return
	}

	writeSuccess(w, h.logger, http.StatusCreated, RFPResponse{RFP: rfp}, "RFP created")
}

// List handles GET /api/rfps
func (h *RFPHandler) List(w http.ResponseWriter, r *http.Request) {
	rfps, err := h.rfpService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to fetch RFPs")
		return
	}
	if rfps == nil {
		rfps = []*models.RFP{}
	}

	writeSuccess(w, h.logger, http.StatusOK, RFPListResponse{RFPs: rfps, Total: len(rfps)}, "")
}

// Get handles GET /api/rfps/{id}
func (h *RFPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRFPID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.rfpService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to fetch RFP")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, detail, "")
}

// Send handles POST /api/rfps/send
func (h *RFPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRFPRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.rfpService.SendToVendors(r.Context(), req.RFPID, req.VendorIDs)
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to send RFP")
		return
	}

	h.logger.Info("RFP sent",
		zap.Int64("rfp_id", result.RFPID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	writeSuccess(w, h.logger, http.StatusOK, result, result.Message)
}

// UpdateStatus handles PATCH /api/rfps/{id}/status
func (h *RFPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRFPID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateRFPStatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	rfp, err := h.rfpService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to update RFP status")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, RFPResponse{RFP: rfp}, "")
}
