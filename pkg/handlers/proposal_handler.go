package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/services"
)

// InboundEmailRequest for POST /api/proposals/process and
// POST /api/mock/inbound-email. The short from/subject/body names are
// accepted as aliases.
type InboundEmailRequest struct {
	EmailBody    string `json:"emailBody"`
	EmailSubject string `json:"emailSubject"`
	FromEmail    string `json:"fromEmail"`
	MessageID    string `json:"messageId"`

	Body    string `json:"body"`
	Subject string `json:"subject"`
	From    string `json:"from"`
}

func (req *InboundEmailRequest) toInbound() *models.InboundEmail {
	return &models.InboundEmail{
		From:      firstNonEmpty(req.FromEmail, req.From),
		Subject:   firstNonEmpty(req.EmailSubject, req.Subject),
		Body:      firstNonEmpty(req.EmailBody, req.Body),
		MessageID: req.MessageID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ProposalResponse wraps a single proposal.
type ProposalResponse struct {
	Proposal *models.Proposal `json:"proposal"`
}

// ProposalHandler handles vendor proposal HTTP requests, including the
// simulated inbound-email endpoint.
type ProposalHandler struct {
	proposalService   services.ProposalService
	comparisonService services.ComparisonService
	logger            *zap.Logger
}

// NewProposalHandler creates a new proposal handler.
func NewProposalHandler(
	proposalService services.ProposalService,
	comparisonService services.ComparisonService,
	logger *zap.Logger,
) *ProposalHandler {
	return &ProposalHandler{
		proposalService:   proposalService,
		comparisonService: comparisonService,
		logger:            logger,
	}
}

// RegisterRoutes registers the proposal handler's routes on the given mux.
func (h *ProposalHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/proposals"

	mux.HandleFunc("POST "+base+"/process", h.Process)
	mux.HandleFunc("GET "+base+"/compare/{rfpId}", h.Compare)
	mux.HandleFunc("POST "+base+"/check-emails", h.CheckEmails)
	mux.HandleFunc("POST /api/mock/inbound-email", h.MockInbound)
}

// Process handles POST /api/proposals/process
func (h *ProposalHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req InboundEmailRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	proposal, err := h.proposalService.Ingest(r.Context(), req.toInbound())
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to process vendor response")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, ProposalResponse{Proposal: proposal}, "Proposal processed successfully")
}

// Compare handles GET /api/proposals/compare/{rfpId}
func (h *ProposalHandler) Compare(w http.ResponseWriter, r *http.Request) {
	rfpID, ok := ParseComparisonRFPID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.comparisonService.Compare(r.Context(), rfpID)
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to compare proposals")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, report, "")
}

// CheckEmails handles POST /api/proposals/check-emails
func (h *ProposalHandler) CheckEmails(w http.ResponseWriter, r *http.Request) {
	result, err := h.proposalService.CheckMailbox(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to check emails")
		return
	}

	h.logger.Info("Mailbox checked",
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))
	writeSuccess(w, h.logger, http.StatusOK, result, "")
}

// MockInbound handles POST /api/mock/inbound-email
func (h *ProposalHandler) MockInbound(w http.ResponseWriter, r *http.Request) {
	var req InboundEmailRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.proposalService.MockIngest(r.Context(), req.toInbound())
	if err != nil {
		writeServiceError(w, h.logger, err, "RFP not found", "Failed to process mock email")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, result, result.Message)
}
