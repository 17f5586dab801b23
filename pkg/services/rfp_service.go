package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/email"
	"github.com/ekaya-inc/ekaya-procure/pkg/extraction"
	"github.com/ekaya-inc/ekaya-procure/pkg/metrics"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/repositories"
)

// RFPService covers the RFP lifecycle from plain-text request to vendor
// dispatch.
type RFPService interface {
	// ParsePreview extracts and normalizes an RFP without saving it.
	ParsePreview(ctx context.Context, text string) (*models.RFPDraft, error)
	// Create extracts, normalizes and stores a draft RFP.
	Create(ctx context.Context, text string) (*models.RFP, error)
	// List returns every RFP, newest first.
	List(ctx context.Context) ([]*models.RFP, error)
	// Get returns an RFP with its proposals, scores and vendor sends.
	Get(ctx context.Context, id int64) (*models.RFPDetail, error)
	// SendToVendors emails the RFP to each vendor and records every attempt.
	SendToVendors(ctx context.Context, rfpID int64, vendorIDs []int64) (*models.SendResult, error)
	UpdateStatus(ctx context.Context, id int64, status models.RFPStatus) (*models.RFP, error)
}

type rfpService struct {
	rfpRepo       repositories.RFPRepository
	vendorRepo    repositories.VendorRepository
	rfpVendorRepo repositories.RFPVendorRepository
	proposalRepo  repositories.ProposalRepository
	scoreRepo     repositories.ProposalScoreRepository
	extractor     extraction.Extractor
	sender        email.Sender
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

var _ RFPService = (*rfpService)(nil)

func NewRFPService(
	rfpRepo repositories.RFPRepository,
	vendorRepo repositories.VendorRepository,
	rfpVendorRepo repositories.RFPVendorRepository,
	proposalRepo repositories.ProposalRepository,
	scoreRepo repositories.ProposalScoreRepository,
	extractor extraction.Extractor,
	sender email.Sender,
	m *metrics.Metrics,
	logger *zap.Logger,
) RFPService {
	return &rfpService{
		rfpRepo:       rfpRepo,
		vendorRepo:    vendorRepo,
		rfpVendorRepo: rfpVendorRepo,
		proposalRepo:  proposalRepo,
		scoreRepo:     scoreRepo,
		extractor:     extractor,
		sender:        sender,
		metrics:       m,
		logger:        logger.Named("rfp"),
		now:           time.Now,
	}
}

func (s *rfpService) ParsePreview(ctx context.Context, text string) (*models.RFPDraft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("Natural language input is required")
	}

	ext, err := s.extractor.ExtractRFP(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract RFP: %w", err)
	}
	return NormalizeRFP(ext, text, models.NewDate(s.now())), nil
}

func (s *rfpService) Create(ctx context.Context, text string) (*models.RFP, error) {
	draft, err := s.ParsePreview(ctx, text)
	if err != nil {
		return nil, err
	}

	rfp := models.NewRFPFromDraft(draft)
	if err := s.rfpRepo.Create(ctx, rfp); err != nil {
		return nil, err
	}

	s.logger.Info("Created RFP",
		zap.Int64("rfp_id", rfp.ID),
		zap.String("title", rfp.Title),
		zap.Int("requirements", len(rfp.Requirements)),
		zap.String("extraction_mode", s.extractor.Mode()))
	return rfp, nil
}

func (s *rfpService) List(ctx context.Context) ([]*models.RFP, error) {
	return s.rfpRepo.List(ctx)
}

func (s *rfpService) Get(ctx context.Context, id int64) (*models.RFPDetail, error) {
	rfp, err := s.getRFP(ctx, id)
	if err != nil {
		return nil, err
	}

	proposals, err := s.proposalRepo.ListByRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.ListByRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	vendors, err := s.rfpVendorRepo.ListByRFP(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.RFPDetail{
		RFP:       rfp,
		Proposals: proposals,
		Scores:    scores,
		Vendors:   vendors,
	}, nil
}

func (s *rfpService) SendToVendors(ctx context.Context, rfpID int64, vendorIDs []int64) (*models.SendResult, error) {
	if rfpID <= 0 || len(vendorIDs) == 0 {
		return nil, apperrors.NewValidationError("RFP ID and vendor IDs are required")
	}

	rfp, err := s.getRFP(ctx, rfpID)
	if err != nil {
		return nil, err
	}

	result := &models.SendResult{RFPID: rfpID, Results: []models.VendorSendResult{}}
	delivered := 0
	seen := make(map[int64]bool, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		if seen[vendorID] {
			continue
		}
		seen[vendorID] = true

		r := s.sendToVendor(ctx, rfp, vendorID)
		if r.Recorded {
			result.Sent++
		} else {
			result.Failed++
		}
		if r.EmailSent {
			delivered++
		}
		result.Results = append(result.Results, r)
	}

	if result.Sent > 0 {
		if err := s.rfpRepo.UpdateStatus(ctx, rfpID, models.RFPStatusSent); err != nil {
			s.logger.Error("Failed to mark RFP as sent",
				zap.Int64("rfp_id", rfpID),
				zap.Error(err))
		}
	}

	result.Message = sendSummary(len(result.Results), result.Sent, delivered)
	s.logger.Info("Dispatched RFP",
		zap.Int64("rfp_id", rfpID),
		zap.Int("vendors", len(result.Results)),
		zap.Int("recorded", result.Sent),
		zap.Int("delivered", delivered))
	return result, nil
}

// sendToVendor never returns an error: every outcome is reported in the
// result so the remaining vendors are still processed.
func (s *rfpService) sendToVendor(ctx context.Context, rfp *models.RFP, vendorID int64) models.VendorSendResult {
	r := models.VendorSendResult{VendorID: vendorID}

	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	if vendor == nil {
		r.Error = "Vendor not found"
		return r
	}
	r.VendorName = vendor.Name
	r.VendorEmail = vendor.Email

	msg := email.RenderRFPEmail(vendor.Name, rfp)
	messageID, err := s.sender.Send(ctx, &email.OutgoingMessage{
		To:      vendor.Email,
		ToName:  vendor.Name,
		Subject: msg.Subject,
		Text:    msg.Body,
	})

	status := models.DeliveryStatusSent
	if err != nil {
		status = models.DeliveryStatusFailed
		messageID = localMessageID()
		r.Warning = "Email could not be delivered: " + remediation(err)
		s.logger.Warn("RFP email not delivered",
			zap.Int64("rfp_id", rfp.ID),
			zap.Int64("vendor_id", vendorID),
			zap.Error(err))
		s.metrics.ObserveEmail(models.DeliveryStatusFailed)
	} else {
		r.EmailSent = true
		s.metrics.ObserveEmail(models.DeliveryStatusSent)
	}
	r.MessageID = messageID

	err = s.rfpVendorRepo.Upsert(ctx, &models.RFPVendor{
		RFPID:          rfp.ID,
		VendorID:       vendorID,
		SentAt:         s.now().UTC(),
		EmailSubject:   msg.Subject,
		EmailBody:      msg.Body,
		MessageID:      messageID,
		DeliveryStatus: status,
	})
	if err != nil {
		s.logger.Error("Failed to record RFP send",
			zap.Int64("rfp_id", rfp.ID),
			zap.Int64("vendor_id", vendorID),
			zap.Error(err))
		r.Error = "Failed to record the send"
		return r
	}

	r.Recorded = true
	return r
}

func (s *rfpService) UpdateStatus(ctx context.Context, id int64, status models.RFPStatus) (*models.RFP, error) {
	if !status.Valid() {
		return nil, &apperrors.ValidationError{
			Message: "Invalid status",
			Fields:  map[string]string{"status": "must be one of draft, sent, closed"},
		}
	}
	if err := s.rfpRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.getRFP(ctx, id)
}

func (s *rfpService) getRFP(ctx context.Context, id int64) (*models.RFP, error) {
	rfp, err := s.rfpRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, apperrors.ErrNotFound
	}
	return rfp, nil
}

// NormalizeRFP turns an extraction into a draft: relative delivery and
// deadline hints become dates counted from today, blank requirements are
// dropped, and the title and description fall back to values derived from
// text.
func NormalizeRFP(ext *models.RFPExtraction, text string, today models.Date) *models.RFPDraft {
	draft := &models.RFPDraft{
		Title:          strings.TrimSpace(ext.Title),
		Description:    strings.TrimSpace(ext.Description),
		Budget:         ext.Budget,
		Deadline:       ext.Deadline,
		DeliveryDate:   ext.DeliveryDate,
		PaymentTerms:   strings.TrimSpace(ext.PaymentTerms),
		WarrantyPeriod: strings.TrimSpace(ext.WarrantyPeriod),
		Requirements:   []models.Requirement{},
	}

	for _, req := range ext.Requirements {
		item := strings.TrimSpace(req.Item)
		if item == "" {
			continue
		}
		draft.Requirements = append(draft.Requirements, models.Requirement{
			Item:           item,
			Quantity:       req.Quantity,
			Specifications: strings.TrimSpace(req.Specifications),
		})
	}

	if draft.DeliveryDate == nil && ext.DeliveryInDays != nil && *ext.DeliveryInDays >= 0 {
		d := today.AddDays(*ext.DeliveryInDays)
		draft.DeliveryDate = &d
	}
	if draft.Deadline == nil && ext.DeadlineInDays != nil && *ext.DeadlineInDays >= 0 {
		d := today.AddDays(*ext.DeadlineInDays)
		draft.Deadline = &d
	}
	if draft.Budget != nil && *draft.Budget <= 0 {
		draft.Budget = nil
	}
	if draft.Title == "" {
		draft.Title = extraction.DeriveTitle(draft.Requirements, text)
	}
	if draft.Description == "" {
		draft.Description = strings.TrimSpace(text)
	}
	return draft
}

func localMessageID() string {
	return fmt.Sprintf("<local-%s@ekaya-procure>", uuid.NewString())
}

func remediation(err error) string {
	var te *email.TransportError
	if errors.As(err, &te) && te.Remediation != "" {
		return te.Remediation
	}
	return err.Error()
}

func sendSummary(total, recorded, delivered int) string {
	switch {
	case total > 0 && delivered == total:
		return fmt.Sprintf("RFP sent to %d vendor(s)", total)
	case delivered > 0:
		return fmt.Sprintf("RFP sent to %d of %d vendor(s); see results for failures", delivered, total)
	case recorded > 0:
		return fmt.Sprintf("RFP recorded for %d vendor(s) but no emails were delivered; check the email configuration", recorded)
	default:
		return "RFP was not sent to any vendor"
	}
}
