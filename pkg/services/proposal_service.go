package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/email"
	"github.com/ekaya-inc/ekaya-procure/pkg/extraction"
	"github.com/ekaya-inc/ekaya-procure/pkg/metrics"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/repositories"
)

// Sources recorded on ingested proposals.
const (
	SourceAPI     = "api"
	SourceMailbox = "mailbox"
	SourceMock    = "mock"
)

// ProposalService turns vendor replies into stored proposals.
type ProposalService interface {
	// Ingest attributes a reply to the sender's most recent RFP and stores
	// the extracted proposal, replacing any earlier one for that pair.
	Ingest(ctx context.Context, in *models.InboundEmail) (*models.Proposal, error)
	// CheckMailbox ingests every unread message. Per-message failures are
	// reported in the result; only transport failures return an error.
	CheckMailbox(ctx context.Context) (*models.MailboxCheckResult, error)
	// MockIngest is Ingest for simulated replies: unknown senders become
	// vendors, and replies with no RFP return the extraction unsaved.
	MockIngest(ctx context.Context, in *models.InboundEmail) (*models.MockIngestResult, error)
}

type proposalService struct {
	vendorRepo    repositories.VendorRepository
	rfpVendorRepo repositories.RFPVendorRepository
	proposalRepo  repositories.ProposalRepository
	extractor     extraction.Extractor
	mailbox       email.Mailbox
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

var _ ProposalService = (*proposalService)(nil)

func NewProposalService(
	vendorRepo repositories.VendorRepository,
	rfpVendorRepo repositories.RFPVendorRepository,
	proposalRepo repositories.ProposalRepository,
	extractor extraction.Extractor,
	mailbox email.Mailbox,
	m *metrics.Metrics,
	logger *zap.Logger,
) ProposalService {
	return &proposalService{
		vendorRepo:    vendorRepo,
		rfpVendorRepo: rfpVendorRepo,
		proposalRepo:  proposalRepo,
		extractor:     extractor,
		mailbox:       mailbox,
		metrics:       m,
		logger:        logger.Named("proposals"),
	}
}

func (s *proposalService) Ingest(ctx context.Context, in *models.InboundEmail) (*models.Proposal, error) {
	return s.ingest(ctx, in, SourceAPI)
}

func (s *proposalService) ingest(ctx context.Context, in *models.InboundEmail, source string) (*models.Proposal, error) {
	if err := validateInbound(in); err != nil {
		return nil, err
	}
	address := email.ExtractAddress(in.From)

	vendor, err := s.vendorRepo.GetByEmail(ctx, address)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, fmt.Errorf("%s: %w", address, apperrors.ErrVendorNotFound)
	}

	assoc, err := s.rfpVendorRepo.GetLatestForVendor(ctx, vendor.ID)
	if err != nil {
		return nil, err
	}
	if assoc == nil {
		return nil, fmt.Errorf("%s: %w", address, apperrors.ErrNoAssociatedRFP)
	}

	ext, err := s.extractor.ExtractProposal(ctx, in.Subject, in.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract proposal: %w", err)
	}
	return s.store(ctx, assoc.RFPID, vendor, in, ext, source)
}

func (s *proposalService) store(
	ctx context.Context,
	rfpID int64,
	vendor *models.Vendor,
	in *models.InboundEmail,
	ext *models.ProposalExtraction,
	source string,
) (*models.Proposal, error) {
	lineItems := ext.LineItems
	if lineItems == nil {
		lineItems = []models.LineItem{}
	}

	proposal := &models.Proposal{
		RFPID:           rfpID,
		VendorID:        vendor.ID,
		VendorName:      vendor.Name,
		VendorEmail:     vendor.Email,
		EmailMessageID:  in.MessageID,
		EmailSubject:    in.Subject,
		EmailBody:       in.Body,
		TotalPrice:      ext.TotalPrice,
		LineItems:       lineItems,
		PaymentTerms:    ext.PaymentTerms,
		WarrantyPeriod:  ext.WarrantyPeriod,
		DeliveryDate:    ext.DeliveryDate,
		AdditionalNotes: ext.AdditionalNotes,
		ExtractedData:   ext.ExtractedData(),
	}
	if err := s.proposalRepo.Upsert(ctx, proposal); err != nil {
		return nil, err
	}

	s.metrics.ObserveProposal(source)
	s.logger.Info("Stored proposal",
		zap.Int64("proposal_id", proposal.ID),
		zap.Int64("rfp_id", rfpID),
		zap.Int64("vendor_id", vendor.ID),
		zap.String("source", source))
	return proposal, nil
}

func (s *proposalService) CheckMailbox(ctx context.Context) (*models.MailboxCheckResult, error) {
	emails, err := s.mailbox.FetchUnseen(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.MailboxCheckResult{
		Total:  len(emails),
		Emails: make([]models.ProcessedEmail, 0, len(emails)),
	}
	for _, msg := range emails {
		processed := models.ProcessedEmail{
			MessageID: msg.MessageID,
			From:      msg.From,
			Subject:   msg.Subject,
			Date:      msg.ReceivedAt,
		}

		proposal, err := s.ingest(ctx, msg, SourceMailbox)
		if err != nil {
			processed.Error = err.Error()
			result.Failed++
			s.logger.Warn("Failed to process vendor reply",
				zap.String("from", msg.From),
				zap.String("message_id", msg.MessageID),
				zap.Error(err))
		} else {
			processed.Processed = true
			processed.ProposalID = proposal.ID
			result.Processed++
		}
		result.Emails = append(result.Emails, processed)
	}

	s.logger.Info("Checked mailbox",
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *proposalService) MockIngest(ctx context.Context, in *models.InboundEmail) (*models.MockIngestResult, error) {
	if err := validateInbound(in); err != nil {
		return nil, err
	}
	address := email.ExtractAddress(in.From)

	result := &models.MockIngestResult{}
	vendor, err := s.vendorRepo.GetByEmail(ctx, address)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		vendor = &models.Vendor{Name: vendorNameFromAddress(address), Email: address}
		if err := s.vendorRepo.Create(ctx, vendor); err != nil {
			return nil, fmt.Errorf("failed to create vendor for %s: %w", address, err)
		}
		result.VendorCreated = true
		s.logger.Info("Created vendor from simulated reply",
			zap.Int64("vendor_id", vendor.ID),
			zap.String("email", address))
	}
	result.Vendor = vendor

	ext, err := s.extractor.ExtractProposal(ctx, in.Subject, in.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract proposal: %w", err)
	}

	assoc, err := s.rfpVendorRepo.GetLatestForVendor(ctx, vendor.ID)
	if err != nil {
		return nil, err
	}
	if assoc == nil {
		result.Extraction = ext
		result.Message = "No RFP has been sent to this vendor; the extraction was not saved"
		return result, nil
	}

	proposal, err := s.store(ctx, assoc.RFPID, vendor, in, ext, SourceMock)
	if err != nil {
		return nil, err
	}
	result.Persisted = true
	result.Proposal = proposal
	result.Message = "Proposal processed successfully"
	return result, nil
}

func validateInbound(in *models.InboundEmail) error {
	if in == nil || strings.TrimSpace(in.Body) == "" || strings.TrimSpace(in.From) == "" {
		return apperrors.NewValidationError("Email body and sender email are required")
	}
	return nil
}

// vendorNameFromAddress names an auto-created vendor after the local part of
// its address, falling back to the whole address when that is too short.
func vendorNameFromAddress(address string) string {
	local, _, _ := strings.Cut(address, "@")
	if len(local) < vendorNameMin {
		return address
	}
	return local
}
