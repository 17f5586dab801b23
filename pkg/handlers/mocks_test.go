package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// mockRFPService is a configurable services.RFPService for handler tests.
type mockRFPService struct {
	draft      *models.RFPDraft
	rfp        *models.RFP
	rfps       []*models.RFP
	detail     *models.RFPDetail
	sendResult *models.SendResult
	err        error

	gotText      string
	gotVendorIDs []int64
	gotStatus    models.RFPStatus
}

func (m *mockRFPService) ParsePreview(ctx context.Context, text string) (*models.RFPDraft, error) {
	m.gotText = text
	return m.draft, m.err
}

func (m *mockRFPService) Create(ctx context.Context, text string) (*models.RFP, error) {
	m.gotText = text
	return m.rfp, m.err
}

func (m *mockRFPService) List(ctx context.Context) ([]*models.RFP, error) {
	return m.rfps, m.err
}

func (m *mockRFPService) Get(ctx context.Context, id int64) (*models.RFPDetail, error) {
	return m.detail, m.err
}

func (m *mockRFPService) SendToVendors(ctx context.Context, rfpID int64, vendorIDs []int64) (*models.SendResult, error) {
	m.gotVendorIDs = vendorIDs
	return m.sendResult, m.err
}

func (m *mockRFPService) UpdateStatus(ctx context.Context, id int64, status models.RFPStatus) (*models.RFP, error) {
	m.gotStatus = status
	return m.rfp, m.err
}

// mockVendorService is a configurable services.VendorService for handler tests.
type mockVendorService struct {
	vendors []*models.Vendor
	vendor  *models.Vendor
	err     error

	gotInput *models.VendorInput
	deleted  int64
}

func (m *mockVendorService) List(ctx context.Context) ([]*models.Vendor, error) {
	return m.vendors, m.err
}

func (m *mockVendorService) Get(ctx context.Context, id int64) (*models.Vendor, error) {
	return m.vendor, m.err
}

func (m *mockVendorService) Create(ctx context.Context, in *models.VendorInput) (*models.Vendor, error) {
	m.gotInput = in
	return m.vendor, m.err
}

func (m *mockVendorService) Update(ctx context.Context, id int64, in *models.VendorInput) (*models.Vendor, error) {
	m.gotInput = in
	return m.vendor, m.err
}

func (m *mockVendorService) Delete(ctx context.Context, id int64) error {
	m.deleted = id
	return m.err
}

// mockProposalService is a configurable services.ProposalService for handler tests.
type mockProposalService struct {
	proposal    *models.Proposal
	checkResult *models.MailboxCheckResult
	mockResult  *models.MockIngestResult
	err         error

	gotEmail *models.InboundEmail
}

func (m *mockProposalService) Ingest(ctx context.Context, in *models.InboundEmail) (*models.Proposal, error) {
	m.gotEmail = in
	return m.proposal, m.err
}

func (m *mockProposalService) CheckMailbox(ctx context.Context) (*models.MailboxCheckResult, error) {
	return m.checkResult, m.err
}

func (m *mockProposalService) MockIngest(ctx context.Context, in *models.InboundEmail) (*models.MockIngestResult, error) {
	m.gotEmail = in
	return m.mockResult, m.err
}

// mockComparisonService is a configurable services.ComparisonService for handler tests.
type mockComparisonService struct {
	report *models.ComparisonReport
	err    error
	gotID  int64
}

func (m *mockComparisonService) Compare(ctx context.Context, rfpID int64) (*models.ComparisonReport, error) {
	m.gotID = rfpID
	return m.report, m.err
}

// testMux wires every API handler onto one mux, the way main does.
func testMux(rfps *mockRFPService, vendors *mockVendorService, proposals *mockProposalService, comparisons *mockComparisonService) *http.ServeMux {
	logger := zap.NewNop()
	mux := http.NewServeMux()
	NewRFPHandler(rfps, logger).RegisterRoutes(mux)
	NewVendorHandler(vendors, logger).RegisterRoutes(mux)
	NewProposalHandler(proposals, comparisons, logger).RegisterRoutes(mux)
	return mux
}

var testTime = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
