package models

import "time"

// LineItem is one priced line of a vendor proposal.
type LineItem struct {
	Item       string   `json:"item"`
	Quantity   *float64 `json:"quantity,omitempty"`
	UnitPrice  *float64 `json:"unit_price,omitempty"`
	TotalPrice *float64 `json:"total_price,omitempty"`
}

// Proposal is a vendor's structured reply to an RFP. There is at most one
// proposal per (RFP, vendor); a later reply replaces the earlier one.
type Proposal struct {
	ID              int64          `json:"id"`
	RFPID           int64          `json:"rfp_id"`
	VendorID        int64          `json:"vendor_id"`
	VendorName      string         `json:"vendor_name,omitempty"`
	VendorEmail     string         `json:"vendor_email,omitempty"`
	EmailMessageID  string         `json:"email_message_id"`
	EmailSubject    string         `json:"email_subject"`
	EmailBody       string         `json:"email_body"`
	TotalPrice      *float64       `json:"total_price"`
	LineItems       []LineItem     `json:"line_items"`
	PaymentTerms    string         `json:"payment_terms"`
	WarrantyPeriod  string         `json:"warranty_period"`
	DeliveryDate    *Date          `json:"delivery_date"`
	AdditionalNotes string         `json:"additional_notes"`
	ExtractedData   map[string]any `json:"extracted_data"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ProposalScore is the stored comparison outcome for one proposal.
type ProposalScore struct {
	ID                   int64             `json:"id"`
	ProposalID           int64             `json:"proposal_id"`
	VendorID             int64             `json:"vendor_id,omitempty"`
	OverallScore         float64           `json:"overall_score"`
	PriceScore           float64           `json:"price_score"`
	TermsScore           float64           `json:"terms_score"`
	CompletenessScore    float64           `json:"completeness_score"`
	RecommendationReason string            `json:"recommendation_reason"`
	AIAnalysis           *ComparisonResult `json:"ai_analysis"`
	CreatedAt            time.Time         `json:"created_at"`
}

// InboundEmail is a vendor reply handed to proposal ingestion.
type InboundEmail struct {
	From       string     `json:"from"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	MessageID  string     `json:"message_id,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// ProcessedEmail is the per-message outcome of a mailbox poll.
type ProcessedEmail struct {
	MessageID  string     `json:"message_id"`
	From       string     `json:"from"`
	Subject    string     `json:"subject"`
	Date       *time.Time `json:"date,omitempty"`
	Processed  bool       `json:"processed"`
	ProposalID int64      `json:"proposal_id,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// MailboxCheckResult aggregates a mailbox poll.
type MailboxCheckResult struct {
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Emails    []ProcessedEmail `json:"emails"`
}

// MockIngestResult is returned by the simulated inbound-email path. When the
// sender has no RFP association the extraction is returned unsaved.
type MockIngestResult struct {
	Persisted     bool                `json:"persisted"`
	VendorCreated bool                `json:"vendor_created"`
	Vendor        *Vendor             `json:"vendor"`
	Proposal      *Proposal           `json:"proposal,omitempty"`
	Extraction    *ProposalExtraction `json:"extraction,omitempty"`
	Message       string              `json:"message"`
}
