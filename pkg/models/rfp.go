package models

import "time"

// RFPStatus is the lifecycle state of an RFP.
type RFPStatus string

const (
	RFPStatusDraft  RFPStatus = "draft"
	RFPStatusSent   RFPStatus = "sent"
	RFPStatusClosed RFPStatus = "closed"
)

// Valid reports whether s is a known status.
func (s RFPStatus) Valid() bool {
	switch s {
	case RFPStatusDraft, RFPStatusSent, RFPStatusClosed:
		return true
	}
	return false
}

// Requirement is one line of what the buyer wants.
type Requirement struct {
	Item           string `json:"item"`
	Quantity       *int   `json:"quantity,omitempty"`
	Specifications string `json:"specifications,omitempty"`
}

// RFPDraft is the normalized structure extracted from a plain-text request,
// before it is persisted.
type RFPDraft struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Budget         *float64      `json:"budget"`
	Deadline       *Date         `json:"deadline"`
	DeliveryDate   *Date         `json:"delivery_date"`
	PaymentTerms   string        `json:"payment_terms"`
	WarrantyPeriod string        `json:"warranty_period"`
	Requirements   []Requirement `json:"requirements"`
}

// RFP is a persisted request for proposal.
type RFP struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Budget         *float64      `json:"budget"`
	Deadline       *Date         `json:"deadline"`
	DeliveryDate   *Date         `json:"delivery_date"`
	PaymentTerms   string        `json:"payment_terms"`
	WarrantyPeriod string        `json:"warranty_period"`
	Requirements   []Requirement `json:"requirements"`
	Status         RFPStatus     `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewRFPFromDraft copies the draft fields into a new draft-status RFP.
func NewRFPFromDraft(d *RFPDraft) *RFP {
	reqs := d.Requirements
	if reqs == nil {
		reqs = []Requirement{}
	}
	return &RFP{
		Title:          d.Title,
		Description:    d.Description,
		Budget:         d.Budget,
		Deadline:       d.Deadline,
		DeliveryDate:   d.DeliveryDate,
		PaymentTerms:   d.PaymentTerms,
		WarrantyPeriod: d.WarrantyPeriod,
		Requirements:   reqs,
		Status:         RFPStatusDraft,
	}
}

// Delivery outcomes recorded on an RFP-vendor association.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// RFPVendor records that an RFP was sent (or attempted) to a vendor.
// Replies from the vendor are attributed to their most recent association.
type RFPVendor struct {
	ID             int64     `json:"id"`
	RFPID          int64     `json:"rfp_id"`
	VendorID       int64     `json:"vendor_id"`
	VendorName     string    `json:"vendor_name,omitempty"`
	VendorEmail    string    `json:"vendor_email,omitempty"`
	SentAt         time.Time `json:"sent_at"`
	EmailSubject   string    `json:"email_subject"`
	EmailBody      string    `json:"email_body"`
	MessageID      string    `json:"message_id"`
	DeliveryStatus string    `json:"delivery_status"`
}

// RFPDetail is an RFP with everything attached to it.
type RFPDetail struct {
	RFP       *RFP             `json:"rfp"`
	Proposals []*Proposal      `json:"proposals"`
	Scores    []*ProposalScore `json:"scores"`
	Vendors   []*RFPVendor     `json:"vendors"`
}

// VendorSendResult is the outcome of sending an RFP to one vendor.
// Recorded is true when the association was stored, even if the email
// itself could not be delivered.
type VendorSendResult struct {
	VendorID    int64  `json:"vendor_id"`
	VendorName  string `json:"vendor_name,omitempty"`
	VendorEmail string `json:"vendor_email,omitempty"`
	Recorded    bool   `json:"success"`
	EmailSent   bool   `json:"email_sent"`
	MessageID   string `json:"message_id,omitempty"`
	Warning     string `json:"warning,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SendResult aggregates a send-to-vendors run.
type SendResult struct {
	RFPID   int64              `json:"rfp_id"`
	Sent    int                `json:"sent"`
	Failed  int                `json:"failed"`
	Results []VendorSendResult `json:"results"`
	Message string             `json:"message"`
}
