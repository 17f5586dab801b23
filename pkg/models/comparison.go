package models

import (
	"encoding/json"

	"github.com/ekaya-inc/ekaya-procure/pkg/jsonutil"
)

// Comparison modes.
const (
	ComparisonModeAI        = "ai"
	ComparisonModeHeuristic = "heuristic"
)

// ScoredProposal is the per-proposal part of a comparison. Scores are 0-100.
type ScoredProposal struct {
	ProposalID           int64   `json:"id"`
	OverallScore         float64 `json:"overall_score"`
	PriceScore           float64 `json:"price_score"`
	TermsScore           float64 `json:"terms_score"`
	CompletenessScore    float64 `json:"completeness_score"`
	RecommendationReason string  `json:"recommendation_reason"`
}

// UnmarshalJSON tolerates ids and scores sent as strings.
func (s *ScoredProposal) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID                   json.RawMessage `json:"id"`
		ProposalID           json.RawMessage `json:"proposal_id"`
		OverallScore         json.RawMessage `json:"overall_score"`
		PriceScore           json.RawMessage `json:"price_score"`
		TermsScore           json.RawMessage `json:"terms_score"`
		CompletenessScore    json.RawMessage `json:"completeness_score"`
		RecommendationReason json.RawMessage `json:"recommendation_reason"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	id := raw.ID
	if len(id) == 0 || string(id) == "null" {
		id = raw.ProposalID
	}
	if v := jsonutil.FlexibleFloat(id); v != nil {
		s.ProposalID = int64(*v)
	}
	s.OverallScore = floatOrZero(raw.OverallScore)
	s.PriceScore = floatOrZero(raw.PriceScore)
	s.TermsScore = floatOrZero(raw.TermsScore)
	s.CompletenessScore = floatOrZero(raw.CompletenessScore)
	s.RecommendationReason = jsonutil.FlexibleStringValue(raw.RecommendationReason)
	return nil
}

func floatOrZero(raw json.RawMessage) float64 {
	if v := jsonutil.FlexibleFloat(raw); v != nil {
		return *v
	}
	return 0
}

// ComparisonResult is the full comparison payload, stored on every score row.
type ComparisonResult struct {
	Proposals      []ScoredProposal `json:"proposals"`
	BestProposalID int64            `json:"best_proposal_id"`
	Summary        string           `json:"summary"`
	KeyDifferences []string         `json:"key_differences"`
	Mode           string           `json:"mode,omitempty"`
}

// ProposalSummary is the compact view of a proposal sent for comparison.
type ProposalSummary struct {
	ID              int64      `json:"id"`
	VendorName      string     `json:"vendor_name"`
	TotalPrice      *float64   `json:"total_price"`
	LineItems       []LineItem `json:"line_items"`
	PaymentTerms    string     `json:"payment_terms"`
	WarrantyPeriod  string     `json:"warranty_period"`
	DeliveryDate    *Date      `json:"delivery_date"`
	AdditionalNotes string     `json:"additional_notes"`
}

// RFPExpectations is what the buyer asked for, as seen by comparison.
type RFPExpectations struct {
	Title          string        `json:"title"`
	Budget         *float64      `json:"budget"`
	DeliveryDate   *Date         `json:"delivery_date"`
	PaymentTerms   string        `json:"payment_terms"`
	WarrantyPeriod string        `json:"warranty_period"`
	Requirements   []Requirement `json:"requirements"`
}

// ComparisonInput is everything the comparison step looks at.
type ComparisonInput struct {
	RFP       RFPExpectations   `json:"rfp"`
	Proposals []ProposalSummary `json:"proposals"`
}

// ComparisonReport is returned to callers of compare: the comparison plus the
// proposals and the scores as stored.
type ComparisonReport struct {
	Comparison *ComparisonResult `json:"comparison"`
	Proposals  []*Proposal       `json:"proposals"`
	Scores     []*ProposalScore  `json:"scores"`
}
