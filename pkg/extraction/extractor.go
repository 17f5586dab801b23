// Package extraction turns free text into structured procurement data. The
// language-model implementation falls back to a deterministic regex
// heuristic whenever the model is unavailable or replies with unusable JSON.
package extraction

import (
	"context"
	"strings"
	"unicode"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// Extraction kinds, used for logging and metrics.
const (
	KindRFP        = "rfp"
	KindProposal   = "proposal"
	KindComparison = "comparison"
)

// Extractor is the boundary between the services and whatever produces
// structured data from text.
type Extractor interface {
	// ExtractRFP reads a plain-text procurement request.
	ExtractRFP(ctx context.Context, text string) (*models.RFPExtraction, error)
	// ExtractProposal reads a vendor reply.
	ExtractProposal(ctx context.Context, subject, body string) (*models.ProposalExtraction, error)
	// CompareProposals scores proposals against the RFP's expectations.
	CompareProposals(ctx context.Context, input *models.ComparisonInput) (*models.ComparisonResult, error)
	// Mode is "ai" or "heuristic".
	Mode() string
}

const maxTitleLen = 80

// DeriveTitle builds a title when none was extracted: from the first
// requirement when there is one, otherwise from the first sentence of text.
func DeriveTitle(reqs []models.Requirement, text string) string {
	for _, r := range reqs {
		if item := strings.TrimSpace(r.Item); item != "" {
			return "Procurement of " + capitalize(item)
		}
	}

	sentence := strings.TrimSpace(text)
	if i := strings.IndexAny(sentence, ".!?\n"); i > 0 {
		sentence = sentence[:i]
	}
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return "Untitled RFP"
	}
	if runes := []rune(sentence); len(runes) > maxTitleLen {
		sentence = strings.TrimSpace(string(runes[:maxTitleLen])) + "..."
	}
	return capitalize(sentence)
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
