package extraction

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-procure/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// Placeholder scores used when no model judges terms and completeness.
const (
	heuristicTermsScore           = 70
	heuristicCompletenessScore    = 70
	heuristicUnpricedCompleteness = 40
)

var (
	requirementPattern = regexp.MustCompile(`(\d+)\s+([a-zA-Z][^,;.\n]*?)(?:\s+(?:with|having|featuring)\s+([^,;.\n]+))?(?:[,;.\n]|\s+and\s|$)`)
	budgetPattern      = regexp.MustCompile(`(?i)budget[^$\d\n]{0,20}\$?\s*(\d[\d,]*(?:\.\d+)?(?:\s*(?:k|m|thousand|million)\b)?)`)
	dollarPattern      = regexp.MustCompile(`(?i)\$\s*(\d[\d,]*(?:\.\d+)?(?:\s*(?:k|m|thousand|million)\b)?)`)
	netTermsPattern    = regexp.MustCompile(`(?i)\bnet\s*-?\s*(\d+)\b`)
	paymentPattern     = regexp.MustCompile(`(?i)payment terms?\s*(?:of|are|is|:)?\s*([^,;.\n]+)`)

	warrantyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)[\s-]*(year|yr|month)s?\b[^,;.\n]{0,20}warranty`),
		regexp.MustCompile(`(?i)warranty[^,;.\n\d]{0,30}(\d+)[\s-]*(year|yr|month)s?\b`),
	}

	deliveryWithinPattern = regexp.MustCompile(`(?i)deliver(?:y|ed)?[^,;.\n\d]*?(?:with)?in\s+(\d+)\s*(day|week|month)s?\b`)
	deliveryAfterPattern  = regexp.MustCompile(`(?i)(\d+)\s*(day|week|month)s?\s+delivery`)
	deliveryDatePattern   = regexp.MustCompile(`(?i)deliver[^\n]*?(\d{4}-\d{2}-\d{2})`)
	deadlineWithinPattern = regexp.MustCompile(`(?i)(?:deadline|respond|responses?|proposals?\s+due|due)[^,;.\n\d]*?(?:with)?in\s+(\d+)\s*(day|week|month)s?\b`)
	deadlineDatePattern   = regexp.MustCompile(`(?i)(?:deadline|due|respond by)[^\n]*?(\d{4}-\d{2}-\d{2})`)

	lineItemPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:(?:x|×)\s+)?([A-Za-z][^@\n]*?)\s*(?:@|\bat\b)\s*\$\s*(\d[\d,]*(?:\.\d+)?)`)
	totalPattern    = regexp.MustCompile(`(?i)\b(?:grand total|total|quoted?)\b[^$\d\n]{0,30}\$\s*(\d[\d,]*(?:\.\d+)?(?:\s*(?:k|m)\b)?)`)
	notesPattern    = regexp.MustCompile(`(?im)^\s*(?:additional\s+)?notes?\s*:\s*(.+)$`)
)

// Words that follow a number without naming something to buy.
var nonItemWords = map[string]bool{
	"day": true, "days": true, "week": true, "weeks": true,
	"month": true, "months": true, "year": true, "years": true, "yr": true, "yrs": true,
	"payment": true, "percent": true, "budget": true, "usd": true, "dollars": true,
}

// HeuristicExtractor reads procurement text with regular expressions. It is
// deterministic and never fails.
type HeuristicExtractor struct {
	now func() time.Time
}

var _ Extractor = (*HeuristicExtractor)(nil)

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{now: time.Now}
}

func (h *HeuristicExtractor) Mode() string {
	return models.ComparisonModeHeuristic
}

func (h *HeuristicExtractor) today() models.Date {
	return models.NewDate(h.now())
}

func (h *HeuristicExtractor) ExtractRFP(_ context.Context, text string) (*models.RFPExtraction, error) {
	text = strings.TrimSpace(text)
	out := &models.RFPExtraction{
		Description:  text,
		Requirements: parseRequirements(text),
		Budget:       parseBudget(text),
		PaymentTerms: parsePaymentTerms(text),
	}
	out.WarrantyPeriod = parseWarranty(text)
	out.Title = DeriveTitle(out.Requirements, text)

	if d := firstDate(deliveryDatePattern, text); d != nil {
		out.DeliveryDate = d
	} else if n := firstDuration(text, deliveryWithinPattern, deliveryAfterPattern); n != nil {
		out.DeliveryInDays = n
	}
	if d := firstDate(deadlineDatePattern, text); d != nil {
		out.Deadline = d
	} else if n := firstDuration(text, deadlineWithinPattern); n != nil {
		out.DeadlineInDays = n
	}
	return out, nil
}

func (h *HeuristicExtractor) ExtractProposal(_ context.Context, subject, body string) (*models.ProposalExtraction, error) {
	text := strings.TrimSpace(body)
	out := &models.ProposalExtraction{
		LineItems:      parseLineItems(text),
		PaymentTerms:   parsePaymentTerms(text),
		WarrantyPeriod: parseWarranty(text),
	}

	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if v, ok := jsonutil.ParseAmount(m[1]); ok {
			out.TotalPrice = &v
		}
	}
	if out.TotalPrice == nil && len(out.LineItems) > 0 {
		var sum float64
		for _, li := range out.LineItems {
			if li.TotalPrice != nil {
				sum += *li.TotalPrice
			}
		}
		out.TotalPrice = &sum
	}
	if out.TotalPrice == nil {
		out.TotalPrice = firstDollarAmount(text)
	}

	if d := firstDate(deliveryDatePattern, text); d != nil {
		out.DeliveryDate = d
	} else if n := firstDuration(text, deliveryWithinPattern, deliveryAfterPattern); n != nil {
		d := h.today().AddDays(*n)
		out.DeliveryDate = &d
	}

	if m := notesPattern.FindStringSubmatch(text); m != nil {
		out.AdditionalNotes = strings.TrimSpace(m[1])
	} else if s := strings.TrimSpace(subject); s != "" {
		out.AdditionalNotes = "Subject: " + s
	}
	return out, nil
}

func (h *HeuristicExtractor) CompareProposals(_ context.Context, input *models.ComparisonInput) (*models.ComparisonResult, error) {
	return ScoreByPrice(input), nil
}

func parseRequirements(text string) []models.Requirement {
	reqs := []models.Requirement{}
	for _, idx := range requirementPattern.FindAllStringSubmatchIndex(text, -1) {
		start := idx[0]
		if !startsNumber(text, start) {
			continue
		}
		if strings.HasSuffix(strings.ToLower(text[:start]), "net ") {
			continue
		}

		item := strings.TrimSpace(text[idx[4]:idx[5]])
		first := strings.ToLower(strings.Fields(item)[0])
		if nonItemWords[first] {
			continue
		}
		qty, err := strconv.Atoi(text[idx[2]:idx[3]])
		if err != nil {
			continue
		}

		req := models.Requirement{Item: item, Quantity: &qty}
		if idx[6] >= 0 {
			req.Specifications = strings.TrimSpace(text[idx[6]:idx[7]])
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// startsNumber reports whether a number beginning at i stands on its own
// rather than continuing an amount such as "$50,000".
func startsNumber(text string, i int) bool {
	if i == 0 {
		return true
	}
	switch prev := text[i-1]; {
	case prev == '$', prev == ',', prev == '.':
		return false
	case prev >= '0' && prev <= '9':
		return false
	}
	return true
}

func parseBudget(text string) *float64 {
	if m := budgetPattern.FindStringSubmatch(text); m != nil {
		if v, ok := jsonutil.ParseAmount(m[1]); ok {
			return &v
		}
	}
	return firstDollarAmount(text)
}

func firstDollarAmount(text string) *float64 {
	if m := dollarPattern.FindStringSubmatch(text); m != nil {
		if v, ok := jsonutil.ParseAmount(m[1]); ok {
			return &v
		}
	}
	return nil
}

func parsePaymentTerms(text string) string {
	if m := netTermsPattern.FindStringSubmatch(text); m != nil {
		return "net " + m[1]
	}
	if m := paymentPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func parseWarranty(text string) string {
	for _, p := range warrantyPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		unit := "year"
		if strings.HasPrefix(strings.ToLower(m[2]), "month") {
			unit = "month"
		}
		if n != 1 {
			unit += "s"
		}
		return fmt.Sprintf("%d %s", n, unit)
	}
	return ""
}

func firstDate(p *regexp.Regexp, text string) *models.Date {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	d, err := models.ParseDate(m[1])
	if err != nil {
		return nil
	}
	return &d
}

// firstDuration returns the first "N days/weeks/months" match, in days.
func firstDuration(text string, patterns ...*regexp.Regexp) *int {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "week":
			n *= 7
		case "month":
			n *= 30
		}
		return &n
	}
	return nil
}

func parseLineItems(text string) []models.LineItem {
	var items []models.LineItem
	for _, idx := range lineItemPattern.FindAllStringSubmatchIndex(text, -1) {
		if !startsNumber(text, idx[0]) {
			continue
		}
		qty, err := strconv.ParseFloat(text[idx[2]:idx[3]], 64)
		if err != nil {
			continue
		}
		unit, ok := jsonutil.ParseAmount(text[idx[6]:idx[7]])
		if !ok {
			continue
		}
		total := qty * unit
		items = append(items, models.LineItem{
			Item:       strings.TrimSpace(text[idx[4]:idx[5]]),
			Quantity:   &qty,
			UnitPrice:  &unit,
			TotalPrice: &total,
		})
	}
	return items
}

// ScoreByPrice ranks proposals on price alone. With a budget the price score
// is 100 - price/budget*100, otherwise the cheapest offer scores 100 and the
// rest proportionally less. Scores are clamped to 0-100 and proposals
// without a price score 0 on price and sort last.
func ScoreByPrice(input *models.ComparisonInput) *models.ComparisonResult {
	result := &models.ComparisonResult{
		Proposals:      []models.ScoredProposal{},
		KeyDifferences: []string{},
		Mode:           models.ComparisonModeHeuristic,
	}
	if input == nil || len(input.Proposals) == 0 {
		result.Summary = "No proposals to compare."
		return result
	}

	sorted := make([]models.ProposalSummary, len(input.Proposals))
	copy(sorted, input.Proposals)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].TotalPrice, sorted[j].TotalPrice
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})

	cheapest := sorted[0]
	budget := input.RFP.Budget
	for _, p := range sorted {
		result.Proposals = append(result.Proposals, scoreOne(p, cheapest, budget))
	}

	if cheapest.TotalPrice != nil {
		result.BestProposalID = cheapest.ID
		result.Summary = fmt.Sprintf("Compared %d proposal(s) on price. %s offers the lowest total at %s.",
			len(sorted), vendorLabel(cheapest), models.FormatMoney(*cheapest.TotalPrice))
	} else {
		result.BestProposalID = result.Proposals[0].ProposalID
		result.Summary = fmt.Sprintf("Compared %d proposal(s); none stated a total price.", len(sorted))
	}
	result.KeyDifferences = keyDifferences(sorted, budget)
	return result
}

func scoreOne(p, cheapest models.ProposalSummary, budget *float64) models.ScoredProposal {
	scored := models.ScoredProposal{
		ProposalID:        p.ID,
		TermsScore:        heuristicTermsScore,
		CompletenessScore: heuristicCompletenessScore,
	}

	switch {
	case p.TotalPrice == nil:
		scored.CompletenessScore = heuristicUnpricedCompleteness
		scored.RecommendationReason = "No total price stated."
	case budget != nil && *budget > 0:
		scored.PriceScore = ClampScore(100 - *p.TotalPrice / *budget * 100)
	case *p.TotalPrice > 0:
		scored.PriceScore = ClampScore(*cheapest.TotalPrice / *p.TotalPrice * 100)
	default:
		scored.PriceScore = 100
	}

	if p.TotalPrice != nil {
		if p.ID == cheapest.ID {
			scored.RecommendationReason = "Lowest price among submitted proposals."
		} else {
			scored.RecommendationReason = fmt.Sprintf("Priced %s above the lowest offer.",
				models.FormatMoney(*p.TotalPrice-*cheapest.TotalPrice))
		}
		if budget != nil && *p.TotalPrice > *budget {
			scored.RecommendationReason += " Exceeds the budget."
		}
	}

	scored.PriceScore = round1(scored.PriceScore)
	scored.OverallScore = round1(0.5*scored.PriceScore + 0.25*scored.TermsScore + 0.25*scored.CompletenessScore)
	return scored
}

func keyDifferences(sorted []models.ProposalSummary, budget *float64) []string {
	diffs := []string{}

	var priced []models.ProposalSummary
	for _, p := range sorted {
		if p.TotalPrice != nil {
			priced = append(priced, p)
		}
	}
	if len(priced) > 1 {
		lo, hi := priced[0], priced[len(priced)-1]
		diffs = append(diffs, fmt.Sprintf("Prices range from %s (%s) to %s (%s).",
			models.FormatMoney(*lo.TotalPrice), vendorLabel(lo),
			models.FormatMoney(*hi.TotalPrice), vendorLabel(hi)))
	}
	if missing := len(sorted) - len(priced); missing > 0 {
		diffs = append(diffs, fmt.Sprintf("%d proposal(s) did not state a total price.", missing))
	}
	if budget != nil {
		over := 0
		for _, p := range priced {
			if *p.TotalPrice > *budget {
				over++
			}
		}
		if over > 0 {
			diffs = append(diffs, fmt.Sprintf("%d proposal(s) exceed the budget of %s.", over, models.FormatMoney(*budget)))
		}
	}
	if terms := distinct(sorted, func(p models.ProposalSummary) string { return p.PaymentTerms }); len(terms) > 1 {
		diffs = append(diffs, "Payment terms differ: "+strings.Join(terms, ", ")+".")
	}
	if warranties := distinct(sorted, func(p models.ProposalSummary) string { return p.WarrantyPeriod }); len(warranties) > 1 {
		diffs = append(diffs, "Warranty periods differ: "+strings.Join(warranties, ", ")+".")
	}
	return diffs
}

func distinct(ps []models.ProposalSummary, field func(models.ProposalSummary) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range ps {
		v := strings.TrimSpace(field(p))
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

func vendorLabel(p models.ProposalSummary) string {
	if p.VendorName != "" {
		return p.VendorName
	}
	return fmt.Sprintf("Proposal %d", p.ID)
}

// ClampScore limits a score to 0-100.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
