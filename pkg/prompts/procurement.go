package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// Sampling temperatures per task. Proposal parsing runs cooler because it
// copies figures rather than summarizing.
const (
	RFPTemperature        = 0.3
	ProposalTemperature   = 0.2
	ComparisonTemperature = 0.3
)

// BuildRFPPrompt asks for a structured RFP from a plain-text request. today
// anchors relative phrases such as "within 30 days".
func BuildRFPPrompt(request string, today models.Date) string {
	var prompt strings.Builder

	prompt.WriteString("# Procurement Request\n\n")
	prompt.WriteString("Convert the following procurement request into a structured RFP (Request for Proposal).\n\n")
	prompt.WriteString(fmt.Sprintf("Today's date: %s\n\n", today))
	prompt.WriteString("Request:\n")
	prompt.WriteString(fmt.Sprintf("%q\n\n", request))

	prompt.WriteString("## Fields\n\n")
	prompt.WriteString("- `title`: a clear, concise title for the RFP\n")
	prompt.WriteString("- `description`: the full description of what needs to be procured\n")
	prompt.WriteString("- `budget`: total budget as a number, or null if not specified\n")
	prompt.WriteString("- `deadline`: when proposals are due (YYYY-MM-DD), or null\n")
	prompt.WriteString("- `delivery_date`: when delivery is needed (YYYY-MM-DD), or null\n")
	prompt.WriteString("- `delivery_in_days`: if delivery is given relative to today (\"within 30 days\"), the number of days; otherwise null\n")
	prompt.WriteString("- `deadline_in_days`: the same for the proposal deadline\n")
	prompt.WriteString("- `payment_terms`: payment terms mentioned (e.g. \"net 30\")\n")
	prompt.WriteString("- `warranty_period`: warranty requirement (e.g. \"1 year\")\n")
	prompt.WriteString("- `requirements`: array of items, each with `item`, `quantity` (number, if specified) and `specifications`\n\n")

	prompt.WriteString("Example:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "title": "Office Equipment Procurement",
  "description": "Procurement of laptops and monitors for new office",
  "budget": 50000,
  "deadline": null,
  "delivery_date": null,
  "delivery_in_days": 30,
  "deadline_in_days": null,
  "payment_terms": "net 30",
  "warranty_period": "1 year",
  "requirements": [
    {"item": "Laptops", "quantity": 20, "specifications": "16GB RAM"},
    {"item": "Monitors", "quantity": 15, "specifications": "27-inch"}
  ]
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY valid JSON, no additional text.\n")

	return prompt.String()
}

// RFPSystemMessage returns the system message for RFP structuring.
func RFPSystemMessage() string {
	return `You are a procurement assistant that converts natural language into structured RFP data. Always return valid JSON only.`
}

// BuildProposalPrompt asks for the structured content of a vendor reply.
func BuildProposalPrompt(subject, body string) string {
	var prompt strings.Builder

	prompt.WriteString("# Vendor Proposal Email\n\n")
	prompt.WriteString("Parse the following vendor proposal email into structured JSON data.\n\n")
	prompt.WriteString(fmt.Sprintf("Email Subject: %q\n", subject))
	prompt.WriteString(fmt.Sprintf("Email Body: %q\n\n", body))

	prompt.WriteString("## Fields\n\n")
	prompt.WriteString("- `total_price`: total price quoted as a number, or null if not found\n")
	prompt.WriteString("- `line_items`: array of items with `item`, `quantity`, `unit_price` and `total_price`\n")
	prompt.WriteString("- `payment_terms`: payment terms offered (e.g. \"net 30\")\n")
	prompt.WriteString("- `warranty_period`: warranty offered (e.g. \"2 years\")\n")
	prompt.WriteString("- `delivery_date`: proposed delivery date (YYYY-MM-DD), or null\n")
	prompt.WriteString("- `additional_notes`: any other terms, conditions or notes\n\n")

	prompt.WriteString("Use null for any field that is not in the email.\n")
	prompt.WriteString("Return ONLY valid JSON, no additional text.\n")

	return prompt.String()
}

// ProposalSystemMessage returns the system message for proposal parsing.
func ProposalSystemMessage() string {
	return `You are a procurement assistant that extracts structured data from vendor proposal emails. Always return valid JSON only.`
}

// BuildComparisonPrompt asks for per-proposal scores and a recommendation.
func BuildComparisonPrompt(input *models.ComparisonInput) (string, error) {
	proposals, err := json.MarshalIndent(input.Proposals, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal proposals: %w", err)
	}

	var prompt strings.Builder

	prompt.WriteString("# Proposal Comparison\n\n")
	prompt.WriteString("Compare the following vendor proposals for an RFP and recommend one.\n\n")

	prompt.WriteString("## RFP Details\n\n")
	prompt.WriteString(fmt.Sprintf("- Title: %s\n", orNotSpecified(input.RFP.Title)))
	if input.RFP.Budget != nil {
		prompt.WriteString(fmt.Sprintf("- Budget: %.2f\n", *input.RFP.Budget))
	} else {
		prompt.WriteString("- Budget: Not specified\n")
	}
	if input.RFP.DeliveryDate != nil {
		prompt.WriteString(fmt.Sprintf("- Delivery Required: %s\n", input.RFP.DeliveryDate))
	} else {
		prompt.WriteString("- Delivery Required: Not specified\n")
	}
	prompt.WriteString(fmt.Sprintf("- Payment Terms Required: %s\n", orNotSpecified(input.RFP.PaymentTerms)))
	prompt.WriteString(fmt.Sprintf("- Warranty Required: %s\n", orNotSpecified(input.RFP.WarrantyPeriod)))
	for _, req := range input.RFP.Requirements {
		if req.Quantity != nil {
			prompt.WriteString(fmt.Sprintf("- Requirement: %s x%d %s\n", req.Item, *req.Quantity, req.Specifications))
		} else {
			prompt.WriteString(fmt.Sprintf("- Requirement: %s %s\n", req.Item, req.Specifications))
		}
	}

	prompt.WriteString("\n## Proposals\n\n")
	prompt.WriteString("```json\n")
	prompt.Write(proposals)
	prompt.WriteString("\n```\n\n")

	prompt.WriteString("## Scoring\n\n")
	prompt.WriteString("For each proposal return, on a 0-100 scale:\n")
	prompt.WriteString("- `id`: the proposal id from the input\n")
	prompt.WriteString("- `overall_score`\n")
	prompt.WriteString("- `price_score`: lower price scores higher when within budget\n")
	prompt.WriteString("- `terms_score`: alignment of payment terms, warranty and delivery\n")
	prompt.WriteString("- `completeness_score`: how well it covers every requirement\n")
	prompt.WriteString("- `recommendation_reason`: a brief explanation\n\n")

	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "proposals": [
    {"id": 1, "overall_score": 85, "price_score": 90, "terms_score": 80, "completeness_score": 85, "recommendation_reason": "..."}
  ],
  "best_proposal_id": 1,
  "summary": "brief summary comparing all proposals",
  "key_differences": ["difference 1", "difference 2"]
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY valid JSON, no additional text.\n")

	return prompt.String(), nil
}

// ComparisonSystemMessage returns the system message for comparison.
func ComparisonSystemMessage() string {
	return `You are a procurement analyst that compares vendor proposals. Always return valid JSON only.`
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
