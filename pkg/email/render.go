package email

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

const notSpecified = "Not specified"

// RFPEmail is a rendered RFP ready to send.
type RFPEmail struct {
	Subject string
	Body    string
}

// RenderRFPEmail builds the plain-text email inviting vendorName to respond
// to rfp. The output depends only on its inputs.
func RenderRFPEmail(vendorName string, rfp *models.RFP) RFPEmail {
	if strings.TrimSpace(vendorName) == "" {
		vendorName = "Vendor"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", vendorName)
	b.WriteString("We are requesting a proposal for the following procurement:\n\n")
	fmt.Fprintf(&b, "%s\n\n", rfp.Title)
	fmt.Fprintf(&b, "Description:\n%s\n\n", rfp.Description)

	b.WriteString("Requirements:\n")
	if len(rfp.Requirements) == 0 {
		b.WriteString("See details in RFP\n")
	}
	for i, req := range rfp.Requirements {
		fmt.Fprintf(&b, "%d. %s", i+1, req.Item)
		if req.Quantity != nil {
			fmt.Fprintf(&b, " (Quantity: %d)", *req.Quantity)
		}
		if req.Specifications != "" {
			fmt.Fprintf(&b, " - %s", req.Specifications)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	budget := notSpecified
	if rfp.Budget != nil {
		budget = models.FormatMoney(*rfp.Budget)
	}
	fmt.Fprintf(&b, "Budget: %s\n", budget)
	fmt.Fprintf(&b, "Delivery Date Required: %s\n", dateOrNotSpecified(rfp.DeliveryDate))
	fmt.Fprintf(&b, "Payment Terms: %s\n", orNotSpecified(rfp.PaymentTerms))
	fmt.Fprintf(&b, "Warranty Required: %s\n", orNotSpecified(rfp.WarrantyPeriod))
	fmt.Fprintf(&b, "Deadline for Response: %s\n\n", dateOrNotSpecified(rfp.Deadline))

	b.WriteString("Please reply to this email with your proposal, including:\n")
	b.WriteString("- Detailed pricing for all items\n")
	b.WriteString("- Payment terms\n")
	b.WriteString("- Delivery timeline\n")
	b.WriteString("- Warranty information\n")
	b.WriteString("- Any additional terms or conditions\n\n")
	b.WriteString("Thank you for your interest.\n\n")
	b.WriteString("Best regards,\nProcurement Team")

	return RFPEmail{
		Subject: "RFP: " + rfp.Title,
		Body:    b.String(),
	}
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func dateOrNotSpecified(d *models.Date) string {
	if d == nil {
		return notSpecified
	}
	return d.String()
}
