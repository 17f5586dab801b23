package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return models.FormatMoney(*v)
}

func date(d *models.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printVendors(w io.Writer, vendors []*models.Vendor) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCONTACT\tPHONE")
	for _, v := range vendors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Email, orDash(v.ContactPerson), orDash(v.Phone))
	}
	return tw.Flush()
}

func printRFPs(w io.Writer, rfps []*models.RFP) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tBUDGET\tDELIVERY\tCREATED")
	for _, r := range rfps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Title, r.Status, money(r.Budget), date(r.DeliveryDate), r.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func printRFP(w io.Writer, r *models.RFP) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", r.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", r.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Budget:\t%s\n", money(r.Budget))
	fmt.Fprintf(tw, "Delivery:\t%s\n", date(r.DeliveryDate))
	fmt.Fprintf(tw, "Deadline:\t%s\n", date(r.Deadline))
	fmt.Fprintf(tw, "Payment terms:\t%s\n", orDash(r.PaymentTerms))
	fmt.Fprintf(tw, "Warranty:\t%s\n", orDash(r.WarrantyPeriod))
	for i, req := range r.Requirements {
		qty := "-"
		if req.Quantity != nil {
			qty = fmt.Sprint(*req.Quantity)
		}
		fmt.Fprintf(tw, "Requirement %d:\t%s (qty %s) %s\n", i+1, req.Item, qty, req.Specifications)
	}
	return tw.Flush()
}

func printSendResult(w io.Writer, res *models.SendResult) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "VENDOR\tRECORDED\tEMAILED\tMESSAGE ID\tNOTE")
	for _, r := range res.Results {
		note := r.Warning
		if r.Error != "" {
			note = r.Error
		}
		fmt.Fprintf(tw, "%d\t%t\t%t\t%s\t%s\n", r.VendorID, r.Recorded, r.EmailSent, orDash(r.MessageID), orDash(note))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, res.Message)
	return err
}

func printMailboxResult(w io.Writer, res *models.MailboxCheckResult) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "FROM\tSUBJECT\tPROCESSED\tPROPOSAL\tERROR")
	for _, e := range res.Emails {
		proposal := "-"
		if e.ProposalID != 0 {
			proposal = fmt.Sprint(e.ProposalID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", e.From, orDash(e.Subject), e.Processed, proposal, orDash(e.Error))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d message(s): %d processed, %d failed\n", res.Total, res.Processed, res.Failed)
	return err
}

func printComparison(w io.Writer, report *models.ComparisonReport) error {
	names := make(map[int64]string, len(report.Proposals))
	for _, p := range report.Proposals {
		names[p.ID] = orDash(p.VendorName)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "PROPOSAL\tVENDOR\tOVERALL\tPRICE\tTERMS\tCOMPLETENESS")
	for _, s := range report.Scores {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
			s.ProposalID, names[s.ProposalID], s.OverallScore, s.PriceScore, s.TermsScore, s.CompletenessScore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c := report.Comparison; c != nil {
		fmt.Fprintf(w, "\nBest proposal: %d (%s mode)\n%s\n", c.BestProposalID, c.Mode, c.Summary)
		for _, d := range c.KeyDifferences {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}
	return nil
}
