package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// ProposalRepository provides data access for vendor proposals.
type ProposalRepository interface {
	// Upsert stores the proposal keyed on (rfp, vendor). A second reply from
	// the same vendor to the same RFP replaces the first.
	Upsert(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id int64) (*models.Proposal, error)
	ListByRFP(ctx context.Context, rfpID int64) ([]*models.Proposal, error)
}

type proposalRepository struct {
	store database.Store
}

func NewProposalRepository(store database.Store) ProposalRepository {
	return &proposalRepository{store: store}
}

var _ ProposalRepository = (*proposalRepository)(nil)

const proposalColumns = `p.id, p.rfp_id, p.vendor_id, v.name, v.email, p.email_message_id,
	p.email_subject, p.email_body, p.total_price, p.line_items, p.payment_terms,
	p.warranty_period, p.delivery_date, p.additional_notes, p.extracted_data,
	p.created_at, p.updated_at`

var (
	upsertProposalStmt = database.Statement{
		Postgres: `
			INSERT INTO proposals (rfp_id, vendor_id, email_message_id, email_subject, email_body,
			                       total_price, line_items, payment_terms, warranty_period,
			                       delivery_date, additional_notes, extracted_data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (rfp_id, vendor_id) DO UPDATE
			SET email_message_id = EXCLUDED.email_message_id,
			    email_subject = EXCLUDED.email_subject,
			    email_body = EXCLUDED.email_body,
			    total_price = EXCLUDED.total_price,
			    line_items = EXCLUDED.line_items,
			    payment_terms = EXCLUDED.payment_terms,
			    warranty_period = EXCLUDED.warranty_period,
			    delivery_date = EXCLUDED.delivery_date,
			    additional_notes = EXCLUDED.additional_notes,
			    extracted_data = EXCLUDED.extracted_data,
			    updated_at = EXCLUDED.updated_at
			RETURNING id, created_at, updated_at`,
		SQLite: `
			INSERT INTO proposals (rfp_id, vendor_id, email_message_id, email_subject, email_body,
			                       total_price, line_items, payment_terms, warranty_period,
			                       delivery_date, additional_notes, extracted_data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (rfp_id, vendor_id) DO UPDATE
			SET email_message_id = excluded.email_message_id,
			    email_subject = excluded.email_subject,
			    email_body = excluded.email_body,
			    total_price = excluded.total_price,
			    line_items = excluded.line_items,
			    payment_terms = excluded.payment_terms,
			    warranty_period = excluded.warranty_period,
			    delivery_date = excluded.delivery_date,
			    additional_notes = excluded.additional_notes,
			    extracted_data = excluded.extracted_data,
			    updated_at = excluded.updated_at
			RETURNING id, created_at, updated_at`,
	}
	getProposalStmt = database.Statement{
		Postgres: `
			SELECT ` + proposalColumns + `
			FROM proposals p
			JOIN vendors v ON v.id = p.vendor_id
			WHERE p.id = $1`,
		SQLite: `
			SELECT ` + proposalColumns + `
			FROM proposals p
			JOIN vendors v ON v.id = p.vendor_id
			WHERE p.id = ?`,
	}
	listProposalsByRFPStmt = database.Statement{
		Postgres: `
			SELECT ` + proposalColumns + `
			FROM proposals p
			JOIN vendors v ON v.id = p.vendor_id
			WHERE p.rfp_id = $1
			ORDER BY p.created_at DESC, p.id DESC`,
		SQLite: `
			SELECT ` + proposalColumns + `
			FROM proposals p
			JOIN vendors v ON v.id = p.vendor_id
			WHERE p.rfp_id = ?
			ORDER BY p.created_at DESC, p.id DESC`,
	}
)

func (r *proposalRepository) Upsert(ctx context.Context, p *models.Proposal) error {
	if p.LineItems == nil {
		p.LineItems = []models.LineItem{}
	}

	lineItems, err := jsonText(p.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	var extracted any
	if p.ExtractedData != nil {
		text, err := jsonText(p.ExtractedData)
		if err != nil {
			return fmt.Errorf("failed to marshal extracted data: %w", err)
		}
		extracted = text
	}

	ts := now()
	err = r.store.QueryRow(ctx, upsertProposalStmt,
		p.RFPID,
		p.VendorID,
		p.EmailMessageID,
		p.EmailSubject,
		p.EmailBody,
		p.TotalPrice,
		lineItems,
		p.PaymentTerms,
		p.WarrantyPeriod,
		dateArg(p.DeliveryDate),
		p.AdditionalNotes,
		extracted,
		ts,
		ts,
	).Scan(&p.ID, scanTime(&p.CreatedAt), scanTime(&p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	return nil
}

// GetByID returns the proposal with vendor name and email, or nil, nil.
func (r *proposalRepository) GetByID(ctx context.Context, id int64) (*models.Proposal, error) {
	p, err := scanProposal(r.store.QueryRow(ctx, getProposalStmt, id))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return p, nil
}

// ListByRFP returns the RFP's proposals, newest first.
func (r *proposalRepository) ListByRFP(ctx context.Context, rfpID int64) ([]*models.Proposal, error) {
	rows, err := r.store.Query(ctx, listProposalsByRFPStmt, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	proposals := []*models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposals: %w", err)
	}
	return proposals, nil
}

func scanProposal(row database.Row) (*models.Proposal, error) {
	var (
		p                        models.Proposal
		messageID, subject, body sql.NullString
		terms, warranty, notes   sql.NullString
		total                    sql.NullFloat64
		lineItems, extracted     []byte
	)
	err := row.Scan(
		&p.ID, &p.RFPID, &p.VendorID, &p.VendorName, &p.VendorEmail,
		&messageID, &subject, &body, &total, &lineItems, &terms, &warranty,
		scanDate(&p.DeliveryDate), &notes, &extracted,
		scanTime(&p.CreatedAt), scanTime(&p.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}

	p.EmailMessageID = messageID.String
	p.EmailSubject = subject.String
	p.EmailBody = body.String
	p.TotalPrice = floatPtr(total)
	p.PaymentTerms = terms.String
	p.WarrantyPeriod = warranty.String
	p.AdditionalNotes = notes.String

	p.LineItems = []models.LineItem{}
	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &p.LineItems); err != nil {
			return nil, fmt.Errorf("failed to decode line items: %w", err)
		}
	}
	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &p.ExtractedData); err != nil {
			return nil, fmt.Errorf("failed to decode extracted data: %w", err)
		}
	}
	return &p, nil
}
