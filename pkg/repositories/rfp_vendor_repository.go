package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// RFPVendorRepository records which vendors an RFP was sent to.
type RFPVendorRepository interface {
	// Upsert stores the association, replacing any earlier send of the same
	// RFP to the same vendor.
	Upsert(ctx context.Context, rv *models.RFPVendor) error
	// GetLatestForVendor returns the most recently sent association for a
	// vendor, or nil, nil when the vendor was never sent an RFP.
	GetLatestForVendor(ctx context.Context, vendorID int64) (*models.RFPVendor, error)
	ListByRFP(ctx context.Context, rfpID int64) ([]*models.RFPVendor, error)
}

type rfpVendorRepository struct {
	store database.Store
}

func NewRFPVendorRepository(store database.Store) RFPVendorRepository {
	return &rfpVendorRepository{store: store}
}

var _ RFPVendorRepository = (*rfpVendorRepository)(nil)

const rfpVendorColumns = `rv.id, rv.rfp_id, rv.vendor_id, v.name, v.email, rv.sent_at,
	rv.email_subject, rv.email_body, rv.message_id, rv.delivery_status`

var (
	upsertRFPVendorStmt = database.Statement{
		Postgres: `
			INSERT INTO rfp_vendors (rfp_id, vendor_id, sent_at, email_subject, email_body, message_id, delivery_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (rfp_id, vendor_id) DO UPDATE
			SET sent_at = EXCLUDED.sent_at,
			    email_subject = EXCLUDED.email_subject,
			    email_body = EXCLUDED.email_body,
			    message_id = EXCLUDED.message_id,
			    delivery_status = EXCLUDED.delivery_status
			RETURNING id`,
		SQLite: `
			INSERT INTO rfp_vendors (rfp_id, vendor_id, sent_at, email_subject, email_body, message_id, delivery_status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (rfp_id, vendor_id) DO UPDATE
			SET sent_at = excluded.sent_at,
			    email_subject = excluded.email_subject,
			    email_body = excluded.email_body,
			    message_id = excluded.message_id,
			    delivery_status = excluded.delivery_status
			RETURNING id`,
	}
	latestRFPVendorStmt = database.Statement{
		Postgres: `
			SELECT ` + rfpVendorColumns + `
			FROM rfp_vendors rv
			JOIN vendors v ON v.id = rv.vendor_id
			WHERE rv.vendor_id = $1
			ORDER BY rv.sent_at DESC, rv.id DESC
			LIMIT 1`,
		SQLite: `
			SELECT ` + rfpVendorColumns + `
			FROM rfp_vendors rv
			JOIN vendors v ON v.id = rv.vendor_id
			WHERE rv.vendor_id = ?
			ORDER BY rv.sent_at DESC, rv.id DESC
			LIMIT 1`,
	}
	listRFPVendorsStmt = database.Statement{
		Postgres: `
			SELECT ` + rfpVendorColumns + `
			FROM rfp_vendors rv
			JOIN vendors v ON v.id = rv.vendor_id
			WHERE rv.rfp_id = $1
			ORDER BY rv.sent_at DESC, rv.id DESC`,
		SQLite: `
			SELECT ` + rfpVendorColumns + `
			FROM rfp_vendors rv
			JOIN vendors v ON v.id = rv.vendor_id
			WHERE rv.rfp_id = ?
			ORDER BY rv.sent_at DESC, rv.id DESC`,
	}
)

func (r *rfpVendorRepository) Upsert(ctx context.Context, rv *models.RFPVendor) error {
	if rv.SentAt.IsZero() {
		rv.SentAt = now()
	}
	if rv.DeliveryStatus == "" {
		rv.DeliveryStatus = models.DeliveryStatusSent
	}

	err := r.store.QueryRow(ctx, upsertRFPVendorStmt,
		rv.RFPID,
		rv.VendorID,
		rv.SentAt.UTC(),
		rv.EmailSubject,
		rv.EmailBody,
		rv.MessageID,
		rv.DeliveryStatus,
	).Scan(&rv.ID)
	if err != nil {
		return fmt.Errorf("failed to record rfp vendor: %w", err)
	}
	return nil
}

func (r *rfpVendorRepository) GetLatestForVendor(ctx context.Context, vendorID int64) (*models.RFPVendor, error) {
	rv, err := scanRFPVendor(r.store.QueryRow(ctx, latestRFPVendorStmt, vendorID))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest rfp for vendor: %w", err)
	}
	return rv, nil
}

func (r *rfpVendorRepository) ListByRFP(ctx context.Context, rfpID int64) ([]*models.RFPVendor, error) {
	rows, err := r.store.Query(ctx, listRFPVendorsStmt, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rfp vendors: %w", err)
	}
	defer rows.Close()

	result := []*models.RFPVendor{}
	for rows.Next() {
		rv, err := scanRFPVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rfp vendor: %w", err)
		}
		result = append(result, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rfp vendors: %w", err)
	}
	return result, nil
}

func scanRFPVendor(row database.Row) (*models.RFPVendor, error) {
	var (
		rv                       models.RFPVendor
		subject, body, messageID sql.NullString
	)
	err := row.Scan(
		&rv.ID, &rv.RFPID, &rv.VendorID, &rv.VendorName, &rv.VendorEmail,
		scanTime(&rv.SentAt), &subject, &body, &messageID, &rv.DeliveryStatus,
	)
	if err != nil {
		return nil, err
	}
	rv.EmailSubject = subject.String
	rv.EmailBody = body.String
	rv.MessageID = messageID.String
	return &rv, nil
}
