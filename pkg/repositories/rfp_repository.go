package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// RFPRepository provides data access for RFPs.
type RFPRepository interface {
	Create(ctx context.Context, rfp *models.RFP) error
	GetByID(ctx context.Context, id int64) (*models.RFP, error)
	List(ctx context.Context) ([]*models.RFP, error)
	UpdateStatus(ctx context.Context, id int64, status models.RFPStatus) error
}

type rfpRepository struct {
	store database.Store
}

// NewRFPRepository creates an RFP repository on top of store.
func NewRFPRepository(store database.Store) RFPRepository {
	return &rfpRepository{store: store}
}

var _ RFPRepository = (*rfpRepository)(nil)

const rfpColumns = `id, title, description, budget, deadline, delivery_date, payment_terms,
	warranty_period, requirements, status, created_at, updated_at`

var (
	insertRFPStmt = database.Statement{
		Postgres: `
			INSERT INTO rfps (title, description, budget, deadline, delivery_date, payment_terms,
			                  warranty_period, requirements, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
		SQLite: `
			INSERT INTO rfps (title, description, budget, deadline, delivery_date, payment_terms,
			                  warranty_period, requirements, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
	}
	getRFPStmt = database.Statement{
		Postgres: `SELECT ` + rfpColumns + ` FROM rfps WHERE id = $1`,
		SQLite:   `SELECT ` + rfpColumns + ` FROM rfps WHERE id = ?`,
	}
	listRFPsStmt = database.Raw(`SELECT ` + rfpColumns + ` FROM rfps ORDER BY created_at DESC, id DESC`)

	updateRFPStatusStmt = database.Statement{
		Postgres: `UPDATE rfps SET status = $1, updated_at = $2 WHERE id = $3`,
		SQLite:   `UPDATE rfps SET status = ?, updated_at = ? WHERE id = ?`,
	}
)

// Create persists rfp and fills in its id and timestamps. A zero status is
// stored as draft.
func (r *rfpRepository) Create(ctx context.Context, rfp *models.RFP) error {
	if rfp.Status == "" {
		rfp.Status = models.RFPStatusDraft
	}
	if rfp.Requirements == nil {
		rfp.Requirements = []models.Requirement{}
	}

	reqs, err := jsonText(rfp.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	ts := now()
	err = r.store.QueryRow(ctx, insertRFPStmt,
		rfp.Title,
		rfp.Description,
		rfp.Budget,
		dateArg(rfp.Deadline),
		dateArg(rfp.DeliveryDate),
		rfp.PaymentTerms,
		rfp.WarrantyPeriod,
		reqs,
		string(rfp.Status),
		ts,
		ts,
	).Scan(&rfp.ID)
	if err != nil {
		return fmt.Errorf("failed to create rfp: %w", err)
	}

	rfp.CreatedAt = ts
	rfp.UpdatedAt = ts
	return nil
}

// GetByID returns nil, nil when no RFP has that id.
func (r *rfpRepository) GetByID(ctx context.Context, id int64) (*models.RFP, error) {
	rfp, err := scanRFP(r.store.QueryRow(ctx, getRFPStmt, id))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rfp: %w", err)
	}
	return rfp, nil
}

// List returns all RFPs, newest first.
func (r *rfpRepository) List(ctx context.Context) ([]*models.RFP, error) {
	rows, err := r.store.Query(ctx, listRFPsStmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list rfps: %w", err)
	}
	defer rows.Close()

	rfps := []*models.RFP{}
	for rows.Next() {
		rfp, err := scanRFP(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rfp: %w", err)
		}
		rfps = append(rfps, rfp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rfps: %w", err)
	}
	return rfps, nil
}

func (r *rfpRepository) UpdateStatus(ctx context.Context, id int64, status models.RFPStatus) error {
	n, err := r.store.Exec(ctx, updateRFPStatusStmt, string(status), now(), id)
	if err != nil {
		return fmt.Errorf("failed to update rfp status: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanRFP(row database.Row) (*models.RFP, error) {
	var (
		rfp            models.RFP
		budget         sql.NullFloat64
		terms, warrant sql.NullString
		reqs           []byte
		status         string
	)
	err := row.Scan(
		&rfp.ID, &rfp.Title, &rfp.Description, &budget,
		scanDate(&rfp.Deadline), scanDate(&rfp.DeliveryDate),
		&terms, &warrant, &reqs, &status,
		scanTime(&rfp.CreatedAt), scanTime(&rfp.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}

	rfp.Budget = floatPtr(budget)
	rfp.PaymentTerms = terms.String
	rfp.WarrantyPeriod = warrant.String
	rfp.Status = models.RFPStatus(status)
	rfp.Requirements = []models.Requirement{}
	if len(reqs) > 0 {
		if err := json.Unmarshal(reqs, &rfp.Requirements); err != nil {
			return nil, fmt.Errorf("failed to decode requirements: %w", err)
		}
	}
	return &rfp, nil
}
