package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// VendorRepository provides data access for vendors.
type VendorRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	Update(ctx context.Context, vendor *models.Vendor) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Vendor, error)
	GetByEmail(ctx context.Context, email string) (*models.Vendor, error)
	List(ctx context.Context) ([]*models.Vendor, error)
}

type vendorRepository struct {
	store database.Store
}

// NewVendorRepository creates a vendor repository on top of store.
func NewVendorRepository(store database.Store) VendorRepository {
	return &vendorRepository{store: store}
}

var _ VendorRepository = (*vendorRepository)(nil)

const vendorColumns = `id, name, email, contact_person, phone, address, created_at, updated_at`

var (
	insertVendorStmt = database.Statement{
		Postgres: `
			INSERT INTO vendors (name, email, contact_person, phone, address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
		SQLite: `
			INSERT INTO vendors (name, email, contact_person, phone, address, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
	}
	updateVendorStmt = database.Statement{
		Postgres: `
			UPDATE vendors
			SET name = $1, email = $2, contact_person = $3, phone = $4, address = $5, updated_at = $6
			WHERE id = $7
			RETURNING created_at`,
		SQLite: `
			UPDATE vendors
			SET name = ?, email = ?, contact_person = ?, phone = ?, address = ?, updated_at = ?
			WHERE id = ?
			RETURNING created_at`,
	}
	deleteVendorStmt = database.Statement{
		Postgres: `DELETE FROM vendors WHERE id = $1`,
		SQLite:   `DELETE FROM vendors WHERE id = ?`,
	}
	getVendorByIDStmt = database.Statement{
		Postgres: `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`,
		SQLite:   `SELECT ` + vendorColumns + ` FROM vendors WHERE id = ?`,
	}
	getVendorByEmailStmt = database.Statement{
		Postgres: `SELECT ` + vendorColumns + ` FROM vendors WHERE email = $1`,
		SQLite:   `SELECT ` + vendorColumns + ` FROM vendors WHERE email = ?`,
	}
	listVendorsStmt = database.Raw(`SELECT ` + vendorColumns + ` FROM vendors ORDER BY name, id`)
)

func (r *vendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	ts := now()
	err := r.store.QueryRow(ctx, insertVendorStmt,
		vendor.Name,
		vendor.Email,
		vendor.ContactPerson,
		vendor.Phone,
		vendor.Address,
		ts,
		ts,
	).Scan(&vendor.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.ErrDuplicateVendor
		}
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	vendor.CreatedAt = ts
	vendor.UpdatedAt = ts
	return nil
}

func (r *vendorRepository) Update(ctx context.Context, vendor *models.Vendor) error {
	ts := now()
	err := r.store.QueryRow(ctx, updateVendorStmt,
		vendor.Name,
		vendor.Email,
		vendor.ContactPerson,
		vendor.Phone,
		vendor.Address,
		ts,
		vendor.ID,
	).Scan(scanTime(&vendor.CreatedAt))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return apperrors.ErrDuplicateVendor
		}
		return fmt.Errorf("failed to update vendor: %w", err)
	}

	vendor.UpdatedAt = ts
	return nil
}

func (r *vendorRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.store.Exec(ctx, deleteVendorStmt, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.ErrVendorInUse
		}
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetByID returns nil, nil when no vendor has that id.
func (r *vendorRepository) GetByID(ctx context.Context, id int64) (*models.Vendor, error) {
	vendor, err := scanVendor(r.store.QueryRow(ctx, getVendorByIDStmt, id))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return vendor, nil
}

// GetByEmail matches the stored (lower-cased) address exactly and returns
// nil, nil when absent.
func (r *vendorRepository) GetByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	vendor, err := scanVendor(r.store.QueryRow(ctx, getVendorByEmailStmt, email))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vendor by email: %w", err)
	}
	return vendor, nil
}

func (r *vendorRepository) List(ctx context.Context) ([]*models.Vendor, error) {
	rows, err := r.store.Query(ctx, listVendorsStmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	vendors := []*models.Vendor{}
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}
	return vendors, nil
}

func scanVendor(row database.Row) (*models.Vendor, error) {
	var (
		v                       models.Vendor
		contact, phone, address sql.NullString
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.Email, &contact, &phone, &address,
		scanTime(&v.CreatedAt), scanTime(&v.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	v.ContactPerson = contact.String
	v.Phone = phone.String
	v.Address = address.String
	return &v, nil
}
