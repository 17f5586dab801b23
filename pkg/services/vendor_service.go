package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/repositories"
)

// Vendor field limits.
const (
	vendorNameMin     = 2
	vendorNameMax     = 100
	vendorEmailMax    = 255
	vendorContactMax  = 100
	vendorAddressMax  = 500
	vendorPhoneDigits = 10
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// VendorService manages the vendor registry.
type VendorService interface {
	List(ctx context.Context) ([]*models.Vendor, error)
	Get(ctx context.Context, id int64) (*models.Vendor, error)
	Create(ctx context.Context, in *models.VendorInput) (*models.Vendor, error)
	Update(ctx context.Context, id int64, in *models.VendorInput) (*models.Vendor, error)
	// Delete fails with apperrors.ErrVendorInUse while RFPs or proposals
	// reference the vendor.
	Delete(ctx context.Context, id int64) error
}

type vendorService struct {
	vendorRepo repositories.VendorRepository
	logger     *zap.Logger
}

var _ VendorService = (*vendorService)(nil)

func NewVendorService(vendorRepo repositories.VendorRepository, logger *zap.Logger) VendorService {
	return &vendorService{
		vendorRepo: vendorRepo,
		logger:     logger.Named("vendors"),
	}
}

func (s *vendorService) List(ctx context.Context) ([]*models.Vendor, error) {
	return s.vendorRepo.List(ctx)
}

func (s *vendorService) Get(ctx context.Context, id int64) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, apperrors.ErrNotFound
	}
	return vendor, nil
}

func (s *vendorService) Create(ctx context.Context, in *models.VendorInput) (*models.Vendor, error) {
	clean, err := ValidateVendorInput(in)
	if err != nil {
		return nil, err
	}

	vendor := vendorFromInput(clean)
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}

	s.logger.Info("Created vendor",
		zap.Int64("vendor_id", vendor.ID),
		zap.String("email", vendor.Email))
	return vendor, nil
}

func (s *vendorService) Update(ctx context.Context, id int64, in *models.VendorInput) (*models.Vendor, error) {
	clean, err := ValidateVendorInput(in)
	if err != nil {
		return nil, err
	}

	vendor := vendorFromInput(clean)
	vendor.ID = id
	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *vendorService) Delete(ctx context.Context, id int64) error {
	if err := s.vendorRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted vendor", zap.Int64("vendor_id", id))
	return nil
}

// ValidateVendorInput trims every field, lower-cases the email and checks
// the field limits. The returned error is an *apperrors.ValidationError
// listing every rejected field.
func ValidateVendorInput(in *models.VendorInput) (*models.VendorInput, error) {
	if in == nil {
		return nil, apperrors.NewValidationError("Vendor details are required")
	}

	clean := &models.VendorInput{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
	}
	fields := map[string]string{}

	switch n := utf8.RuneCountInString(clean.Name); {
	case n == 0:
		fields["name"] = "is required"
	case n < vendorNameMin || n > vendorNameMax:
		fields["name"] = fmt.Sprintf("must be between %d and %d characters", vendorNameMin, vendorNameMax)
	}

	switch {
	case clean.Email == "":
		fields["email"] = "is required"
	case len(clean.Email) > vendorEmailMax:
		fields["email"] = fmt.Sprintf("must be at most %d characters", vendorEmailMax)
	case !emailPattern.MatchString(clean.Email):
		fields["email"] = "is not a valid email address"
	}

	if utf8.RuneCountInString(clean.ContactPerson) > vendorContactMax {
		fields["contact_person"] = fmt.Sprintf("must be at most %d characters", vendorContactMax)
	}
	if clean.Phone != "" && len(nonDigits.ReplaceAllString(clean.Phone, "")) != vendorPhoneDigits {
		fields["phone"] = fmt.Sprintf("must contain exactly %d digits", vendorPhoneDigits)
	}
	if utf8.RuneCountInString(clean.Address) > vendorAddressMax {
		fields["address"] = fmt.Sprintf("must be at most %d characters", vendorAddressMax)
	}

	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Message: "Validation failed", Fields: fields}
	}
	return clean, nil
}

func vendorFromInput(in *models.VendorInput) *models.Vendor {
	return &models.Vendor{
		Name:          in.Name,
		Email:         in.Email,
		ContactPerson: in.ContactPerson,
		Phone:         in.Phone,
		Address:       in.Address,
	}
}
