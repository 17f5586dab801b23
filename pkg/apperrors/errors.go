package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrVendorNotFound        = errors.New("vendor not found: add the sender as a vendor before processing their reply")
	ErrNoAssociatedRFP       = errors.New("no RFP has been sent to this vendor")
	ErrInsufficientProposals = errors.New("at least 2 proposals are required for comparison")

	ErrDuplicateVendor = fmt.Errorf("%w: a vendor with this email already exists", ErrConflict)
	ErrVendorInUse     = fmt.Errorf("%w: vendor is referenced by RFPs or proposals and cannot be deleted", ErrConflict)
)

// ValidationError reports bad caller input. Fields maps a field name to the
// reason it was rejected.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidationError returns a ValidationError with no field details.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
