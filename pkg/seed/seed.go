// Package seed loads vendor fixtures from YAML into the registry.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/services"
)

//go:embed vendors.yaml
var defaultVendorsYAML []byte

// File is the seed file layout.
type File struct {
	Vendors []models.VendorInput `yaml:"vendors"`
}

// Result counts what a seed run did. Errors holds one entry per vendor that
// was rejected.
type Result struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Decode reads a seed file. Unknown keys are rejected so typos surface.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads a seed file from disk. An empty path loads the built-in
// sample vendors.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return Decode(bytes.NewReader(defaultVendorsYAML))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Vendors creates every vendor through the registry, skipping emails that
// already exist. A rejected vendor is recorded and the run continues.
func Vendors(ctx context.Context, svc services.VendorService, vendors []models.VendorInput, logger *zap.Logger) (*Result, error) {
	result := &Result{}
	for i := range vendors {
		in := vendors[i]
		vendor, err := svc.Create(ctx, &in)
		switch {
		case err == nil:
			result.Created++
			logger.Info("Seeded vendor", zap.Int64("id", vendor.ID), zap.String("email", vendor.Email))
		case errors.Is(err, apperrors.ErrDuplicateVendor):
			result.Skipped++
			logger.Debug("Vendor already exists", zap.String("email", in.Email))
		case apperrors.IsValidation(err):
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", in.Email, err))
		default:
			return result, fmt.Errorf("failed to seed vendor %s: %w", in.Email, err)
		}
	}
	return result, nil
}
