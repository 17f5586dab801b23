package models

import "time"

// Vendor is a supplier that can receive RFPs. Email is unique and stored lower-cased.
type Vendor struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VendorInput is the caller-supplied part of a vendor for create and update.
type VendorInput struct {
	Name          string `json:"name" yaml:"name"`
	Email         string `json:"email" yaml:"email"`
	ContactPerson string `json:"contact_person" yaml:"contact_person"`
	Phone         string `json:"phone" yaml:"phone"`
	Address       string `json:"address" yaml:"address"`
}
