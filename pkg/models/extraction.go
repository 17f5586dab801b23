package models

import (
	"encoding/json"

	"github.com/ekaya-inc/ekaya-procure/pkg/jsonutil"
)

// RFPExtraction is the structured reading of a plain-text procurement
// request, as returned by an extractor before normalization.
type RFPExtraction struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Budget         *float64      `json:"budget"`
	Deadline       *Date         `json:"deadline"`
	DeliveryDate   *Date         `json:"delivery_date"`
	DeadlineInDays *int          `json:"deadline_in_days,omitempty"`
	DeliveryInDays *int          `json:"delivery_in_days,omitempty"`
	PaymentTerms   string        `json:"payment_terms"`
	WarrantyPeriod string        `json:"warranty_period"`
	Requirements   []Requirement `json:"requirements"`
}

// UnmarshalJSON accepts the loosely typed output of language models: numbers
// as strings, unparseable dates, and "name"/"spec" requirement keys.
func (e *RFPExtraction) UnmarshalJSON(b []byte) error {
	var raw struct {
		Title          json.RawMessage   `json:"title"`
		Description    json.RawMessage   `json:"description"`
		Budget         json.RawMessage   `json:"budget"`
		Deadline       json.RawMessage   `json:"deadline"`
		DeliveryDate   json.RawMessage   `json:"delivery_date"`
		DeadlineInDays json.RawMessage   `json:"deadline_in_days"`
		DeliveryInDays json.RawMessage   `json:"delivery_in_days"`
		PaymentTerms   json.RawMessage   `json:"payment_terms"`
		WarrantyPeriod json.RawMessage   `json:"warranty_period"`
		Requirements   []json.RawMessage `json:"requirements"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = RFPExtraction{
		Title:          jsonutil.FlexibleStringValue(raw.Title),
		Description:    jsonutil.FlexibleStringValue(raw.Description),
		Budget:         jsonutil.FlexibleFloat(raw.Budget),
		Deadline:       flexibleDate(raw.Deadline),
		DeliveryDate:   flexibleDate(raw.DeliveryDate),
		DeadlineInDays: jsonutil.FlexibleInt(raw.DeadlineInDays),
		DeliveryInDays: jsonutil.FlexibleInt(raw.DeliveryInDays),
		PaymentTerms:   jsonutil.FlexibleStringValue(raw.PaymentTerms),
		WarrantyPeriod: jsonutil.FlexibleStringValue(raw.WarrantyPeriod),
	}

	for _, r := range raw.Requirements {
		var req struct {
			Item           json.RawMessage `json:"item"`
			Name           json.RawMessage `json:"name"`
			Quantity       json.RawMessage `json:"quantity"`
			Specifications json.RawMessage `json:"specifications"`
			Spec           json.RawMessage `json:"spec"`
		}
		if err := json.Unmarshal(r, &req); err != nil {
			continue
		}
		item := jsonutil.FlexibleStringValue(req.Item)
		if item == "" {
			item = jsonutil.FlexibleStringValue(req.Name)
		}
		specs := jsonutil.FlexibleStringValue(req.Specifications)
		if specs == "" {
			specs = jsonutil.FlexibleStringValue(req.Spec)
		}
		e.Requirements = append(e.Requirements, Requirement{
			Item:           item,
			Quantity:       jsonutil.FlexibleInt(req.Quantity),
			Specifications: specs,
		})
	}
	return nil
}

// ProposalExtraction is the structured reading of a vendor reply. Raw holds
// the decoded object as the extractor produced it.
type ProposalExtraction struct {
	TotalPrice      *float64       `json:"total_price"`
	LineItems       []LineItem     `json:"line_items"`
	PaymentTerms    string         `json:"payment_terms"`
	WarrantyPeriod  string         `json:"warranty_period"`
	DeliveryDate    *Date          `json:"delivery_date"`
	AdditionalNotes string         `json:"additional_notes"`
	Raw             map[string]any `json:"-"`
}

func (e *ProposalExtraction) UnmarshalJSON(b []byte) error {
	var raw struct {
		TotalPrice      json.RawMessage   `json:"total_price"`
		LineItems       []json.RawMessage `json:"line_items"`
		PaymentTerms    json.RawMessage   `json:"payment_terms"`
		WarrantyPeriod  json.RawMessage   `json:"warranty_period"`
		DeliveryDate    json.RawMessage   `json:"delivery_date"`
		AdditionalNotes json.RawMessage   `json:"additional_notes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}

	*e = ProposalExtraction{
		TotalPrice:      jsonutil.FlexibleFloat(raw.TotalPrice),
		PaymentTerms:    jsonutil.FlexibleStringValue(raw.PaymentTerms),
		WarrantyPeriod:  jsonutil.FlexibleStringValue(raw.WarrantyPeriod),
		DeliveryDate:    flexibleDate(raw.DeliveryDate),
		AdditionalNotes: jsonutil.FlexibleStringValue(raw.AdditionalNotes),
		Raw:             all,
	}

	for _, r := range raw.LineItems {
		var li struct {
			Item       json.RawMessage `json:"item"`
			Name       json.RawMessage `json:"name"`
			Quantity   json.RawMessage `json:"quantity"`
			UnitPrice  json.RawMessage `json:"unit_price"`
			TotalPrice json.RawMessage `json:"total_price"`
		}
		if err := json.Unmarshal(r, &li); err != nil {
			continue
		}
		item := jsonutil.FlexibleStringValue(li.Item)
		if item == "" {
			item = jsonutil.FlexibleStringValue(li.Name)
		}
		e.LineItems = append(e.LineItems, LineItem{
			Item:       item,
			Quantity:   jsonutil.FlexibleFloat(li.Quantity),
			UnitPrice:  jsonutil.FlexibleFloat(li.UnitPrice),
			TotalPrice: jsonutil.FlexibleFloat(li.TotalPrice),
		})
	}
	return nil
}

// ExtractedData returns the object stored in proposals.extracted_data: the
// raw extractor output when present, otherwise the typed fields.
func (e *ProposalExtraction) ExtractedData() map[string]any {
	if len(e.Raw) > 0 {
		return e.Raw
	}
	data := map[string]any{
		"total_price":      e.TotalPrice,
		"line_items":       e.LineItems,
		"payment_terms":    e.PaymentTerms,
		"warranty_period":  e.WarrantyPeriod,
		"additional_notes": e.AdditionalNotes,
	}
	if e.DeliveryDate != nil {
		data["delivery_date"] = e.DeliveryDate.String()
	} else {
		data["delivery_date"] = nil
	}
	if e.LineItems == nil {
		data["line_items"] = []LineItem{}
	}
	return data
}

// flexibleDate returns nil for null, empty or unparseable dates.
func flexibleDate(raw json.RawMessage) *Date {
	s := jsonutil.FlexibleStringValue(raw)
	if s == "" {
		return nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}
