package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/services"
)

// VendorResponse wraps a single vendor.
type VendorResponse struct {
	Vendor *models.Vendor `json:"vendor"`
}

// VendorListResponse for GET /api/vendors
type VendorListResponse struct {
	Vendors []*models.Vendor `json:"vendors"`
	Total   int              `json:"total"`
}

// VendorHandler handles vendor registry HTTP requests.
type VendorHandler struct {
	vendorService services.VendorService
	logger        *zap.Logger
}

// NewVendorHandler creates a new vendor handler.
func NewVendorHandler(vendorService services.VendorService, logger *zap.Logger) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
		logger:        logger,
	}
}

// RegisterRoutes registers the vendor handler's routes on the given mux.
func (h *VendorHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/vendors"

	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("PUT "+base+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
}

// List handles GET /api/vendors
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendorService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Vendor not found", "Failed to fetch vendors")
		return
	}
	if vendors == nil {
		vendors = []*models.Vendor{}
	}

	writeSuccess(w, h.logger, http.StatusOK, VendorListResponse{Vendors: vendors, Total: len(vendors)}, "")
}

// Create handles POST /api/vendors
func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.VendorInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	vendor, err := h.vendorService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Vendor not found", "Failed to create vendor")
		return
	}

	writeSuccess(w, h.logger, http.StatusCreated, VendorResponse{Vendor: vendor}, "Vendor created")
}

// Update handles PUT /api/vendors/{id}
func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVendorID(w, r, h.logger)
	if !ok {
		return
	}

	var req models.VendorInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	vendor, err := h.vendorService.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Vendor not found", "Failed to update vendor")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, VendorResponse{Vendor: vendor}, "Vendor updated")
}

// Delete handles DELETE /api/vendors/{id}
func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVendorID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.vendorService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Vendor not found", "Failed to delete vendor")
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, nil, "Vendor deleted successfully")
}
