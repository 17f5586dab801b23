package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseRFPID extracts and validates the RFP ID from the request path.
// Returns the ID and true on success, or 0 and false after writing an error
// response.
// Expects path parameter: id
func ParseRFPID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "id", "Invalid RFP ID", logger)
}

// ParseVendorID extracts and validates the vendor ID from the request path.
// Expects path parameter: id
func ParseVendorID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "id", "Invalid vendor ID", logger)
}

// ParseComparisonRFPID is ParseRFPID for the comparison route.
// Expects path parameter: rfpId
func ParseComparisonRFPID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "rfpId", "Invalid RFP ID", logger)
}

func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, logger, http.StatusBadRequest, errorMessage, nil)
		return 0, false
	}
	return id, true
}
