package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
	"github.com/ekaya-inc/ekaya-procure/pkg/metrics"
)

const serviceName = "ekaya-procure"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Extraction  string `json:"extraction"`
}

// IndexResponse is returned by GET /.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthHandler handles health check, ping, metrics and index endpoints.
type HealthHandler struct {
	cfg            *config.Config
	metrics        *metrics.Metrics
	extractionMode string
	logger         *zap.Logger
	now            func() time.Time
}

// NewHealthHandler creates a new HealthHandler. extractionMode is reported
// by /ping ("ai" or "heuristic").
func NewHealthHandler(cfg *config.Config, m *metrics.Metrics, extractionMode string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:            cfg,
		metrics:        m,
		extractionMode: extractionMode,
		logger:         logger,
		now:            time.Now,
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
	mux.Handle("GET /metrics", h.metrics.Handler())
	mux.HandleFunc("GET /{$}", h.Index)
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     serviceName,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Extraction:  h.extractionMode,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}

// Index handles GET / with a map of the API.
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	response := IndexResponse{
		Message: "RFP Management System API",
		Version: h.cfg.Version,
		Endpoints: map[string]string{
			"health":    "/health",
			"rfps":      "/api/rfps",
			"vendors":   "/api/vendors",
			"proposals": "/api/proposals",
			"metrics":   "/metrics",
		},
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode index response", zap.Error(err))
	}
}
