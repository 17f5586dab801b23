package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/email"
	"github.com/ekaya-inc/ekaya-procure/pkg/extraction"
	"github.com/ekaya-inc/ekaya-procure/pkg/handlers"
	"github.com/ekaya-inc/ekaya-procure/pkg/llm"
	"github.com/ekaya-inc/ekaya-procure/pkg/logging"
	"github.com/ekaya-inc/ekaya-procure/pkg/metrics"
	"github.com/ekaya-inc/ekaya-procure/pkg/middleware"
	"github.com/ekaya-inc/ekaya-procure/pkg/repositories"
	"github.com/ekaya-inc/ekaya-procure/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Type),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("smtp", cfg.SMTP.IsConfigured()),
		zap.Bool("imap", cfg.IMAP.IsConfigured()))
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	store, err := database.Open(ctx, database.OptionsFromConfig(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Repositories
	vendorRepo := repositories.NewVendorRepository(store)
	rfpRepo := repositories.NewRFPRepository(store)
	rfpVendorRepo := repositories.NewRFPVendorRepository(store)
	proposalRepo := repositories.NewProposalRepository(store)
	scoreRepo := repositories.NewProposalScoreRepository(store)

	// Collaborators
	llmClient, err := newLLMClient(cfg.LLM, logger)
	if err != nil {
		return err
	}
	m := metrics.New()
	extractor := extraction.New(llmClient, m, logger)
	sender := email.NewSender(cfg.SMTP, logger)
	mailbox := email.NewMailbox(cfg.IMAP, logger)

	// Services
	vendorService := services.NewVendorService(vendorRepo, logger)
	rfpService := services.NewRFPService(rfpRepo, vendorRepo, rfpVendorRepo, proposalRepo, scoreRepo, extractor, sender, m, logger)
	proposalService := services.NewProposalService(vendorRepo, rfpVendorRepo, proposalRepo, extractor, mailbox, m, logger)
	comparisonService := services.NewComparisonService(rfpRepo, proposalRepo, scoreRepo, extractor, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, m, extractor.Mode(), logger).RegisterRoutes(mux)
	handlers.NewRFPHandler(rfpService, logger).RegisterRoutes(mux)
	handlers.NewVendorHandler(vendorService, logger).RegisterRoutes(mux)
	handlers.NewProposalHandler(proposalService, comparisonService, logger).RegisterRoutes(mux)

	handler := middleware.Chain(mux,
		middleware.Recoverer(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-procure",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.String("extraction", extractor.Mode()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// newLLMClient returns nil when no provider is configured, which leaves
// extraction on the local heuristic.
func newLLMClient(cfg config.LLMConfig, logger *zap.Logger) (llm.LLMClient, error) {
	client, err := llm.NewClientFromConfig(&llm.Config{
		Provider: cfg.Provider,
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
	}, llm.CircuitBreakerConfig{
		Threshold:  cfg.BreakerThreshold,
		ResetAfter: cfg.BreakerReset,
	}, logger)
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Info("No language model configured; extraction uses the local heuristic")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
