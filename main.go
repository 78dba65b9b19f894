package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/config"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/database"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/handlers"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/regions"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/services"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowedOrigins[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
				w.Header().Set("Access-Control-Expose-Headers", "ETag, "+handlers.RequestIDHeader)
			} else if origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newAdvisoryService(cfg *config.AppConfig) services.AdvisoryService {
	completion := services.NewOpenAIClient(services.OpenAIConfig{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		Model:             cfg.OpenAIModel,
		Timeout:           cfg.AdvisoryTimeout,
		RequestsPerSecond: cfg.AIRequestsPerSecond,
	})
	return services.NewAdvisoryService(completion, regions.Default, services.AdvisoryConfig{
		MaxTokens:   cfg.AdvisoryMaxTokens,
		Temperature: cfg.AdvisoryTemperature,
		Timeout:     cfg.AdvisoryTimeout,
	})
}

func runServer(ctx context.Context) error {
	cfg := config.Cfg
	logger.L.Info("TaxWizz backend server starting...")

	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	database.InitDB(cfg.DatabasePath)
	defer database.DB.Close()

	reportCache := cache.New(cfg.ClientCacheTTL, services.CacheCleanupInterval)

	signer, err := security.NewStateSigner(cfg.OAuthStateSecret, cfg.OAuthStateExpiry)
	if err != nil {
		return fmt.Errorf("failed to create oauth state signer: %w", err)
	}

	advisoryService := newAdvisoryService(cfg)
	clientService := services.NewClientService(database.DB, advisoryService, reportCache, cfg.MaxUploadSizeBytes)
	integrationService := services.NewIntegrationService(database.DB, signer, services.IntegrationOptions{
		Credentials:     cfg.IntegrationCredentials,
		RedirectBaseURL: cfg.IntegrationRedirectBaseURL,
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst)
	router := handlers.NewRouter(&handlers.Handlers{
		DB:          database.DB,
		Regions:     handlers.NewRegionHandler(regions.Default),
		Advisory:    handlers.NewAdvisoryHandler(advisoryService),
		Clients:     handlers.NewClientHandler(clientService, integrationService, cfg.MaxUploadSizeBytes),
		Integration: handlers.NewIntegrationHandler(integrationService, clientService),
	},
		proxyHeadersMiddleware,
		corsMiddleware(cfg.AllowedOrigins),
		rateLimitMiddleware(limiter),
	)

	// Advisory requests wait on the completion service.
	writeTimeout := cfg.AdvisoryTimeout + 15*time.Second

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.L.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stdlog.Printf("Error: %v", err)
		os.Exit(1)
	}
}
