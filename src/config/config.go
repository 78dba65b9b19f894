package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devOAuthStateSecret = "insecure-dev-only-oauth-state-secret-change-me"

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// HTTP settings
	AllowedOrigins     []string
	RequestsPerSecond  float64
	RequestBurst       int
	MaxUploadSizeBytes int64
	ClientCacheTTL     time.Duration

	// AI completion service
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	AdvisoryMaxTokens   int
	AdvisoryTemperature float64
	AdvisoryTimeout     time.Duration
	AIRequestsPerSecond float64

	// Accounting integrations
	OAuthStateSecret           string
	OAuthStateExpiry           time.Duration
	IntegrationRedirectBaseURL string
	IntegrationCredentials     map[string]OAuthCredentials
}

// OAuthCredentials are the client credentials of one accounting software.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
}

// IntegrationIDs lists the accounting software whose credentials are read from
// <ID>_CLIENT_ID / <ID>_CLIENT_SECRET.
var IntegrationIDs = []string{"quickbooks", "myob", "tally", "xero", "sage"}

// Cfg is a global instance of the AppConfig.
var Cfg = Default()

// Default returns the configuration used when no environment is set.
func Default() *AppConfig {
	return &AppConfig{
		Port:                       "8080",
		DatabasePath:               "./taxwizz.db",
		LogLevel:                   "info",
		AllowedOrigins:             []string{"http://localhost:5173", "http://localhost:3000"},
		RequestsPerSecond:          10,
		RequestBurst:               30,
		MaxUploadSizeBytes:         10 * 1024 * 1024,
		ClientCacheTTL:             15 * time.Minute,
		OpenAIBaseURL:              "https://api.openai.com/v1",
		OpenAIModel:                "gpt-4o",
		AdvisoryMaxTokens:          1000,
		AdvisoryTemperature:        0.2,
		AdvisoryTimeout:            30 * time.Second,
		AIRequestsPerSecond:        2,
		OAuthStateSecret:           devOAuthStateSecret,
		OAuthStateExpiry:           10 * time.Minute,
		IntegrationRedirectBaseURL: "http://localhost:8080/api/integrations",
		IntegrationCredentials:     map[string]OAuthCredentials{},
	}
}

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	d := Default()

	apiKey := getEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		log.Println("WARNING: OPENAI_API_KEY is not set. Tax suggestions will return the fallback message.")
	}

	stateSecret := getEnv("OAUTH_STATE_SECRET", devOAuthStateSecret)
	if stateSecret == devOAuthStateSecret {
		log.Println("WARNING: Using default OAUTH_STATE_SECRET. Set this in production.")
	} else if len(stateSecret) < 32 {
		log.Fatalf("FATAL: OAUTH_STATE_SECRET must be at least 32 characters long.")
	}

	credentials := make(map[string]OAuthCredentials)
	for _, id := range IntegrationIDs {
		prefix := strings.ToUpper(id)
		clientID := getEnv(prefix+"_CLIENT_ID", "")
		if clientID == "" {
			continue
		}
		credentials[id] = OAuthCredentials{
			ClientID:     clientID,
			ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		}
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", d.Port),
		DatabasePath: getEnv("DATABASE_PATH", d.DatabasePath),
		LogLevel:     getEnv("LOG_LEVEL", d.LogLevel),

		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", d.AllowedOrigins),
		RequestsPerSecond:  getEnvAsFloat("REQUESTS_PER_SECOND", d.RequestsPerSecond),
		RequestBurst:       getEnvAsInt("REQUEST_BURST", d.RequestBurst),
		MaxUploadSizeBytes: int64(getEnvAsInt("MAX_UPLOAD_SIZE_BYTES", int(d.MaxUploadSizeBytes))),
		ClientCacheTTL:     getEnvAsDuration("CLIENT_CACHE_TTL", d.ClientCacheTTL),

		OpenAIAPIKey:        apiKey,
		OpenAIBaseURL:       strings.TrimRight(getEnv("OPENAI_BASE_URL", d.OpenAIBaseURL), "/"),
		OpenAIModel:         getEnv("OPENAI_MODEL", d.OpenAIModel),
		AdvisoryMaxTokens:   getEnvAsInt("ADVISORY_MAX_TOKENS", d.AdvisoryMaxTokens),
		AdvisoryTemperature: getEnvAsFloat("ADVISORY_TEMPERATURE", d.AdvisoryTemperature),
		AdvisoryTimeout:     getEnvAsDuration("ADVISORY_TIMEOUT", d.AdvisoryTimeout),
		AIRequestsPerSecond: getEnvAsFloat("AI_REQUESTS_PER_SECOND", d.AIRequestsPerSecond),

		OAuthStateSecret:           stateSecret,
		OAuthStateExpiry:           getEnvAsDuration("OAUTH_STATE_EXPIRY", d.OAuthStateExpiry),
		IntegrationRedirectBaseURL: strings.TrimRight(getEnv("INTEGRATION_REDIRECT_BASE_URL", d.IntegrationRedirectBaseURL), "/"),
		IntegrationCredentials:     credentials,
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, Model=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.OpenAIModel)
	log.Printf("Accounting integrations configured: %d", len(Cfg.IntegrationCredentials))
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
