// Package config handles loading and validation of service configuration.
// Supports both development (env vars / JSON file) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// DefaultTTLHours is the expiration window for ephemeral variants when
// no deployment override is set (7 days).
const DefaultTTLHours = 168

// Config holds all service configuration. It is built once at process
// start and passed by reference; business logic never reads ambient
// environment state.
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject    string
	StoreSecretID string

	// Store-specific configuration (loaded from secrets in production)
	Store StoreConfig

	// HostProductID is the normalized numeric id of the hidden product
	// that hosts ephemeral variants.
	HostProductID int64

	// TTLHours is how long an unpurchased ephemeral variant survives.
	TTLHours int

	// SKUPrefix marks ephemeral SKUs ("CUST" unless overridden).
	SKUPrefix string
}

// StoreConfig contains store credentials and identifiers.
// In production this is loaded from Secret Manager as JSON; in
// development from individual env vars or a CONFIG_FILE.
type StoreConfig struct {
	Domain        string `json:"store_domain"` // e.g. "example.myshopify.com"
	AccessToken   string `json:"access_token"`
	HostProductID string `json:"host_product_id"` // raw; normalized after load
	WebhookSecret string `json:"webhook_secret,omitempty"`
	TTLHours      int    `json:"ttl_hours,omitempty"`
	SKUPrefix     string `json:"sku_prefix,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:          envOrDefault("PORT", "8080"),
		Environment:   envOrDefault("ENVIRONMENT", "development"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		GCPProject:    os.Getenv("GCP_PROJECT"),
		StoreSecretID: os.Getenv("STORE_SECRET_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreSecretID == "" {
			return nil, fmt.Errorf("STORE_SECRET_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		Store       StoreConfig `json:"store"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		Store:       fileConfig.Store,
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreSecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		Domain:        os.Getenv("SHOPIFY_STORE_DOMAIN"),
		AccessToken:   os.Getenv("SHOPIFY_ADMIN_ACCESS_TOKEN"),
		HostProductID: os.Getenv("HOST_PRODUCT_ID"),
		WebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		SKUPrefix:     os.Getenv("SKU_PREFIX"),
	}

	if ttl := os.Getenv("CLEANUP_TTL_HOURS"); ttl != "" {
		hours, err := strconv.Atoi(ttl)
		if err != nil {
			return fmt.Errorf("parsing CLEANUP_TTL_HOURS: %w", err)
		}
		c.Store.TTLHours = hours
	}
	return nil
}

// finalize normalizes raw values, applies defaults, and validates.
func (c *Config) finalize() error {
	if c.Store.Domain == "" {
		return fmt.Errorf("store domain is required")
	}
	if c.Store.AccessToken == "" {
		return fmt.Errorf("admin access token is required")
	}

	productID, err := NormalizeProductID(c.Store.HostProductID)
	if err != nil {
		return fmt.Errorf("invalid host product id: %w", err)
	}
	c.HostProductID = productID

	c.TTLHours = c.Store.TTLHours
	if c.TTLHours <= 0 {
		c.TTLHours = DefaultTTLHours
	}

	c.SKUPrefix = c.Store.SKUPrefix
	if c.SKUPrefix == "" {
		c.SKUPrefix = "CUST"
	}

	return nil
}

// NormalizeProductID reduces any of the id formats the platform hands
// out (plain number, "gid://shopify/Product/123", admin URL path) to the
// numeric id.
func NormalizeProductID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("no numeric id in %q", raw)
	}

	id, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", raw, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("product id must be positive")
	}
	return id, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
