package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeProductID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"plain number", "1234567890", 1234567890, false},
		{"graphql gid", "gid://shopify/Product/1234567890", 1234567890, false},
		{"admin url path", "/admin/products/987654", 987654, false},
		{"whitespace", "  42  ", 42, false},
		{"trailing junk", "123abc", 123, false},
		{"empty", "", 0, true},
		{"no digits", "gid://shopify/Product/", 0, true},
		{"zero", "0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeProductID(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeProductID(%q) = %d, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeProductID(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeProductID(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SHOPIFY_STORE_DOMAIN", "test.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_ACCESS_TOKEN", "shpat_test")
	t.Setenv("HOST_PRODUCT_ID", "gid://shopify/Product/123456")
	t.Setenv("SHOPIFY_WEBHOOK_SECRET", "whsec")
	t.Setenv("CLEANUP_TTL_HOURS", "72")
	t.Setenv("SKU_PREFIX", "PROMO")
	t.Setenv("PORT", "")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
	if cfg.Store.Domain != "test.myshopify.com" {
		t.Errorf("Domain = %q", cfg.Store.Domain)
	}
	if cfg.HostProductID != 123456 {
		t.Errorf("HostProductID = %d, want 123456 (normalized)", cfg.HostProductID)
	}
	if cfg.TTLHours != 72 {
		t.Errorf("TTLHours = %d, want 72", cfg.TTLHours)
	}
	if cfg.SKUPrefix != "PROMO" {
		t.Errorf("SKUPrefix = %q, want PROMO", cfg.SKUPrefix)
	}
	if cfg.Store.WebhookSecret != "whsec" {
		t.Errorf("WebhookSecret = %q", cfg.Store.WebhookSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SHOPIFY_STORE_DOMAIN", "test.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_ACCESS_TOKEN", "shpat_test")
	t.Setenv("HOST_PRODUCT_ID", "42")
	t.Setenv("SHOPIFY_WEBHOOK_SECRET", "")
	t.Setenv("CLEANUP_TTL_HOURS", "")
	t.Setenv("SKU_PREFIX", "")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.TTLHours != DefaultTTLHours {
		t.Errorf("TTLHours = %d, want default %d", cfg.TTLHours, DefaultTTLHours)
	}
	if cfg.SKUPrefix != "CUST" {
		t.Errorf("SKUPrefix = %q, want CUST", cfg.SKUPrefix)
	}
	if cfg.Store.WebhookSecret != "" {
		t.Errorf("WebhookSecret = %q, want empty (verification disabled)", cfg.Store.WebhookSecret)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing domain", "SHOPIFY_STORE_DOMAIN"},
		{"missing token", "SHOPIFY_ADMIN_ACCESS_TOKEN"},
		{"missing product id", "HOST_PRODUCT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv("ENVIRONMENT", "development")
			t.Setenv("SHOPIFY_STORE_DOMAIN", "test.myshopify.com")
			t.Setenv("SHOPIFY_ADMIN_ACCESS_TOKEN", "shpat_test")
			t.Setenv("HOST_PRODUCT_ID", "42")
			t.Setenv(tt.unset, "")

			if _, err := Load(context.Background()); err == nil {
				t.Errorf("Load() succeeded with %s unset", tt.unset)
			}
		})
	}
}

func TestLoadProductionRequiresSecretSettings(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("STORE_SECRET_ID", "")

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() succeeded in production without GCP_PROJECT")
	}

	t.Setenv("GCP_PROJECT", "my-project")
	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() succeeded in production without STORE_SECRET_ID")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"port": "9090",
		"environment": "development",
		"store": {
			"store_domain": "file.myshopify.com",
			"access_token": "shpat_file",
			"host_product_id": "gid://shopify/Product/777",
			"ttl_hours": 24,
			"sku_prefix": "TMP"
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Store.Domain != "file.myshopify.com" {
		t.Errorf("Domain = %q", cfg.Store.Domain)
	}
	if cfg.HostProductID != 777 {
		t.Errorf("HostProductID = %d, want 777", cfg.HostProductID)
	}
	if cfg.TTLHours != 24 {
		t.Errorf("TTLHours = %d, want 24", cfg.TTLHours)
	}
	if cfg.SKUPrefix != "TMP" {
		t.Errorf("SKUPrefix = %q, want TMP", cfg.SKUPrefix)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.json"))
		if _, err := Load(context.Background()); err == nil {
			t.Error("Load() succeeded with missing config file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CONFIG_FILE", path)
		if _, err := Load(context.Background()); err == nil {
			t.Error("Load() succeeded with malformed config file")
		}
	})
}
