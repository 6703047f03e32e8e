package config

import (
	"os"
	"path/filepath"
	"testing"

	"lavka/internal/models"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
telegram:
  bot_token: "test_token"
database:
  path: "test.db"
products:
  - name: "Чай"
    price: 3.5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// Mock .env file
	if err := os.WriteFile(".env", []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	defer os.Remove(".env")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}

	if len(cfg.Products) != 1 || cfg.Products[0].Name != "Чай" {
		t.Errorf("expected 1 seed product named Чай")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Products: []models.Product{{Name: "Кофе", Price: 5}},
			},
			wantErr: false,
		},
		{
			name: "missing token",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: ""},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "duplicate product name",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Products: []models.Product{
					{Name: "Кофе", Price: 5},
					{Name: "Кофе", Price: 6},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Bot.PaginationSize != models.DefaultPaginationSize {
		t.Errorf("expected default pagination size %d, got %d", models.DefaultPaginationSize, cfg.Bot.PaginationSize)
	}
	if cfg.Bot.MaxCartQuantity != models.MaxCartItemQuantity {
		t.Errorf("expected default max cart quantity %d, got %d", models.MaxCartItemQuantity, cfg.Bot.MaxCartQuantity)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.Bot.RateLimitMessages != models.RateLimitMessages {
		t.Errorf("expected default rate limit messages %d, got %d", models.RateLimitMessages, cfg.Bot.RateLimitMessages)
	}
}

func TestValidateProducts(t *testing.T) {
	tests := []struct {
		name     string
		products []models.Product
		wantErr  bool
	}{
		{
			name: "Valid products",
			products: []models.Product{
				{Name: "Чай", Price: 3},
				{Name: "Кофе", Price: 5},
			},
			wantErr: false,
		},
		{
			name: "Duplicate name",
			products: []models.Product{
				{Name: "Чай", Price: 3},
				{Name: "Чай", Price: 4},
			},
			wantErr: true,
		},
		{
			name: "Zero price",
			products: []models.Product{
				{Name: "Чай", Price: 0},
			},
			wantErr: true,
		},
		{
			name: "Empty name",
			products: []models.Product{
				{Name: "", Price: 3},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProducts(tt.products)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProducts() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
