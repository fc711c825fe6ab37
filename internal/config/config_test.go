package config

import (
	"errors"
	"strings"
	"testing"
)

// validConfig returns a Config that passes Validate().
func validConfig() *Config {
	return &Config{
		OpenAIAPIKey:     "sk-test-key-1234567890",
		ChatModel:        DefaultChatModel,
		EmbeddingModel:   DefaultEmbeddingModel,
		MaxRounds:        DefaultMaxRounds,
		ChunkSize:        DefaultChunkSize,
		ChunkOverlap:     DefaultChunkOverlap,
		TopK:             DefaultTopK,
		AppEnv:           EnvDevelopment,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "valet",
		PostgresPassword: "secret",
		PostgresDBName:   "valet",
		PostgresSSLMode:  "disable",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config = %v, want nil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing api key", func(c *Config) { c.OpenAIAPIKey = "" }, ErrMissingAPIKey},
		{"empty chat model", func(c *Config) { c.ChatModel = "" }, ErrInvalidModelName},
		{"empty embedding model", func(c *Config) { c.EmbeddingModel = "" }, ErrInvalidEmbedderModel},
		{"zero max rounds", func(c *Config) { c.MaxRounds = 0 }, ErrInvalidMaxRounds},
		{"excessive max rounds", func(c *Config) { c.MaxRounds = 100 }, ErrInvalidMaxRounds},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, ErrInvalidChunking},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, ErrInvalidChunking},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, ErrInvalidChunking},
		{"zero top-k", func(c *Config) { c.TopK = 0 }, ErrInvalidTopK},
		{"empty postgres host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"bad ssl mode", func(c *Config) { c.PostgresSSLMode = "maybe" }, ErrInvalidPostgresSSLMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want errors.Is(%v)", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var c *Config
	if err := c.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		check func(string) bool
	}{
		{"empty stays empty", "", func(s string) bool { return s == "" }},
		{"short fully masked", "secret", func(s string) bool { return s == maskedValue }},
		{"long keeps edges", "sk-abcdefghijklmnop", func(s string) bool {
			return strings.HasPrefix(s, "sk") && strings.HasSuffix(s, "op") && strings.Contains(s, maskedValue)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskSecret(tt.in)
			if !tt.check(got) {
				t.Errorf("maskSecret(%q) = %q", tt.in, got)
			}
			if len(tt.in) > 8 && strings.Contains(got, tt.in[2:len(tt.in)-2]) {
				t.Errorf("maskSecret(%q) leaked middle of secret: %q", tt.in, got)
			}
		})
	}
}

func TestMarshalJSON_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = "sk-very-secret-value-123"
	cfg.PostgresPassword = "db-password-value-456"

	out := cfg.String()
	if strings.Contains(out, "sk-very-secret-value-123") {
		t.Errorf("String() leaked API key: %s", out)
	}
	if strings.Contains(out, "db-password-value-456") {
		t.Errorf("String() leaked DB password: %s", out)
	}
	if !strings.Contains(out, maskedValue) {
		t.Errorf("String() missing mask placeholder: %s", out)
	}
}
