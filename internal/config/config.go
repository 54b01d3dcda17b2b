package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com"
	defaultModel          = "gemini-2.5-flash-preview-09-2025"
	defaultSessionTTL     = 30 * time.Minute
	defaultMaxInputLength = 1000
	defaultListenAddr     = ":8080"
)

// Config is read once at startup and passed explicitly to constructors.
type Config struct {
	APIKey         string
	APIKeyParam    string
	BaseURL        string
	Model          string
	SessionTTL     time.Duration
	MaxInputLength int
	ListenAddr     string
	LogFile        string
}

// TokenGetter reads a secret token from a parameter store.
type TokenGetter interface {
	GetToken(ctx context.Context, name string) (string, error)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load builds a Config from the process environment.
func Load() Config {
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(getenv func(string) string) Config {
	return Config{
		APIKey:         strings.TrimSpace(getenv("GEMINI_API_KEY")),
		APIKeyParam:    strings.TrimSpace(getenv("GEMINI_API_KEY_PARAM")),
		BaseURL:        envString(getenv, "GEMINI_BASE_URL", defaultBaseURL),
		Model:          envString(getenv, "GEMINI_MODEL", defaultModel),
		SessionTTL:     time.Duration(envInt(getenv, "SESSION_TTL_MINUTES", int(defaultSessionTTL/time.Minute))) * time.Minute,
		MaxInputLength: envInt(getenv, "MAX_INPUT_LENGTH", defaultMaxInputLength),
		ListenAddr:     envString(getenv, "LISTEN_ADDR", defaultListenAddr),
		LogFile:        strings.TrimSpace(getenv("LOG_FILE")),
	}
}

// ResolveAPIKey fills APIKey from the parameter store when it was not set
// directly. An empty key is left as is; requests will fail upstream.
func (c *Config) ResolveAPIKey(ctx context.Context, getter TokenGetter) error {
	if c.APIKey != "" || c.APIKeyParam == "" {
		return nil
	}
	if getter == nil {
		return errors.New("config: token getter must not be nil when GEMINI_API_KEY_PARAM is set")
	}
	key, err := getter.GetToken(ctx, c.APIKeyParam)
	if err != nil {
		return fmt.Errorf("config: resolve api key: %w", err)
	}
	c.APIKey = key
	return nil
}

// NeedsParamStore reports whether the key must come from SSM.
func (c Config) NeedsParamStore() bool {
	return c.APIKey == "" && c.APIKeyParam != ""
}

func envString(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
