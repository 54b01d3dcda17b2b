package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookup(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

type fakeTokens struct {
	token string
	err   error
	calls int
	name  string
}

func (f *fakeTokens) GetToken(_ context.Context, name string) (string, error) {
	f.calls++
	f.name = name
	return f.token, f.err
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg := FromLookup(lookup(nil))
	require.Equal(t, "", cfg.APIKey)
	require.Equal(t, defaultBaseURL, cfg.BaseURL)
	require.Equal(t, defaultModel, cfg.Model)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 1000, cfg.MaxInputLength)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.False(t, cfg.NeedsParamStore())
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg := FromLookup(lookup(map[string]string{
		"GEMINI_API_KEY":      " key ",
		"GEMINI_BASE_URL":     "http://localhost:9999",
		"GEMINI_MODEL":        "gemini-test",
		"SESSION_TTL_MINUTES": "5",
		"MAX_INPUT_LENGTH":    "42",
		"LISTEN_ADDR":         ":9000",
		"LOG_FILE":            "logs/app.log",
	}))
	require.Equal(t, "key", cfg.APIKey)
	require.Equal(t, "http://localhost:9999", cfg.BaseURL)
	require.Equal(t, "gemini-test", cfg.Model)
	require.Equal(t, 5*time.Minute, cfg.SessionTTL)
	require.Equal(t, 42, cfg.MaxInputLength)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, "logs/app.log", cfg.LogFile)
}

func TestFromLookup_InvalidIntsFallBack(t *testing.T) {
	cfg := FromLookup(lookup(map[string]string{
		"SESSION_TTL_MINUTES": "soon",
		"MAX_INPUT_LENGTH":    "-3",
	}))
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 1000, cfg.MaxInputLength)
}

func TestResolveAPIKey_FromParamStore(t *testing.T) {
	cfg := FromLookup(lookup(map[string]string{"GEMINI_API_KEY_PARAM": "/mainframe/gemini"}))
	require.True(t, cfg.NeedsParamStore())

	tokens := &fakeTokens{token: "AIza-ssm"}
	require.NoError(t, cfg.ResolveAPIKey(context.Background(), tokens))
	require.Equal(t, "AIza-ssm", cfg.APIKey)
	require.Equal(t, "/mainframe/gemini", tokens.name)

	require.NoError(t, cfg.ResolveAPIKey(context.Background(), tokens))
	require.Equal(t, 1, tokens.calls)
}

func TestResolveAPIKey_DirectKeyWins(t *testing.T) {
	cfg := FromLookup(lookup(map[string]string{"GEMINI_API_KEY": "direct", "GEMINI_API_KEY_PARAM": "/p"}))
	tokens := &fakeTokens{token: "ssm"}
	require.NoError(t, cfg.ResolveAPIKey(context.Background(), tokens))
	require.Equal(t, "direct", cfg.APIKey)
	require.Zero(t, tokens.calls)
}

func TestResolveAPIKey_Errors(t *testing.T) {
	cfg := FromLookup(lookup(map[string]string{"GEMINI_API_KEY_PARAM": "/p"}))
	require.Error(t, cfg.ResolveAPIKey(context.Background(), nil))

	err := cfg.ResolveAPIKey(context.Background(), &fakeTokens{err: errors.New("ssm down")})
	require.ErrorContains(t, err, "ssm down")
	require.Empty(t, cfg.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAINFRAME_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("MAINFRAME_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("MAINFRAME_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "from-file", os.Getenv("MAINFRAME_TEST_VALUE"))
}
