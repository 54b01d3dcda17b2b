package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-mainframe/internal/config"
)

func newGeminiServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + reply + `"}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, geminiURL string) *App {
	t.Helper()
	cfg := config.FromLookup(func(key string) string {
		switch key {
		case "GEMINI_API_KEY":
			return "test-key"
		case "GEMINI_BASE_URL":
			return geminiURL
		}
		return ""
	})
	a, err := Wire(cfg, zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestRouter_ChatRoundTrip(t *testing.T) {
	gemini := newGeminiServer(t, "PLAYER_CLASS: SECURITY_RESEARCHER.")
	a := newTestApp(t, gemini.URL)
	srv := httptest.NewServer(NewRouter(a.Handler, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"class?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-Id"))

	var out struct {
		SessionID string `json:"sessionId"`
		Reply     string `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "PLAYER_CLASS: SECURITY_RESEARCHER.", out.Reply)
	require.NotEmpty(t, out.SessionID)

	transcript, err := http.Get(srv.URL + "/chat?sessionId=" + out.SessionID)
	require.NoError(t, err)
	defer transcript.Body.Close()
	require.Equal(t, http.StatusOK, transcript.StatusCode)
}

func TestRouter_EchoesCorrelationID(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	srv := httptest.NewServer(NewRouter(a.Handler, zap.NewNop()))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Correlation-Id", "corr-9")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "corr-9", resp.Header.Get("X-Correlation-Id"))
}

func TestRouter_UnknownPath(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	srv := httptest.NewServer(NewRouter(a.Handler, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/secret")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSweepSessions_StopsOnCancel(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	_, err := a.Store.GetOrCreate("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.SweepSessions(ctx, time.Millisecond, zap.NewNop())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
	require.Equal(t, 1, a.Store.Len())
}
