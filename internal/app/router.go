package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ProxyHandler is the API Gateway shaped entrypoint the router adapts to.
type ProxyHandler interface {
	Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// NewRouter serves every path through h so the local server and Lambda share
// one routing table.
func NewRouter(h ProxyHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/*", proxy(h, logger))
	return r
}

func proxy(h ProxyHandler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, `{"error":"INVALID_INPUT","reason":"unreadable_body"}`, http.StatusBadRequest)
			return
		}

		event := events.APIGatewayProxyRequest{
			HTTPMethod:            r.Method,
			Path:                  r.URL.Path,
			Headers:               map[string]string{},
			QueryStringParameters: map[string]string{},
			Body:                  string(body),
		}
		for k := range r.Header {
			event.Headers[k] = r.Header.Get(k)
		}
		if event.Headers["X-Correlation-Id"] == "" {
			if id := middleware.GetReqID(r.Context()); id != "" {
				event.Headers["X-Correlation-Id"] = id
			}
		}
		for k := range r.URL.Query() {
			event.QueryStringParameters[k] = r.URL.Query().Get(k)
		}

		resp, err := h.Handle(r.Context(), event)
		if err != nil {
			logger.Error("proxy handler failed", zap.Error(err))
			http.Error(w, `{"error":"INTERNAL_ERROR"}`, http.StatusInternalServerError)
			return
		}
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.WriteString(w, resp.Body)
	}
}

// SweepSessions evicts idle sessions every interval until ctx is done.
func (a *App) SweepSessions(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.Store.Sweep(now); n > 0 {
				logger.Info("sessions swept", zap.Int("evicted", n), zap.Int("remaining", a.Store.Len()))
			}
		}
	}
}
