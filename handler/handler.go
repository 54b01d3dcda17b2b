package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-mainframe/internal/domain"
	"portfolio-mainframe/internal/observability"
	"portfolio-mainframe/internal/persona"
	"portfolio-mainframe/internal/typewriter"
	"portfolio-mainframe/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Service is the use-case surface the handler routes to.
type Service interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	Transcript(ctx context.Context, sessionID string) (usecase.TranscriptOutput, error)
	Draft(ctx context.Context, in usecase.DraftInput) (usecase.DraftOutput, error)
	DraftStatus(ctx context.Context, sessionID string) (usecase.DraftStatusOutput, error)
	Menu(ctx context.Context, in usecase.MenuInput) (usecase.MenuOutput, error)
	Profile() usecase.ProfileOutput
	HeroFrames() ([]typewriter.Frame, error)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID  string               `json:"sessionId"`
	Reply      string               `json:"reply"`
	Loading    bool                 `json:"loading"`
	Transcript []domain.ChatMessage `json:"transcript"`
}

type draftRequest struct {
	SessionID string `json:"sessionId"`
	Intent    string `json:"intent"`
}

type draftResponse struct {
	SessionID string `json:"sessionId"`
	Intent    string `json:"intent"`
	Draft     string `json:"draft"`
	Loading   bool   `json:"loading"`
	Generated bool   `json:"generated"`
}

type menuRequest struct {
	SessionID string `json:"sessionId"`
	Action    string `json:"action"`
}

type menuResponse struct {
	SessionID string `json:"sessionId"`
	Open      bool   `json:"open"`
}

type profileResponse struct {
	Profile  persona.Profile `json:"profile"`
	Greeting string          `json:"greeting"`
}

type framesResponse struct {
	Frames []typewriter.Frame `json:"frames"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: service must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}, nil
}

// Handle routes an API Gateway proxy event. Failures are encoded in the
// response; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = observability.WithCorrelationID(ctx, correlationID)

	resp := h.route(ctx, req)
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers[correlationHeader] = correlationID
	resp.Headers["Access-Control-Allow-Origin"] = "*"

	observability.FromContext(ctx, h.logger).Info("request handled",
		zap.String("method", req.HTTPMethod),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

func (h *Handler) route(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	method := strings.ToUpper(req.HTTPMethod)
	if method == http.MethodOptions {
		return preflight()
	}

	path := strings.TrimRight(req.Path, "/")
	switch path {
	case "/health":
		if method != http.MethodGet {
			return methodNotAllowed(http.MethodGet)
		}
		return jsonResponse(http.StatusOK, map[string]string{"status": "ok"})
	case "/profile":
		if method != http.MethodGet {
			return methodNotAllowed(http.MethodGet)
		}
		out := h.svc.Profile()
		return jsonResponse(http.StatusOK, profileResponse{Profile: out.Profile, Greeting: out.Greeting})
	case "/hero/frames":
		if method != http.MethodGet {
			return methodNotAllowed(http.MethodGet)
		}
		frames, err := h.svc.HeroFrames()
		if err != nil {
			return h.errorResponse(ctx, err)
		}
		return jsonResponse(http.StatusOK, framesResponse{Frames: frames})
	case "/chat":
		switch method {
		case http.MethodGet:
			return h.transcript(ctx, req)
		case http.MethodPost:
			return h.chat(ctx, req)
		}
		return methodNotAllowed(http.MethodGet, http.MethodPost)
	case "/draft":
		switch method {
		case http.MethodGet:
			return h.draftStatus(ctx, req)
		case http.MethodPost:
			return h.draft(ctx, req)
		}
		return methodNotAllowed(http.MethodGet, http.MethodPost)
	case "/menu":
		if method != http.MethodPost {
			return methodNotAllowed(http.MethodPost)
		}
		return h.menu(ctx, req)
	}
	return jsonResponse(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"})
}

func (h *Handler) chat(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in chatRequest
	if err := decodeBody(req, &in); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
	}
	out, err := h.svc.Chat(ctx, usecase.ChatInput{SessionID: in.SessionID, Message: in.Message})
	if err != nil {
		return h.errorResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, chatResponse{
		SessionID:  out.SessionID,
		Reply:      out.Reply.Text,
		Transcript: out.Transcript,
	})
}

func (h *Handler) transcript(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	out, err := h.svc.Transcript(ctx, req.QueryStringParameters["sessionId"])
	if err != nil {
		return h.errorResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, chatResponse{
		SessionID:  out.SessionID,
		Loading:    out.Loading,
		Transcript: out.Transcript,
	})
}

func (h *Handler) draft(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in draftRequest
	if err := decodeBody(req, &in); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
	}
	out, err := h.svc.Draft(ctx, usecase.DraftInput{SessionID: in.SessionID, Intent: in.Intent})
	if err != nil {
		return h.errorResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, draftResponse{
		SessionID: out.SessionID,
		Intent:    out.Draft.Intent,
		Draft:     out.Draft.Message,
		Generated: out.Draft.Generated(),
	})
}

func (h *Handler) draftStatus(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	out, err := h.svc.DraftStatus(ctx, req.QueryStringParameters["sessionId"])
	if err != nil {
		return h.errorResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, draftResponse{
		SessionID: out.SessionID,
		Intent:    out.Draft.Intent,
		Draft:     out.Draft.Message,
		Loading:   out.Loading,
		Generated: out.Generated,
	})
}

func (h *Handler) menu(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in menuRequest
	if req.Body != "" {
		if err := decodeBody(req, &in); err != nil {
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"})
		}
	}
	out, err := h.svc.Menu(ctx, usecase.MenuInput{SessionID: in.SessionID, Action: usecase.MenuAction(in.Action)})
	if err != nil {
		return h.errorResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, menuResponse{SessionID: out.SessionID, Open: out.Open})
}

func (h *Handler) errorResponse(ctx context.Context, err error) events.APIGatewayProxyResponse {
	code := usecase.CodeOf(err)
	body := errorResponse{Error: string(code)}
	var ue *usecase.Error
	if errors.As(err, &ue) {
		body.Reason = ue.Reason
	}

	status := statusFor(code)
	logger := observability.FromContext(ctx, h.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		body.Reason = ""
	} else {
		logger.Warn("request rejected", zap.Error(err))
	}
	return jsonResponse(status, body)
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return err
		}
		body = decoded
	}
	return json.Unmarshal(body, v)
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func methodNotAllowed(allowed ...string) events.APIGatewayProxyResponse {
	resp := jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"})
	resp.Headers["Allow"] = strings.Join(allowed, ", ")
	return resp
}

func preflight() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers: map[string]string{
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, " + correlationHeader,
		},
	}
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
