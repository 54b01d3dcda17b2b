package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"portfolio-mainframe/internal/domain"
	"portfolio-mainframe/internal/observability"
	"portfolio-mainframe/internal/persona"
	"portfolio-mainframe/internal/repository"
	"portfolio-mainframe/internal/session"
	"portfolio-mainframe/internal/typewriter"
)

const defaultMaxInput = 1000

type SessionStore interface {
	GetOrCreate(id string) (*repository.Session, error)
}

type PortfolioService struct {
	sessions    SessionStore
	profile     persona.Profile
	maxInputLen int
	timings     typewriter.Timings
	logger      *zap.Logger
}

type ChatInput struct {
	SessionID string
	Message   string
}

type ChatOutput struct {
	SessionID  string
	Reply      domain.ChatMessage
	Transcript []domain.ChatMessage
}

type TranscriptOutput struct {
	SessionID  string
	Loading    bool
	Transcript []domain.ChatMessage
}

type DraftInput struct {
	SessionID string
	Intent    string
}

type DraftOutput struct {
	SessionID string
	Draft     domain.Draft
}

type DraftStatusOutput struct {
	SessionID string
	Loading   bool
	Generated bool
	Draft     domain.Draft
}

type MenuAction string

const (
	MenuToggle MenuAction = "toggle"
	MenuOpen   MenuAction = "open"
	MenuClose  MenuAction = "close"
)

type MenuInput struct {
	SessionID string
	Action    MenuAction
}

type MenuOutput struct {
	SessionID string
	Open      bool
}

type ProfileOutput struct {
	Profile  persona.Profile
	Greeting string
}

func NewPortfolioService(s SessionStore, profile persona.Profile, maxInputLen int, logger *zap.Logger) (*PortfolioService, error) {
	if s == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if len(profile.Roles) == 0 {
		return nil, errors.New("usecase: profile must list at least one role")
	}
	if maxInputLen <= 0 {
		maxInputLen = defaultMaxInput
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioService{
		sessions:    s,
		profile:     profile,
		maxInputLen: maxInputLen,
		timings:     typewriter.DefaultTimings(),
		logger:      logger,
	}, nil
}

// Chat submits one message to the session's chat. Generation failures are not
// errors: they come back as sentinel text in Reply.
func (s *PortfolioService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if err := s.validate(in.Message, "empty_message"); err != nil {
		return ChatOutput{}, err
	}
	sess, err := s.session(in.SessionID)
	if err != nil {
		return ChatOutput{}, err
	}

	reply, err := sess.Chat.Submit(ctx, in.Message)
	if err != nil {
		return ChatOutput{}, mapSessionError(err, "empty_message")
	}
	observability.FromContext(ctx, s.logger).Info("chat reply appended",
		zap.String("session_id", sess.ID),
		zap.Int("reply_len", len(reply.Text)),
	)
	return ChatOutput{
		SessionID:  sess.ID,
		Reply:      reply,
		Transcript: sess.Chat.Transcript(),
	}, nil
}

// Transcript returns the session's chat history, creating the session if needed.
func (s *PortfolioService) Transcript(_ context.Context, sessionID string) (TranscriptOutput, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return TranscriptOutput{}, err
	}
	return TranscriptOutput{
		SessionID:  sess.ID,
		Loading:    sess.Chat.Loading(),
		Transcript: sess.Chat.Transcript(),
	}, nil
}

// Draft generates a contact message, replacing the session's previous draft.
func (s *PortfolioService) Draft(ctx context.Context, in DraftInput) (DraftOutput, error) {
	if err := s.validate(in.Intent, "empty_intent"); err != nil {
		return DraftOutput{}, err
	}
	sess, err := s.session(in.SessionID)
	if err != nil {
		return DraftOutput{}, err
	}

	draft, err := sess.Drafter.Submit(ctx, in.Intent)
	if err != nil {
		return DraftOutput{}, mapSessionError(err, "empty_intent")
	}
	observability.FromContext(ctx, s.logger).Info("draft generated",
		zap.String("session_id", sess.ID),
		zap.Int("draft_len", len(draft.Message)),
	)
	return DraftOutput{SessionID: sess.ID, Draft: draft}, nil
}

// DraftStatus reports the session's current draft and whether one is pending.
func (s *PortfolioService) DraftStatus(_ context.Context, sessionID string) (DraftStatusOutput, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return DraftStatusOutput{}, err
	}
	draft := sess.Drafter.Draft()
	return DraftStatusOutput{
		SessionID: sess.ID,
		Loading:   sess.Drafter.Loading(),
		Generated: draft.Generated(),
		Draft:     draft,
	}, nil
}

// Menu applies a navigation menu action. An empty action toggles.
func (s *PortfolioService) Menu(_ context.Context, in MenuInput) (MenuOutput, error) {
	sess, err := s.session(in.SessionID)
	if err != nil {
		return MenuOutput{}, err
	}
	switch MenuAction(strings.ToLower(strings.TrimSpace(string(in.Action)))) {
	case MenuToggle, "":
		sess.Menu.Toggle()
	case MenuOpen:
		sess.Menu.Open()
	case MenuClose:
		sess.Menu.Close()
	default:
		return MenuOutput{}, newError(ErrorInvalidInput, "invalid_menu_action", nil)
	}
	return MenuOutput{SessionID: sess.ID, Open: sess.Menu.IsOpen()}, nil
}

func (s *PortfolioService) Profile() ProfileOutput {
	return ProfileOutput{Profile: s.profile, Greeting: persona.Greeting(s.profile)}
}

// HeroFrames returns one full typewriter cycle over the profile roles.
func (s *PortfolioService) HeroFrames() ([]typewriter.Frame, error) {
	tw, err := typewriter.New(s.profile.Roles, s.timings)
	if err != nil {
		return nil, newError(ErrorInternal, "typewriter_init_error", err)
	}
	return tw.Cycle(), nil
}

func (s *PortfolioService) validate(input, emptyReason string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return newError(ErrorInvalidInput, emptyReason, nil)
	}
	if utf8.RuneCountInString(trimmed) > s.maxInputLen {
		return newError(ErrorInvalidInput, "input_too_long", nil)
	}
	return nil
}

func (s *PortfolioService) session(id string) (*repository.Session, error) {
	sess, err := s.sessions.GetOrCreate(id)
	if err != nil {
		return nil, newError(ErrorInvalidInput, "invalid_session_id", err)
	}
	return sess, nil
}

func mapSessionError(err error, emptyReason string) error {
	switch {
	case errors.Is(err, session.ErrBusy):
		return newError(ErrorBusy, "request_in_flight", err)
	case errors.Is(err, session.ErrEmptyInput):
		return newError(ErrorInvalidInput, emptyReason, err)
	default:
		return newError(ErrorInternal, "session_error", err)
	}
}
