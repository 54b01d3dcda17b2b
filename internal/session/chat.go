package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"portfolio-mainframe/internal/domain"
	"portfolio-mainframe/internal/integrations/gemini"
	"portfolio-mainframe/internal/persona"
)

var (
	ErrEmptyInput = errors.New("session: input is empty")
	// ErrBusy rejects a submission while a previous one is still in flight.
	ErrBusy = errors.New("session: request already in flight")
)

// Generator is the total text-generation boundary: it always returns a
// displayable string, sentinel text included.
type Generator interface {
	Text(ctx context.Context, prompt, systemInstruction string) string
}

type ChatState string

const (
	ChatIdle             ChatState = "idle"
	ChatAwaitingResponse ChatState = "awaiting-response"
)

// Chat is the chat widget's state machine.
type Chat struct {
	gen     Generator
	profile persona.Profile

	mu         sync.Mutex
	state      ChatState
	transcript *domain.Transcript
}

func NewChat(gen Generator, profile persona.Profile) (*Chat, error) {
	if gen == nil {
		return nil, errors.New("session: generator must not be nil")
	}
	return &Chat{
		gen:     gen,
		profile: profile,
		state:   ChatIdle,
		transcript: domain.NewTranscript(domain.ChatMessage{
			Role: domain.RoleSystem,
			Text: persona.Greeting(profile),
		}),
	}, nil
}

// PendingReply is an in-flight request started by Begin.
type PendingReply struct {
	chat     *Chat
	Message  string
	resolved bool
}

// Begin moves idle → awaiting-response: the user entry is appended and the
// loading flag set.
func (c *Chat) Begin(input string) (*PendingReply, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ChatAwaitingResponse {
		return nil, ErrBusy
	}
	c.transcript.Append(domain.ChatMessage{Role: domain.RoleUser, Text: input})
	c.state = ChatAwaitingResponse
	return &PendingReply{chat: c, Message: input}, nil
}

// Resolve appends the system entry and returns to idle. Only the first call
// has an effect.
func (p *PendingReply) Resolve(text string) domain.ChatMessage {
	c := p.chat
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := domain.ChatMessage{Role: domain.RoleSystem, Text: text}
	if p.resolved {
		return msg
	}
	p.resolved = true
	c.transcript.Append(msg)
	c.state = ChatIdle
	return msg
}

// Submit runs one full exchange. The raw input is the prompt; the persona
// block, rebuilt for this query, is the system instruction.
// A panicking generator resolves the exchange with the connection-lost text.
func (c *Chat) Submit(ctx context.Context, input string) (reply domain.ChatMessage, err error) {
	pending, err := c.Begin(input)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			reply = pending.Resolve(gemini.SentinelConnectionLost)
		}
	}()
	text := c.gen.Text(ctx, pending.Message, persona.ChatInstruction(c.profile, pending.Message))
	return pending.Resolve(text), nil
}

func (c *Chat) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Chat) Loading() bool {
	return c.State() == ChatAwaitingResponse
}

func (c *Chat) Transcript() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}
