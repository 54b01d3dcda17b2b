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

// Drafter is the single-shot contact-message helper. Each result replaces
// the previous one.
type Drafter struct {
	gen     Generator
	profile persona.Profile

	mu      sync.Mutex
	loading bool
	draft   domain.Draft
}

func NewDrafter(gen Generator, profile persona.Profile) (*Drafter, error) {
	if gen == nil {
		return nil, errors.New("session: generator must not be nil")
	}
	return &Drafter{gen: gen, profile: profile}, nil
}

// Submit replaces the current draft. A panicking generator stores the
// connection-lost text.
func (d *Drafter) Submit(ctx context.Context, intent string) (draft domain.Draft, err error) {
	if strings.TrimSpace(intent) == "" {
		return domain.Draft{}, ErrEmptyInput
	}
	d.mu.Lock()
	if d.loading {
		d.mu.Unlock()
		return domain.Draft{}, ErrBusy
	}
	d.loading = true
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			draft = d.finish(intent, gemini.SentinelConnectionLost)
		}
	}()
	msg := d.gen.Text(ctx, persona.DraftPrompt(d.profile, intent), persona.DraftInstruction)
	return d.finish(intent, msg), nil
}

func (d *Drafter) finish(intent, msg string) domain.Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft = domain.Draft{Intent: intent, Message: msg}
	d.loading = false
	return d.draft
}

func (d *Drafter) Draft() domain.Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

func (d *Drafter) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}
