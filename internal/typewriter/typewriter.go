// Package typewriter drives the hero banner's typed-text animation.
package typewriter

import (
	"context"
	"errors"
	"time"
)

type State string

const (
	StateTyping   State = "typing"
	StatePausing  State = "pausing"
	StateDeleting State = "deleting"
)

// Timings are the per-step delays. Deleting is faster than typing.
type Timings struct {
	Type   time.Duration
	Delete time.Duration
	Pause  time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Type:   100 * time.Millisecond,
		Delete: 50 * time.Millisecond,
		Pause:  2 * time.Second,
	}
}

// Frame is the observable state after a tick, plus the delay before the next one.
type Frame struct {
	Text    string        `json:"text"`
	Index   int           `json:"index"`
	State   State         `json:"state"`
	Delay   time.Duration `json:"-"`
	DelayMs int64         `json:"delayMs"`
}

// Typewriter cycles through roles one rune at a time. It is not safe for
// concurrent use; Run owns it while running.
type Typewriter struct {
	roles   [][]rune
	timings Timings

	index     int
	displayed int
	state     State
}

func New(roles []string, timings Timings) (*Typewriter, error) {
	if len(roles) == 0 {
		return nil, errors.New("typewriter: at least one role is required")
	}
	if timings.Type <= 0 || timings.Delete <= 0 || timings.Pause < 0 {
		return nil, errors.New("typewriter: type and delete delays must be positive")
	}
	rs := make([][]rune, len(roles))
	for i, r := range roles {
		rs[i] = []rune(r)
	}
	return &Typewriter{roles: rs, timings: timings, state: StateTyping}, nil
}

func (t *Typewriter) Text() string {
	return string(t.roles[t.index][:t.displayed])
}

func (t *Typewriter) Index() int {
	return t.index
}

func (t *Typewriter) State() State {
	return t.state
}

func (t *Typewriter) frame(delay time.Duration) Frame {
	return Frame{Text: t.Text(), Index: t.index, State: t.state, Delay: delay, DelayMs: delay.Milliseconds()}
}

// Tick advances one step and returns the delay before the next tick.
func (t *Typewriter) Tick() time.Duration {
	role := t.roles[t.index]
	switch t.state {
	case StateTyping:
		if t.displayed < len(role) {
			t.displayed++
			return t.timings.Type
		}
		t.state = StatePausing
		return t.timings.Pause
	case StatePausing:
		t.state = StateDeleting
		return t.timings.Delete
	default:
		if t.displayed > 0 {
			t.displayed--
			return t.timings.Delete
		}
		t.index = (t.index + 1) % len(t.roles)
		t.state = StateTyping
		return t.timings.Type
	}
}

// Step ticks once and reports the resulting frame.
func (t *Typewriter) Step() Frame {
	d := t.Tick()
	return t.frame(d)
}

// Cycle returns the frames of one full pass over every role, ending when the
// index wraps back to where it started.
func (t *Typewriter) Cycle() []Frame {
	start := t.index
	var frames []Frame
	for {
		f := t.Step()
		frames = append(frames, f)
		if f.State == StateTyping && f.Index == start && f.Text == "" {
			return frames
		}
	}
}

// Run ticks on a timer until ctx is done, calling fn with every frame.
func (t *Typewriter) Run(ctx context.Context, fn func(Frame)) error {
	timer := time.NewTimer(t.timings.Type)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			f := t.Step()
			fn(f)
			timer.Reset(f.Delay)
		}
	}
}
