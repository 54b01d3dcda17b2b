package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"portfolio-mainframe/internal/persona"
)

type fakeGen struct {
	reply string
	block chan struct{}
}

func (f *fakeGen) Text(_ context.Context, _, _ string) string {
	if f.block != nil {
		<-f.block
	}
	return f.reply
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func mustNewStore(t *testing.T, ttl time.Duration) (*Store, *fakeClock) {
	t.Helper()
	s, err := New(&fakeGen{reply: "ok"}, persona.Default(), ttl)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)}
	s.now = clock.Now
	return s, clock
}

func TestNew_NilGenerator(t *testing.T) {
	_, err := New(nil, persona.Default(), time.Minute)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNew_DefaultTTL(t *testing.T) {
	s, err := New(&fakeGen{}, persona.Default(), 0)
	require.NoError(t, err)
	require.Equal(t, defaultSessionTTL, s.ttl)
}

func TestGetOrCreate_EmptyIDMintsUUID(t *testing.T) {
	orig := newUUID
	newUUID = func() string { return "minted-id" }
	t.Cleanup(func() { newUUID = orig })

	s, _ := mustNewStore(t, time.Minute)
	sess, err := s.GetOrCreate("  ")
	require.NoError(t, err)
	require.Equal(t, "minted-id", sess.ID)
	require.NotNil(t, sess.Chat)
	require.NotNil(t, sess.Drafter)
	require.NotNil(t, sess.Menu)
	require.Equal(t, 1, s.Len())
}

func TestGetOrCreate_ReturnsSameSession(t *testing.T) {
	s, _ := mustNewStore(t, time.Minute)
	a, err := s.GetOrCreate("abc")
	require.NoError(t, err)
	_, err = a.Chat.Submit(context.Background(), "hello")
	require.NoError(t, err)

	b, err := s.GetOrCreate(" abc ")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Len(t, b.Chat.Transcript(), 3)
}

func TestGetOrCreate_ExpiredSessionIsReplaced(t *testing.T) {
	s, clock := mustNewStore(t, time.Minute)
	a, err := s.GetOrCreate("abc")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	b, err := s.GetOrCreate("abc")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Len(t, b.Chat.Transcript(), 1)
}

func TestGetOrCreate_AccessExtendsLifetime(t *testing.T) {
	s, clock := mustNewStore(t, time.Minute)
	a, err := s.GetOrCreate("abc")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, err = s.GetOrCreate("abc")
	require.NoError(t, err)
	clock.Advance(50 * time.Second)

	b, err := s.GetOrCreate("abc")
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestGetOrCreate_IDTooLong(t *testing.T) {
	s, _ := mustNewStore(t, time.Minute)
	_, err := s.GetOrCreate(strings.Repeat("x", maxSessionIDLen+1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "longer than")
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	s, clock := mustNewStore(t, time.Minute)
	_, err := s.GetOrCreate("old")
	require.NoError(t, err)
	clock.Advance(45 * time.Second)
	_, err = s.GetOrCreate("new")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	removed := s.Sweep(clock.Now())
	require.Equal(t, 1, removed)
	require.Equal(t, 1, s.Len())
}

func TestSweep_KeepsSessionWithRequestInFlight(t *testing.T) {
	s, clock := mustNewStore(t, time.Minute)
	sess, err := s.GetOrCreate("busy")
	require.NoError(t, err)
	_, err = sess.Chat.Begin("pending question")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.Zero(t, s.Sweep(clock.Now()))
	require.Equal(t, 1, s.Len())
}

func TestGetOrCreate_ReclaimsExpiredSessions(t *testing.T) {
	s, clock := mustNewStore(t, time.Minute)
	for i := 0; i < 100; i++ {
		_, err := s.GetOrCreate("")
		require.NoError(t, err)
	}
	require.Equal(t, 100, s.Len())

	clock.Advance(2 * time.Hour)
	_, err := s.GetOrCreate("")
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
}

func TestGetOrCreate_ReclaimKeepsLiveAndBusySessions(t *testing.T) {
	s, clock := mustNewStore(t, time.Minute)
	_, err := s.GetOrCreate("")
	require.NoError(t, err)
	busy, err := s.GetOrCreate("busy")
	require.NoError(t, err)
	_, err = busy.Chat.Begin("pending question")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, err = s.GetOrCreate("live")
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	_, err = s.GetOrCreate("live")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
}
