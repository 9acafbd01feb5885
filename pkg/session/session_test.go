package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by one second on every reading.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func startSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New("room-1", opts...)
	go s.Run(context.Background())
	return s
}

func TestSessionAppliesEventsInOrder(t *testing.T) {
	s := startSession(t)
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, roster.Joined{Participant: participant.Participant{ID: "r1"}}))
	require.NoError(t, s.Dispatch(ctx, roster.Joined{Participant: participant.Participant{ID: "r2"}}))
	require.NoError(t, s.Dispatch(ctx, roster.Pinned{ID: "r1"}))
	require.NoError(t, s.Dispatch(ctx, roster.Pinned{ID: "r2"}))
	require.NoError(t, s.Dispatch(ctx, roster.Left{ID: "r1"}))
	s.Close()

	r := s.Roster()
	require.Equal(t, []string{"r2"}, r.RemoteIDs())
	id, ok := r.PinnedID()
	require.True(t, ok)
	require.Equal(t, "r2", id)
}

func TestDispatchAfterClose(t *testing.T) {
	s := startSession(t)
	s.Close()

	err := s.Dispatch(context.Background(), roster.Left{ID: "r1"})
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestDispatchHonoursContext(t *testing.T) {
	// Nothing consumes the queue, so the second dispatch blocks.
	s := New("room-1", WithBufferSize(1))
	require.NoError(t, s.Dispatch(context.Background(), roster.Left{ID: "r1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := s.Dispatch(ctx, roster.Left{ID: "r2"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunStopsWithContext(t *testing.T) {
	s := New("room-1")
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("session loop did not stop")
	}

	// Close must not hang once the loop is gone.
	s.Close()
}

func TestRunTwice(t *testing.T) {
	s := startSession(t)
	defer s.Close()
	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, time.Millisecond)
	require.Error(t, s.Run(context.Background()))
}

func TestCloseWithoutRun(t *testing.T) {
	s := New("room-1")
	report := s.Close()
	require.Equal(t, "room-1", report.Room)
	require.Empty(t, report.Participants)
}

func TestAttendanceReport(t *testing.T) {
	clock := newClock()
	s := startSession(t, WithClock(clock.Now))
	ctx := context.Background()

	events := []roster.Event{
		roster.Joined{Participant: participant.Participant{Local: true, DisplayName: "bot"}},
		roster.IDChanged{OldValue: participant.LocalDefaultID, NewValue: "RB_1"},
		roster.Joined{Participant: participant.Participant{ID: "alice"}},
		roster.Left{ID: "alice"},
		roster.Joined{Participant: participant.Participant{ID: "alice", DisplayName: "Alice"}},
		roster.Left{ID: "ghost"},
	}
	for _, e := range events {
		require.NoError(t, s.Dispatch(ctx, e))
	}
	report := s.Close()

	base := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(n int) time.Time { return base.Add(time.Duration(n) * time.Second) }

	require.Equal(t, "room-1", report.Room)
	require.Equal(t, []participant.ParticipantData{
		{Identity: "RB_1", DisplayName: "bot", Local: true, Start: at(1), End: at(7)},
		{Identity: "alice", Start: at(3), End: at(4)},
		{Identity: "alice", DisplayName: "Alice", Start: at(5), End: at(7)},
	}, report.Participants)
	require.Equal(t, at(7), report.GeneratedAt)
}

func reportedIDs(report Report) []string {
	ids := make([]string, 0, len(report.Participants))
	for _, p := range report.Participants {
		ids = append(ids, p.Identity)
	}
	return ids
}

func TestCloseAppliesAcceptedEvents(t *testing.T) {
	// Close may run before the loop goroutine has started.
	for i := 0; i < 200; i++ {
		s := startSession(t)
		require.NoError(t, s.Dispatch(context.Background(), roster.Joined{Participant: participant.Participant{ID: "alice"}}))

		report := s.Close()
		require.Equal(t, []string{"alice"}, reportedIDs(report), "run %d", i)
	}
}

func TestCloseWithoutRunAppliesQueue(t *testing.T) {
	s := New("room-1")
	require.NoError(t, s.Dispatch(context.Background(), roster.Joined{Participant: participant.Participant{ID: "alice"}}))

	report := s.Close()
	require.Equal(t, []string{"alice"}, reportedIDs(report))
	_, ok := s.Roster().Remote("alice")
	require.True(t, ok)

	require.ErrorIs(t, s.Run(context.Background()), ErrSessionClosed)
}

func TestCloseAfterContextCancelAppliesQueue(t *testing.T) {
	s := New("room-1")
	require.NoError(t, s.Dispatch(context.Background(), roster.Joined{Participant: participant.Participant{ID: "alice"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx), context.Canceled)

	require.Equal(t, []string{"alice"}, reportedIDs(s.Close()))
}

func TestDispatchRacingClose(t *testing.T) {
	s := startSession(t, WithBufferSize(4))
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		lock     sync.Mutex
		accepted []string
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := s.Dispatch(ctx, roster.Joined{Participant: participant.Participant{ID: id}})
			if err == nil {
				lock.Lock()
				accepted = append(accepted, id)
				lock.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrSessionClosed)
		}(fmt.Sprintf("p%02d", i))
	}

	report := s.Close()
	wg.Wait()

	// Anything accepted made it into the report; nothing got in afterwards.
	require.ElementsMatch(t, accepted, reportedIDs(report))
	require.ErrorIs(t, s.Dispatch(ctx, roster.Left{ID: "p00"}), ErrSessionClosed)
}

func TestDuplicateJoinsFromTwoSourcesKeepPin(t *testing.T) {
	s := New("room-1")
	ctx := context.Background()
	alice := participant.Participant{ID: "alice", ConferenceRef: "room-1"}

	// The room callback and the webhook both report alice before the loop
	// has applied either of them, with a pin queued in between.
	require.NoError(t, s.Dispatch(ctx, roster.Seen{Participant: alice}))
	require.NoError(t, s.Dispatch(ctx, roster.Pinned{ID: "alice"}))
	require.NoError(t, s.Dispatch(ctx, roster.Seen{Participant: alice}))

	go s.Run(ctx)
	report := s.Close()

	id, ok := s.Roster().PinnedID()
	require.True(t, ok)
	require.Equal(t, "alice", id)
	require.Equal(t, []string{"alice"}, reportedIDs(report))
}
