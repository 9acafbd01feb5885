package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/labstack/gommon/log"
)

var ErrSessionClosed = errors.New("session closed")

const DefaultBufferSize = 256

// Session owns the roster of one room. Events are applied one at a time in
// the order Dispatch accepted them.
type Session struct {
	room   string
	events chan roster.Event
	now    func() time.Time

	lock       sync.RWMutex
	roster     roster.Roster
	attendance *attendance

	// admit guards closed: Dispatch holds it shared while enqueueing, Close
	// holds it exclusively to shut the queue.
	admit  sync.RWMutex
	closed bool

	stop      chan struct{}
	done      chan struct{}
	running   atomic.Bool
	closeOnce sync.Once
}

type Option func(*Session)

// WithClock replaces time.Now for attendance timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithBufferSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.events = make(chan roster.Event, n)
		}
	}
}

func New(room string, opts ...Option) *Session {
	s := &Session{
		room:       room,
		events:     make(chan roster.Event, DefaultBufferSize),
		now:        time.Now,
		roster:     roster.New(),
		attendance: newAttendance(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Room() string {
	return s.room
}

// Roster returns the current snapshot.
func (s *Session) Roster() roster.Roster {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.roster
}

// Dispatch queues e behind every event accepted before it. It blocks while
// the queue is full. An event accepted with a nil error is applied before
// Close returns.
func (s *Session) Dispatch(ctx context.Context, e roster.Event) error {
	s.admit.RLock()
	defer s.admit.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}

	select {
	case <-s.stop:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.events <- e:
		return nil
	}
}

// Run applies queued events until the session is closed or ctx is done.
// Events still queued when the loop stops are applied by Close.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		select {
		case <-s.stop:
			return ErrSessionClosed
		default:
			return errors.New("session already running")
		}
	}
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			log.Debugf("stopping session loop | room: %s, reason: %v", s.room, ctx.Err())
			return ctx.Err()
		case <-s.stop:
			s.drain()
			return nil
		case e := <-s.events:
			s.apply(e)
		}
	}
}

func (s *Session) drain() {
	for {
		select {
		case e := <-s.events:
			s.apply(e)
		default:
			return
		}
	}
}

func (s *Session) apply(e roster.Event) {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev := s.roster
	s.roster = roster.Reduce(prev, e)
	s.attendance.observe(prev, s.roster, e, s.now())
	log.Debugf("applied event | room: %s, event: %s, participants: %d", s.room, roster.Type(e), s.roster.Len())
}

// Close stops the session and returns its attendance report. Calling Close
// more than once returns the same participants, with the later generation
// time.
func (s *Session) Close() Report {
	s.closeOnce.Do(func() {
		// Wakes dispatchers blocked on a full queue before taking admit.
		close(s.stop)
		s.admit.Lock()
		s.closed = true
		s.admit.Unlock()
	})

	// Claim the loop if it never started, otherwise wait for it to exit.
	if s.running.CompareAndSwap(false, true) {
		close(s.done)
	} else {
		<-s.done
	}
	// Whatever the loop left behind, including events it raced with Close
	// or skipped on cancellation, is applied here.
	s.drain()

	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now()
	s.attendance.closeAll(now)
	return Report{
		Room:         s.room,
		GeneratedAt:  now,
		Participants: s.attendance.records(),
	}
}
