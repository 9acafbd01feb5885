package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/roster"
	"github.com/labstack/gommon/log"
)

var (
	ErrRoomNotTracked = errors.New("room is not tracked")
	ErrShuttingDown   = errors.New("manager is shutting down")
)

// Dispatcher accepts roster events for one room and exposes the roster
// they have produced so far.
type Dispatcher interface {
	Dispatch(ctx context.Context, e roster.Event) error
	Roster() roster.Roster
}

// Bridge feeds a session from the conferencing engine.
type Bridge interface {
	Disconnect()
}

type Connector interface {
	Connect(ctx context.Context, room string, d Dispatcher) (Bridge, error)
}

type Manager interface {
	Track(ctx context.Context, room string) error
	Untrack(ctx context.Context, room string) (Report, error)
	Session(room string) (*Session, bool)
	Rooms() []string
	Apply(ctx context.Context, room string, events ...roster.Event) error
	Shutdown(ctx context.Context)
}

type tracked struct {
	session *Session
	bridge  Bridge
}

type manager struct {
	// State
	lock  sync.Mutex
	rooms map[string]*tracked
	// Rooms whose bridge is still connecting
	pending map[string]struct{}

	// Lifetime of the session loops
	ctx    context.Context
	cancel context.CancelFunc

	// Services
	connector Connector
	publisher Publisher
	opts      []Option
}

func NewManager(connector Connector, publisher Publisher, opts ...Option) Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &manager{
		rooms:     make(map[string]*tracked),
		pending:   make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
		connector: connector,
		publisher: publisher,
		opts:      opts,
	}
}

// Track starts following room. Tracking a room twice, or while it is still
// connecting, is a no-op. The manager lock is not held while connecting.
func (m *manager) Track(ctx context.Context, room string) error {
	m.lock.Lock()
	_, found := m.rooms[room]
	_, connecting := m.pending[room]
	if found || connecting {
		m.lock.Unlock()
		return nil
	}
	m.pending[room] = struct{}{}
	m.lock.Unlock()

	s := New(room, m.opts...)
	go func() {
		if err := s.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrSessionClosed) {
			log.Errorf("session loop stopped | error: %v, room: %s", err, room)
		}
	}()

	b, err := m.connector.Connect(ctx, room, s)

	m.lock.Lock()
	delete(m.pending, room)
	if err == nil && m.ctx.Err() != nil {
		err = ErrShuttingDown
		b.Disconnect()
	}
	if err != nil {
		m.lock.Unlock()
		s.Close()
		return err
	}
	m.rooms[room] = &tracked{session: s, bridge: b}
	m.lock.Unlock()

	log.Infof("tracking room | room: %s", room)
	return nil
}

// Untrack disconnects from room, closes its session and publishes the
// attendance report.
func (m *manager) Untrack(ctx context.Context, room string) (Report, error) {
	m.lock.Lock()
	t, found := m.rooms[room]
	delete(m.rooms, room)
	m.lock.Unlock()

	if !found {
		return Report{}, ErrRoomNotTracked
	}

	t.bridge.Disconnect()
	report := t.session.Close()
	log.Infof("stopped tracking room | room: %s, participants: %d", room, len(report.Participants))

	if m.publisher == nil {
		return report, nil
	}
	output, err := m.publisher.Publish(ctx, report)
	if err != nil {
		return report, err
	}
	log.Debugf("published report | room: %s, output: %s", room, output)
	return report, nil
}

func (m *manager) Session(room string) (*Session, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	t, found := m.rooms[room]
	if !found {
		return nil, false
	}
	return t.session, true
}

func (m *manager) Rooms() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	return slices.Sorted(maps.Keys(m.rooms))
}

// Apply dispatches events into a tracked room, in order.
func (m *manager) Apply(ctx context.Context, room string, events ...roster.Event) error {
	s, found := m.Session(room)
	if !found {
		return ErrRoomNotTracked
	}
	for _, e := range events {
		if err := s.Dispatch(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown untracks every room. Tracks still connecting are turned away.
func (m *manager) Shutdown(ctx context.Context) {
	// Cancelling first leaves the remaining queues to Close, which applies
	// them before building each report.
	m.cancel()
	for _, room := range m.Rooms() {
		if _, err := m.Untrack(ctx, room); err != nil {
			log.Errorf("cannot untrack room on shutdown | error: %v, room: %s", err, room)
		}
	}
}
