package app

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaminalder/blockblast/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound   = errors.New("session not found")
	ErrNotAPlayer = errors.New("not a player")
)

// RecordStore keeps the best final scores.
type RecordStore interface {
	Load(ctx context.Context) []int
	Append(ctx context.Context, score int) ([]int, error)
}

// SessionState is the in-memory state tracked per session.
type SessionState struct {
	ID       string
	Owner    string // player allowed to move; empty lets anyone play
	Session  domain.Session
	Recorded bool // final score written to the record store
	Created  time.Time
	Updated  time.Time
}

type entry struct {
	SessionState
	live *domain.Session
}

func (e *entry) snapshot() SessionState {
	st := e.SessionState
	st.Session = e.live.Clone()
	return st
}

// subscriber guards its channel so a send never races the close from an
// unsubscribe.
type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// send delivers payload without blocking. A full buffer closes the
// subscriber; it reports false when the subscriber should be dropped.
func (s *subscriber) send(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- payload:
		return true
	default:
		s.closed = true
		close(s.ch)
		return false
	}
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	Layout   domain.Layout
	Seed     uint64 // 0 picks a random seed
	Records  RecordStore
	Logger   *slog.Logger
	Renderer func(SessionState) []byte
}

// Service manages sessions and subscribers.
type Service struct {
	mu      sync.Mutex
	games   map[string]*entry
	subs    map[string]map[*subscriber]struct{}
	render  func(SessionState) []byte
	gen     *domain.Generator
	layout  domain.Layout
	records RecordStore
	log     *slog.Logger
}

func nopRender(SessionState) []byte { return nil }

// NewService creates a service from opts.
func NewService(opts Options) *Service {
	if opts.Layout.CellSize == 0 {
		opts.Layout = domain.DefaultLayout
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRender
	}
	return &Service{
		games:   make(map[string]*entry),
		subs:    make(map[string]map[*subscriber]struct{}),
		render:  opts.Renderer,
		gen:     domain.NewGenerator(opts.Seed, opts.Layout),
		layout:  opts.Layout,
		records: opts.Records,
		log:     opts.Logger,
	}
}

// Layout returns the pixel layout sessions are created with.
func (s *Service) Layout() domain.Layout { return s.layout }

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(SessionState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = nopRender
		return
	}
	s.render = renderer
}

// CreateSession starts and registers a new session played by owner.
func (s *Service) CreateSession(owner string) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	e := &entry{
		SessionState: SessionState{ID: id, Owner: owner, Created: now, Updated: now},
		live:         domain.NewSession(s.gen, s.layout),
	}
	s.games[id] = e
	s.log.Info("session created", "id", id, "owner", owner)
	st := e.snapshot()
	return &st, nil
}

// Get returns a snapshot of the session if present.
func (s *Service) Get(id string) (*SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[id]
	if !ok {
		return nil, false
	}
	st := e.snapshot()
	return &st, true
}

// Authorize reports whether playerID may move pieces in session id.
// Everyone else spectates.
func (s *Service) Authorize(id, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[id]
	if !ok {
		return ErrNotFound
	}
	if e.Owner != "" && e.Owner != playerID {
		return ErrNotAPlayer
	}
	return nil
}

// Records returns the stored best scores, or nil without a store.
func (s *Service) Records(ctx context.Context) []int {
	if s.records == nil {
		return nil
	}
	return s.records.Load(ctx)
}

// Press picks up a pending piece.
func (s *Service) Press(id string, pieceID int) (*SessionState, error) {
	return s.mutate(context.Background(), id, func(g *domain.Session) error {
		return g.Press(pieceID)
	})
}

// Drag moves the held piece to pixel (x, y).
func (s *Service) Drag(id string, x, y int) (*SessionState, error) {
	return s.mutate(context.Background(), id, func(g *domain.Session) error {
		return g.Drag(domain.Point{X: x, Y: y})
	})
}

// Cancel returns the held piece to the tray.
func (s *Service) Cancel(id string) (*SessionState, error) {
	return s.mutate(context.Background(), id, func(g *domain.Session) error {
		return g.Cancel()
	})
}

// Release drops the held piece at pixel (x, y).
func (s *Service) Release(ctx context.Context, id string, x, y int) (domain.Outcome, *SessionState, error) {
	var out domain.Outcome
	st, err := s.mutate(ctx, id, func(g *domain.Session) error {
		var err error
		out, err = g.Release(domain.Point{X: x, Y: y})
		return err
	})
	return out, st, err
}

// Place picks up pieceID and drops it at pixel (x, y).
func (s *Service) Place(ctx context.Context, id string, pieceID, x, y int) (domain.Outcome, *SessionState, error) {
	var out domain.Outcome
	st, err := s.mutate(ctx, id, func(g *domain.Session) error {
		var err error
		out, err = g.Place(pieceID, domain.Point{X: x, Y: y})
		return err
	})
	return out, st, err
}

// PlaceAt drops pieceID with its top-left cell on (row, col).
func (s *Service) PlaceAt(ctx context.Context, id string, pieceID, row, col int) (domain.Outcome, *SessionState, error) {
	p := s.layout.PointOf(domain.Pos{Row: row, Col: col})
	return s.Place(ctx, id, pieceID, p.X, p.Y)
}

// Restart replaces the session with a fresh one under the same id.
func (s *Service) Restart(ctx context.Context, id string) (*SessionState, error) {
	return s.mutateEntry(ctx, id, func(e *entry) error {
		e.live = e.live.Reset()
		e.Recorded = false
		s.log.Info("session restarted", "id", id)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*domain.Session) error) (*SessionState, error) {
	return s.mutateEntry(ctx, id, func(e *entry) error { return fn(e.live) })
}

// mutateEntry applies fn under the lock, records a finished game once, and
// broadcasts the new state.
func (s *Service) mutateEntry(ctx context.Context, id string, fn func(*entry) error) (*SessionState, error) {
	var toDrop []*subscriber

	s.mu.Lock()
	e, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if err := fn(e); err != nil {
		st := e.snapshot()
		s.mu.Unlock()
		return &st, err
	}
	var final int
	finished := e.live.Over && !e.Recorded
	if finished {
		e.Recorded = true
		final = e.live.Score
	}
	e.Updated = time.Now()

	cp := e.snapshot()
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	if finished {
		s.log.Info("session over", "id", id, "score", final, "moves", cp.Session.Moves)
		if s.records != nil {
			if _, err := s.records.Append(ctx, final); err != nil {
				s.log.Warn("record append failed", "id", id, "err", err)
			}
		}
	}

	// Fan-out; drop slow or departed subscribers
	for sub := range subs {
		if !sub.send(payload) {
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
	}
	return &cp, nil
}

// Subscribe registers a subscriber for a session. Returns a channel and an
// unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
