package sessionstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/logger"
)

// Token orders state-mutating operations. Zero is never issued.
type Token uint64

// Store owns the session state of one lifecycle. All methods are safe for
// concurrent use.
type Store struct {
	mu        sync.Mutex
	user      *allauth.User
	authed    bool
	inflight  int
	issued    Token
	committed Token
	initDone  chan struct{}
	inited    bool
	subs      map[*subscription]struct{}
	closed    bool
	logger    *slog.Logger
}

var _ Observer = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an uninitialized, logged-out store.
func New(opts ...Option) *Store {
	s := &Store{
		initDone: make(chan struct{}),
		subs:     make(map[*subscription]struct{}),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("sessionstate"))
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Initialized is closed by the first MarkInitialized call.
func (s *Store) Initialized() <-chan struct{} {
	return s.initDone
}

// WaitInitialized blocks until the store is initialized or ctx is done.
func (s *Store) WaitInitialized(ctx context.Context) (Snapshot, error) {
	select {
	case <-s.initDone:
		return s.Snapshot(), nil
	default:
	}
	select {
	case <-s.initDone:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// MarkInitialized flips initialized to true. It reports whether this call
// performed the transition; later calls are no-ops.
func (s *Store) MarkInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inited {
		return false
	}
	s.inited = true
	close(s.initDone)
	s.logger.Debug("session state initialized",
		slog.Bool("logged_in", s.authed && s.user != nil),
	)
	s.publishLocked()
	return true
}

// Begin starts a state-mutating operation. The caller must call End.
func (s *Store) Begin() *Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.inflight++
	s.publishLocked()
	return &Op{store: s, token: s.issued}
}

// Clear logs the session out immediately, outside of any operation. Every
// operation still in flight is discarded, whenever it started.
func (s *Store) Clear() {
	s.revoke()
}

// Close ends every subscription. The store stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.close()
	}
	clear(s.subs)
}

func (s *Store) commit(t Token, user *allauth.User, authenticated bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t < s.committed {
		s.logger.Debug("stale session write discarded",
			slog.Uint64("token", uint64(t)),
			slog.Uint64("committed", uint64(s.committed)),
		)
		return false
	}
	s.committed = t

	if user != nil {
		u := *user
		user = &u
	}
	s.user = user
	s.authed = authenticated && user != nil
	s.publishLocked()
	return true
}

// revoke clears the session with a token issued at commit time, so every
// token handed out before it becomes stale.
func (s *Store) revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	s.committed = s.issued
	s.user = nil
	s.authed = false
	s.logger.Debug("session revoked", slog.Uint64("token", uint64(s.committed)))
	s.publishLocked()
}

func (s *Store) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight > 0 {
		s.inflight--
	}
	s.publishLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		User:          s.user,
		Authenticated: s.authed,
		Loading:       s.inflight > 0,
		Initialized:   s.inited,
	}
}

// Op is one state-mutating operation.
type Op struct {
	store *Store
	token Token
	once  sync.Once
}

// Token returns the ordering token of the operation.
func (o *Op) Token() Token { return o.token }

// SetSession replaces the session. authenticated is forced to false when user
// is nil. It reports false when a newer operation already committed.
func (o *Op) SetSession(user *allauth.User, authenticated bool) bool {
	return o.store.commit(o.token, user, authenticated)
}

// Clear sets the logged-out state. Like SetSession it loses against a newer
// operation that already committed.
func (o *Op) Clear() bool {
	return o.store.commit(o.token, nil, false)
}

// Revoke sets the logged-out state unconditionally and discards every
// operation in flight, including ones that started after o.
func (o *Op) Revoke() {
	o.store.revoke()
}

// End finishes the operation. Repeated calls are no-ops.
func (o *Op) End() {
	o.once.Do(o.store.end)
}
