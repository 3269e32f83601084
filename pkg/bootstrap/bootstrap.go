// Package bootstrap establishes the initial session state of a page
// lifecycle exactly once.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/authflow/pkg/credential"
	"github.com/dmitrymomot/authflow/pkg/logger"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

var (
	ErrNoRefresher        = errors.New("bootstrap.no_refresher")
	ErrNoStore            = errors.New("bootstrap.no_store")
	ErrNoExecutionContext = errors.New("bootstrap.no_execution_context")
	// ErrPanic wraps a panic recovered from the refresh step.
	ErrPanic = errors.New("bootstrap.panic")
)

// Refresher re-reads the session. *flow.Engine implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Coordinator runs the bootstrap step of one lifecycle.
type Coordinator struct {
	refresher Refresher
	store     *sessionstate.Store
	exec      credential.ExecutionContext
	group     singleflight.Group
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Coordinator.
func New(refresher Refresher, store *sessionstate.Store, exec credential.ExecutionContext, opts ...Option) (*Coordinator, error) {
	switch {
	case refresher == nil:
		return nil, ErrNoRefresher
	case store == nil:
		return nil, ErrNoStore
	case exec == nil:
		return nil, ErrNoExecutionContext
	}
	c := &Coordinator{
		refresher: refresher,
		store:     store,
		exec:      exec,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("bootstrap"))
	return c, nil
}

// Run initializes the session state.
//
//   - An initialized store is left alone.
//   - A server render without a session cookie is initialized as logged out
//     without a backend call.
//   - Otherwise the session is refreshed once; concurrent callers share the
//     same refresh.
//
// The store is initialized when Run returns, even if the refresh failed or
// panicked. The refresh error, if any, is returned.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.store.Snapshot().Initialized {
		return nil
	}

	if c.exec.ServerRendering() {
		if _, ok := c.exec.SessionCredential(); !ok {
			c.store.Clear()
			if c.store.MarkInitialized() {
				c.logger.DebugContext(ctx, "anonymous server render, session fetch skipped",
					logger.ServerRendering(true))
			}
			return nil
		}
	}

	_, err, shared := c.group.Do("bootstrap", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "bootstrap completed logged out",
			logger.ServerRendering(c.exec.ServerRendering()),
			slog.Bool("shared", shared),
			logger.Error(err),
		)
	}
	return err
}

func (c *Coordinator) refresh(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			c.store.Clear()
		}
		c.store.MarkInitialized()
	}()

	if c.store.Snapshot().Initialized {
		return nil
	}
	return c.refresher.Refresh(ctx)
}
