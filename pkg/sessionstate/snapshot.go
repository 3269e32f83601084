package sessionstate

import (
	"context"

	"github.com/dmitrymomot/authflow/pkg/allauth"
)

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	User          *allauth.User
	Authenticated bool
	// Loading is advisory and meant for UI spinners.
	Loading     bool
	Initialized bool
}

// LoggedIn reports an authenticated session with a user.
func (s Snapshot) LoggedIn() bool {
	return s.Authenticated && s.User != nil
}

// UserID returns the user id or an empty string.
func (s Snapshot) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID.String()
}

// Observer is the read-only side of a Store handed to route guards and views.
type Observer interface {
	Snapshot() Snapshot
	// Subscribe emits the current snapshot immediately and then every change,
	// until ctx is done. The channel is closed afterwards.
	Subscribe(ctx context.Context) <-chan Snapshot
	// Initialized is closed once the lifecycle has been initialized.
	Initialized() <-chan struct{}
	// WaitInitialized blocks until initialization or until ctx is done, and
	// returns the snapshot observed at that moment.
	WaitInitialized(ctx context.Context) (Snapshot, error)
}
