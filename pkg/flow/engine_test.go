package flow_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/flow"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := flow.New(nil, sessionstate.New())
	assert.ErrorIs(t, err, flow.ErrNoTransport)

	b := newBackend(t)
	f := newFixture(t, b)
	_, err = flow.New(f.client, nil)
	assert.ErrorIs(t, err, flow.ErrNoStore)
}

func TestEngine_LoginThenLogout(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.handle(http.MethodPost, allauth.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		var req allauth.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@x.com", req.Email)
		assert.Equal(t, "pw", req.Password)
		assert.Equal(t, "csrf-1", r.Header.Get("X-CSRFToken"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sessionBody))
	})
	b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
	b.respond(http.MethodDelete, allauth.PathSession, http.StatusUnauthorized, anonBody)

	nav := &navigatorMock{}
	nav.On("Navigate", mock.Anything, "/auth/login").Return(nil).Once()

	f := newFixture(t, b, flow.WithNavigator(nav))
	ctx := context.Background()

	require.NoError(t, f.engine.Login(ctx, "user@x.com", "pw"))
	assert.Equal(t, 1, b.count(http.MethodGet, allauth.PathSession), "login must refresh")
	assert.Equal(t, 1, b.count(http.MethodOptions, allauth.PathLogin), "probe without csrf token")

	snap := f.store.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "1", snap.UserID())
	assert.True(t, snap.Initialized)
	requireConsistent(t, f.store)

	require.NoError(t, f.engine.Logout(ctx))
	snap = f.store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
	requireConsistent(t, f.store)
	nav.AssertExpectations(t)
}

func TestEngine_LoginSharesOperationID(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.respond(http.MethodPost, allauth.PathLogin, http.StatusOK, sessionBody)
	b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)

	f := newFixture(t, b)
	require.NoError(t, f.engine.Login(context.Background(), "a@b.com", "pw"))

	ids := b.requestIDs()
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1])
}

func TestEngine_LoginRejected(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.respond(http.MethodPost, allauth.PathLogin, http.StatusBadRequest, invalidBody)

	f := newFixture(t, b)
	f.seedCSRF(t, b)

	err := f.engine.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	var authErr *allauth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "The password is incorrect.", authErr.Message)
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.Equal(t, map[string]string{"password": "The password is incorrect."}, authErr.FieldErrors())

	assert.Zero(t, b.count(http.MethodOptions, allauth.PathLogin), "token present, no probe")
	assert.Zero(t, b.count(http.MethodGet, allauth.PathSession))
	assert.False(t, f.store.Snapshot().Authenticated)
	requireConsistent(t, f.store)
}

func TestEngine_LoginPendingFlowIsError(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.respond(http.MethodPost, allauth.PathLogin, http.StatusUnauthorized,
		`{"status":401,"data":{"flows":[{"id":"mfa_authenticate","is_pending":true}]},"meta":{"is_authenticated":false}}`)

	f := newFixture(t, b)
	err := f.engine.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, allauth.ErrFlowPending)

	var authErr *allauth.Error
	require.ErrorAs(t, err, &authErr)
	require.Len(t, authErr.PendingFlows(), 1)
	assert.Equal(t, allauth.FlowMFAAuthenticate, authErr.PendingFlows()[0].ID)
	requireConsistent(t, f.store)
}

func TestEngine_Signup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "pending verify_email is success", status: http.StatusUnauthorized, body: verifyBody},
		{name: "2xx", status: http.StatusOK, body: okBody},
		{name: "401 without pending verification", status: http.StatusUnauthorized, body: anonBody, wantErr: "Unauthorized"},
		{name: "field errors", status: http.StatusBadRequest, body: invalidBody, wantErr: "The password is incorrect."},
		{name: "empty error body", status: http.StatusBadRequest, body: "", wantErr: "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newBackend(t)
			b.respond(http.MethodPost, allauth.PathSignup, tt.status, tt.body)
			f := newFixture(t, b)

			res, err := f.engine.Signup(context.Background(), "a@b.com", "pw")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tt.wantErr)
				assert.False(t, res.RequiresVerification)
			} else {
				require.NoError(t, err)
				assert.True(t, res.RequiresVerification)
			}
			assert.Equal(t, 1, b.count(http.MethodOptions, allauth.PathSignup))
			assert.False(t, f.store.Snapshot().Authenticated)
			requireConsistent(t, f.store)
		})
	}
}

func TestEngine_Logout(t *testing.T) {
	t.Parallel()

	t.Run("already logged out", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodDelete, allauth.PathSession, http.StatusUnauthorized, anonBody)
		f := newFixture(t, b)

		require.NoError(t, f.engine.Logout(context.Background()))
		require.NoError(t, f.engine.Logout(context.Background()))
		assert.False(t, f.store.Snapshot().Authenticated)
		assert.Equal(t, 2, b.count(http.MethodOptions, allauth.PathSession))
		requireConsistent(t, f.store)
	})

	t.Run("backend failure still clears", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
		b.respond(http.MethodDelete, allauth.PathSession, http.StatusInternalServerError, "")
		f := newFixture(t, b)

		require.NoError(t, f.engine.Refresh(context.Background()))
		require.True(t, f.store.Snapshot().LoggedIn())

		require.NoError(t, f.engine.Logout(context.Background()))
		assert.False(t, f.store.Snapshot().LoggedIn())
		requireConsistent(t, f.store)
	})

	t.Run("transport failure still clears", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
		f := newFixture(t, b)
		require.NoError(t, f.engine.Refresh(context.Background()))

		b.srv.Close()
		nav := &navigatorMock{}
		nav.On("Navigate", mock.Anything, "/signin").Return(nil).Once()
		engine, err := flow.New(f.client, f.store, flow.WithNavigator(nav), flow.WithLoginPath("/signin"))
		require.NoError(t, err)

		require.NoError(t, engine.Logout(context.Background()))
		assert.False(t, f.store.Snapshot().LoggedIn())
		nav.AssertExpectations(t)
	})

	t.Run("navigation error is returned", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodDelete, allauth.PathSession, http.StatusOK, okBody)
		navErr := errors.New("navigation aborted")
		f := newFixture(t, b, flow.WithNavigator(flow.NavigatorFunc(func(context.Context, string) error {
			return navErr
		})))

		assert.ErrorIs(t, f.engine.Logout(context.Background()), navErr)
		assert.False(t, f.store.Snapshot().Authenticated)
	})
}

func TestEngine_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("authenticated session", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK,
			`{"data":{"user":{"id":"1","email":"a@b.com"}},"meta":{"is_authenticated":true}}`)
		f := newFixture(t, b)

		require.NoError(t, f.engine.Refresh(context.Background()))
		snap := f.store.Snapshot()
		assert.Equal(t, "1", snap.UserID())
		assert.Equal(t, "a@b.com", snap.User.Email)
		assert.True(t, snap.Authenticated)
		assert.True(t, snap.Initialized)
	})

	t.Run("user without authentication is kept", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK,
			`{"data":{"user":{"id":"7","email":"c@d.com"}},"meta":{"is_authenticated":false}}`)
		f := newFixture(t, b)

		require.NoError(t, f.engine.Refresh(context.Background()))
		snap := f.store.Snapshot()
		assert.Equal(t, "7", snap.UserID())
		assert.False(t, snap.Authenticated)
		assert.False(t, snap.LoggedIn())
		assert.True(t, snap.Initialized)
		requireConsistent(t, f.store)
	})

	t.Run("anonymous session", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusUnauthorized, anonBody)
		f := newFixture(t, b)

		require.NoError(t, f.engine.Refresh(context.Background()))
		snap := f.store.Snapshot()
		assert.False(t, snap.Authenticated)
		assert.True(t, snap.Initialized)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		f := newFixture(t, b)
		b.srv.Close()

		require.Error(t, f.engine.Refresh(context.Background()))
		snap := f.store.Snapshot()
		assert.Nil(t, snap.User)
		assert.False(t, snap.Authenticated)
		assert.True(t, snap.Initialized)
		requireConsistent(t, f.store)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, `{"meta":{"is_authenticated":true}}`)
		f := newFixture(t, b)

		err := f.engine.Refresh(context.Background())
		assert.ErrorIs(t, err, allauth.ErrMalformedResponse)
		assert.False(t, f.store.Snapshot().Authenticated)
		assert.True(t, f.store.Snapshot().Initialized)
	})

	t.Run("server error clears stale state", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
		f := newFixture(t, b)
		require.NoError(t, f.engine.Refresh(context.Background()))
		require.True(t, f.store.Snapshot().LoggedIn())

		b.respond(http.MethodGet, allauth.PathSession, http.StatusBadGateway, "")
		require.Error(t, f.engine.Refresh(context.Background()))
		assert.False(t, f.store.Snapshot().LoggedIn())
	})

	t.Run("repeated refresh initializes once", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
		f := newFixture(t, b)

		require.NoError(t, f.engine.Refresh(context.Background()))
		require.NoError(t, f.engine.Refresh(context.Background()))
		assert.False(t, f.store.MarkInitialized(), "initialization already happened")
		assert.Equal(t, 2, b.count(http.MethodGet, allauth.PathSession))
	})
}

func TestEngine_StaleRefreshAfterLogout(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	received := make(chan struct{})
	release := make(chan struct{})
	b.handle(http.MethodGet, allauth.PathSession, func(w http.ResponseWriter, _ *http.Request) {
		close(received)
		<-release
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sessionBody))
	})
	b.respond(http.MethodDelete, allauth.PathSession, http.StatusUnauthorized, anonBody)
	f := newFixture(t, b)

	done := make(chan error, 1)
	go func() { done <- f.engine.Refresh(context.Background()) }()

	<-received
	require.NoError(t, f.engine.Logout(context.Background()))
	close(release)
	require.NoError(t, <-done)

	snap := f.store.Snapshot()
	assert.False(t, snap.Authenticated, "stale refresh must not resurrect the session")
	assert.Nil(t, snap.User)
	assert.True(t, snap.Initialized)
	requireConsistent(t, f.store)
}

func TestEngine_LogoutWinsOverRefreshStartedDuringIt(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	received := make(chan struct{})
	release := make(chan struct{})
	b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
	b.handle(http.MethodDelete, allauth.PathSession, func(w http.ResponseWriter, _ *http.Request) {
		close(received)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(anonBody))
	})
	f := newFixture(t, b)

	done := make(chan error, 1)
	go func() { done <- f.engine.Logout(context.Background()) }()

	<-received
	// the refresh starts after the logout and resolves before it
	require.NoError(t, f.engine.Refresh(context.Background()))
	require.True(t, f.store.Snapshot().LoggedIn())

	close(release)
	require.NoError(t, <-done)

	snap := f.store.Snapshot()
	assert.False(t, snap.Authenticated, "logout must clear the session")
	assert.Nil(t, snap.User)
	requireConsistent(t, f.store)

	// later operations are not affected by the revoked tokens
	require.NoError(t, f.engine.Refresh(context.Background()))
	assert.True(t, f.store.Snapshot().LoggedIn())
}

func TestEngine_UnauthorizedHookClearsOnce(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.respond(http.MethodGet, allauth.PathSession, http.StatusOK, sessionBody)
	b.respond(http.MethodGet, "/api/profile", http.StatusUnauthorized, "")
	f := newFixture(t, b)
	require.NoError(t, f.engine.Refresh(context.Background()))

	resp, err := f.client.Do(context.Background(), authfetchRequest("/api/profile"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, f.store.Snapshot().LoggedIn())
	assert.Equal(t, 1, b.count(http.MethodGet, "/api/profile"))
	assert.Equal(t, 1, b.count(http.MethodGet, allauth.PathSession), "no refresh loop")
}
