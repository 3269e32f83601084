package gateway

import (
	"net/http"

	"github.com/dmitrymomot/authflow"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Key   string `json:"key"`
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type sessionView struct {
	User          any  `json:"user"`
	Authenticated bool `json:"authenticated"`
	Initialized   bool `json:"initialized"`
}

func viewOf(s sessionstate.Snapshot) sessionView {
	v := sessionView{Authenticated: s.Authenticated, Initialized: s.Initialized}
	if s.User != nil {
		v.User = s.User
	}
	return v
}

// lifecycle returns the request's lifecycle. The router always installs
// authflow.Middleware, so a missing lifecycle is a wiring bug.
func lifecycle(w http.ResponseWriter, r *http.Request) (*authflow.Lifecycle, bool) {
	lc, ok := authflow.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return lc, ok
}

func getSession(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	writeData(w, viewOf(lc.State().Snapshot()), nil)
}

func login(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := lc.Engine.Login(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, viewOf(lc.State().Snapshot()), nil)
}

func signup(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := lc.Engine.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]bool{"requires_verification": res.RequiresVerification}, nil)
}

func logout(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	if err := lc.Engine.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	meta := map[string]any{}
	if target, ok := lc.Redirect(); ok {
		meta["redirect"] = target
	}
	writeData(w, viewOf(lc.State().Snapshot()), meta)
}

func verifyEmail(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	var req verifyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		authenticated bool
		err           error
	)
	if req.Code != "" {
		res, verr := lc.Engine.VerifyEmailByCode(r.Context(), req.Email, req.Code)
		authenticated, err = res.Authenticated, verr
	} else {
		res, verr := lc.Engine.VerifyEmail(r.Context(), req.Key)
		authenticated, err = res.Authenticated, verr
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, viewOf(lc.State().Snapshot()), map[string]any{"authenticated": authenticated})
}

func resendVerification(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := lc.Engine.RequestEmailVerification(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func requestCode(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := lc.Engine.RequestLoginCode(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func confirmCode(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := lc.Engine.LoginWithCode(r.Context(), req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, viewOf(lc.State().Snapshot()), nil)
}

func me(w http.ResponseWriter, r *http.Request) {
	lc, ok := lifecycle(w, r)
	if !ok {
		return
	}
	writeData(w, lc.State().Snapshot().User, nil)
}

func loginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("sign in with POST /api/auth/login\n"))
}
