// Package authflow is a client for the django-allauth headless browser API
// that keeps an explicit session state per page lifecycle.
//
// A Lifecycle wires the pieces together:
//
//   - credential: where cookies come from (a cookie jar, or the inbound
//     request during server rendering)
//   - authfetch: the request authenticator adding the CSRF header and
//     session cookies, and clearing the session on unexpected 401s
//   - sessionstate: the session state store
//   - flow: the operations (login, signup, logout, refresh, verification)
//   - bootstrap: the one-time initialization of the session state
//
// Client lifecycles live as long as the process or tab they serve:
//
//	lc, err := authflow.NewClientLifecycle(cfg)
//	if err != nil {
//		return err
//	}
//	defer lc.Close()
//	_ = lc.Bootstrap.Run(ctx)
//	if err := lc.Engine.Login(ctx, email, password); err != nil {
//		return err
//	}
//
// Server lifecycles live for one inbound request. Middleware builds one per
// request, runs the bootstrap step and stores it in the request context:
//
//	r := chi.NewRouter()
//	r.Use(authflow.Middleware(cfg))
//	g := guard.New(authflow.StateResolver)
//	r.With(g.RequireAuth).Get("/dashboard", dashboard)
//
// Handlers reach the lifecycle with FromContext.
package authflow
