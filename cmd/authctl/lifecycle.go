package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authflow"
	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/logger"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

type globalFlags struct {
	api     string
	cookies []string
	verbose bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.api, "api", "", "backend base URL (overrides AUTH_API_BASE)")
	cmd.PersistentFlags().StringArrayVar(&f.cookies, "cookie", nil, "seed a backend cookie as name=value (repeatable)")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "log requests to stderr")
}

// open builds a client lifecycle and bootstraps it.
func (f *globalFlags) open(ctx context.Context, stderr io.Writer) (*authflow.Lifecycle, error) {
	cfg, err := authflow.LoadConfig()
	if err != nil {
		return nil, err
	}
	if f.api != "" {
		cfg.APIBase = f.api
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if len(f.cookies) > 0 {
		base, err := url.Parse(cfg.APIBase)
		if err != nil {
			return nil, fmt.Errorf("invalid api base: %w", err)
		}
		seeded, err := parseCookies(f.cookies)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(base, seeded)
	}

	opts := []authflow.Option{authflow.WithJar(jar)}
	if f.verbose {
		opts = append(opts, authflow.WithLogger(logger.New(
			logger.WithFormat(logger.FormatText),
			logger.WithLevelName("debug"),
			logger.WithOutput(stderr),
		)))
	}

	lc, err := authflow.NewClientLifecycle(cfg, opts...)
	if err != nil {
		return nil, err
	}
	// a failed bootstrap still leaves an initialized, logged-out session
	_ = lc.Bootstrap.Run(ctx)
	return lc, nil
}

func parseCookies(raw []string) ([]*http.Cookie, error) {
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid cookie %q, want name=value", kv)
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	return cookies, nil
}

type stateView struct {
	User          *allauth.User `json:"user"`
	Authenticated bool          `json:"authenticated"`
	Initialized   bool          `json:"initialized"`
}

func printState(w io.Writer, s sessionstate.Snapshot, extra map[string]any) error {
	out := map[string]any{
		"session": stateView{User: s.User, Authenticated: s.Authenticated, Initialized: s.Initialized},
	}
	for k, v := range extra {
		out[k] = v
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// describe renders field errors and pending flows of backend failures.
func describe(err error) string {
	var authErr *allauth.Error
	if !errors.As(err, &authErr) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(authErr.Message)
	for param, msg := range authErr.FieldErrors() {
		fmt.Fprintf(&b, "\n  %s: %s", param, msg)
	}
	for _, f := range authErr.PendingFlows() {
		fmt.Fprintf(&b, "\n  pending flow: %s", f.ID)
	}
	return b.String()
}
