// Command authctl drives the auth flows of a django-allauth backend from the
// terminal, with a cookie jar that lives for one invocation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "authctl",
		Short: "Run django-allauth browser flows from the command line",
		Long: `authctl runs login, signup, logout, verification and login-by-code
flows against a django-allauth headless backend and prints the resulting
session state.

The backend and cookie names come from the AUTH_* environment variables
(or a .env file); --api overrides AUTH_API_BASE. Use --cookie to seed an
existing browser session, e.g. --cookie sessionid=abc --cookie csrftoken=xyz.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := &globalFlags{}
	flags.register(root)

	root.AddCommand(
		sessionCmd(flags),
		loginCmd(flags),
		signupCmd(flags),
		logoutCmd(flags),
		verifyCmd(flags),
		resendCmd(flags),
		requestCodeCmd(flags),
		confirmCodeCmd(flags),
	)
	return root
}
