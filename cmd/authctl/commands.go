package main

import (
	"github.com/spf13/cobra"
)

func sessionCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the current session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			return printState(cmd.OutOrStdout(), lc.State().Snapshot(), nil)
		},
	}
}

func loginCmd(f *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			if err := lc.Engine.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), lc.State().Snapshot(), nil)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func signupCmd(f *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			res, err := lc.Engine.Signup(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), lc.State().Snapshot(), map[string]any{
				"requires_verification": res.RequiresVerification,
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			if err := lc.Engine.Logout(cmd.Context()); err != nil {
				return err
			}
			extra := map[string]any{}
			if target, ok := lc.Redirect(); ok {
				extra["redirect"] = target
			}
			return printState(cmd.OutOrStdout(), lc.State().Snapshot(), extra)
		},
	}
}

func verifyCmd(f *globalFlags) *cobra.Command {
	var key, email, code string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an email address with a link key or a code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()

			var authenticated bool
			if code != "" {
				res, err := lc.Engine.VerifyEmailByCode(cmd.Context(), email, code)
				if err != nil {
					return err
				}
				authenticated = res.Authenticated
			} else {
				res, err := lc.Engine.VerifyEmail(cmd.Context(), key)
				if err != nil {
					return err
				}
				authenticated = res.Authenticated
			}
			return printState(cmd.OutOrStdout(), lc.State().Snapshot(), map[string]any{
				"authenticated_by_verification": authenticated,
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "verification key from the email link")
	cmd.Flags().StringVar(&email, "email", "", "email address, with --code")
	cmd.Flags().StringVar(&code, "code", "", "verification code")
	cmd.MarkFlagsOneRequired("key", "code")
	cmd.MarkFlagsMutuallyExclusive("key", "code")
	return cmd
}

func resendCmd(f *globalFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Resend the email verification message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			if err := lc.Engine.RequestEmailVerification(cmd.Context(), email); err != nil {
				return err
			}
			cmd.Println("verification email requested")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func requestCodeCmd(f *globalFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "request-code",
		Short: "Request a login code by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			if err := lc.Engine.RequestLoginCode(cmd.Context(), email); err != nil {
				return err
			}
			cmd.Println("login code requested")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func confirmCodeCmd(f *globalFlags) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "confirm-code",
		Short: "Log in with a code received by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc, err := f.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lc.Close()
			if err := lc.Engine.LoginWithCode(cmd.Context(), code); err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), lc.State().Snapshot(), nil)
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "login code")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}
