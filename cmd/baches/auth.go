package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"baches/internal/session"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and keep the session in the profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.identifier(args)
			if err != nil {
				return err
			}
			password, err := a.secret("Password")
			if err != nil {
				return err
			}

			sess, err := a.sessions.Login(cmd.Context(), user, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", sess.User)
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var name, lastname, role string

	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account and sign in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.identifier(args)
			if err != nil {
				return err
			}
			password, err := a.secret("Password")
			if err != nil {
				return err
			}
			confirm, err := a.secret("Confirm password")
			if err != nil {
				return err
			}

			sess, err := a.sessions.Register(cmd.Context(), session.RegisterInput{
				Identifier: user,
				Secret:     password,
				Confirm:    confirm,
				Name:       name,
				Lastname:   lastname,
				Role:       role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered and logged in as %s\n", sess.User)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "first name (remote backend)")
	cmd.Flags().StringVar(&lastname, "lastname", "", "last name (remote backend)")
	cmd.Flags().StringVar(&role, "role", "", "role (remote backend)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sessions.Logout(cmd.Context()); err != nil {
				a.log.Warn().Err(err).Msg("logout could not clear stored session")
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s backend)\n", sess.User, a.cfg.Backend)
			return nil
		},
	}
}

func (a *app) identifier(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return a.prompt("Username")
}
