package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gateadmin/internal/auth"
)

func newSignInCmd(c *cli) *cobra.Command {
	var (
		username string
		remember bool
	)
	cmd := &cobra.Command{
		Use:     "signin",
		Short:   "Sign in and store the session token",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
				line, err := readLine(in)
				if err != nil {
					return err
				}
				username = line
			}
			password, err := readPassword(cmd, in)
			if err != nil {
				return err
			}
			username = strings.TrimSpace(username)
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			svc := auth.NewService(c.api, c.store)
			resp, err := svc.SignIn(cmd.Context(), auth.Credentials{Username: username, Password: password})
			if err != nil {
				return userError(err)
			}
			if !resp.OK() {
				msg := resp.Message
				if msg == "" {
					msg = "sign in failed"
				}
				return errors.New(msg)
			}
			if err := svc.Persist(cmd.Context(), resp, remember); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().BoolVar(&remember, "remember", false, "keep me logged in")
	return cmd
}

// readPassword читает пароль без эха с терминала; из pipe читает одну строку.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newSignOutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "signout",
		Short:   "Remove the stored session",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.NewService(c.api, c.store).SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoAmICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the signed in user",
		GroupID: "session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := auth.NewService(c.api, c.store).Current(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				return errNotSignedIn
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), sessionView{User: sess.User, RememberMe: sess.RememberMe})
			}
			name := sess.DisplayName()
			if name == "" {
				name = "(unknown user)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nremember me: %t\nsession: %s\n", name, sess.RememberMe, c.store.Path())
			return nil
		},
	}
}
