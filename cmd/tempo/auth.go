package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/naveenspark/tempo/internal/logging"
	"github.com/naveenspark/tempo/pkg/domain"
)

// prompter reads answers from the command's input. Passwords are read
// without echo when stdin is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) password(label string) (string, error) {
	if f, ok := interactive(); ok {
		fmt.Fprint(p.out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return p.line(label)
}

// interactive returns stdin when it is a terminal.
func interactive() (*os.File, bool) {
	fd := os.Stdin.Fd()
	return os.Stdin, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ask returns value, or prompts for it when empty.
func ask(value string, prompt func(string) (string, error), label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return prompt(label)
}

func reachability(s domain.Session) string {
	if s.BackendReachable {
		return "online"
	}
	return "offline, using local storage"
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Long:  "Log in with email and password. When the API is unreachable the local database is used; the demo account demo@example.com / password always works offline.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := newPrompter(cmd)
			var err error
			if email, err = ask(email, p.line, "Email: "); err != nil {
				return err
			}
			if password, err = ask(password, p.password, "Password: "); err != nil {
				return err
			}

			ws, err := c.open(ctx, logging.StderrAuto)
			if err != nil {
				return err
			}
			snap, err := ws.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			s := snap.Session
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s> (%s)\n", s.DisplayName, s.Email, reachability(s))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var req domain.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := newPrompter(cmd)
			var err error
			if req.Name, err = ask(req.Name, p.line, "Name: "); err != nil {
				return err
			}
			if req.Email, err = ask(req.Email, p.line, "Email: "); err != nil {
				return err
			}
			if req.Password, err = ask(req.Password, p.password, "Password: "); err != nil {
				return err
			}

			ws, err := c.open(ctx, logging.StderrAuto)
			if err != nil {
				return err
			}
			u, err := ws.Register(ctx, req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Log in with: tempo login -e %s\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := c.open(ctx, logging.StderrAuto)
			if err != nil {
				return err
			}
			token, _, err := ws.Keys.LoadSession()
			if err != nil {
				return err
			}
			if token == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Already logged out.")
				return nil
			}
			ws.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, snap, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			s := snap.Session
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", s.DisplayName, s.Email, reachability(s))
			return nil
		},
	}
}
