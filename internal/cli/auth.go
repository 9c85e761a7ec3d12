package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app, signup bool) *cobra.Command {
	use, short := "login", "Log in with email and password"
	if signup {
		use, short = "signup", "Create an account and log in"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLogin(cmd, signup)
		},
	}
	cmd.Flags().String("email", "", "Account email (prompted when empty)")
	cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	return cmd
}

func (a *app) runLogin(cmd *cobra.Command, signup bool) error {
	if err := a.setup(); err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	passwordStdin, _ := cmd.Flags().GetBool("password-stdin")

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password, err := readPassword(cmd, in, out, passwordStdin)
	if err != nil {
		return err
	}

	if email == "" || password == "" {
		return errors.New("Email and password required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	if signup {
		user, err := a.session.Signup(ctx, email, password)
		if err != nil {
			return describeErr(err)
		}
		fmt.Fprintf(out, "Account created, logged in as %s\n", user.Email)
		return nil
	}

	user, err := a.session.Login(ctx, email, password)
	if err != nil {
		return describeErr(err)
	}
	fmt.Fprintf(out, "Logged in as %s\n", user.Email)
	return nil
}

// readPassword reads without echo on a terminal and a plain line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader, out io.Writer, fromStdin bool) (string, error) {
	if !fromStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
			fmt.Fprint(out, "Password: ")
			b, err := term.ReadPassword(f.Fd())
			fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return string(b), nil
		}
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			user := a.session.User()
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", user.Email, user.ID)
			return nil
		},
	}
}

func newOAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "oauth",
		Short: "Log in through the browser using the configured OAuth client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			flow := a.oauthFlow(cmd.OutOrStdout())
			if flow == nil {
				return errors.New("OAuth is not configured (set auth.oauth in the config file)")
			}

			token, err := flow.Run(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.session.LoginWithToken(token.AccessToken, token.Email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(user.Email))
			return nil
		},
	}
}

func displayName(email string) string {
	if email == "" {
		return "(unknown email)"
	}
	return email
}
