package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *app) newLoginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in for this terminal session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()

			src := cmd.InOrStdin()
			in := bufio.NewReader(src)
			out := cmd.ErrOrStderr()
			if username == "" {
				fmt.Fprint(out, "Username: ")
				line, err := readLine(in)
				if err != nil {
					return err
				}
				username = line
			}
			fmt.Fprint(out, "Password: ")
			password, err := readPassword(src, in)
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			a.gate.Login(username, password)
			if err := a.store.Refresh(cmd.Context()); err != nil {
				if a.gate.Prompt().Rejected {
					return errors.New("credentials rejected")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "username (prompted when empty)")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the credential held for this terminal session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(false); err != nil {
				return err
			}
			defer a.close()
			if err := a.gate.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, or a plain line when
// input is piped.
func readPassword(src io.Reader, r *bufio.Reader) (string, error) {
	if f, ok := src.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
