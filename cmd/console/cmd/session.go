package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-admin-console/console"
	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	logoutAll     bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the refresh cookie",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		password := loginPassword
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.Wrapf(errors.ErrBadRequest, "reading password: %v", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		auth, err := c.Auth.Login(cmd.Context(), loginEmail, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", auth.User.Name, auth.User.Email)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out, on every device with --all",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		logout := c.Auth.Logout
		if logoutAll {
			logout = c.Auth.LogoutAll
		}
		if err := logout(cmd.Context()); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Backend logout failed, local session cleared")
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		user, err := c.Auth.CurrentUser(cmd.Context())
		if errors.Is(err, errors.ErrNoSession) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>", user.Name, user.Email)
		if user.RoleName != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " (%s)", user.RoleName)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}),
}

var keepAliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Renew the access token now",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		tok, err := c.Auth.KeepAlive(cmd.Context())
		if err != nil {
			return err
		}
		if tok.Expiry.IsZero() {
			fmt.Fprintln(cmd.OutOrStdout(), "Session renewed")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session renewed, access token valid until %s\n", tok.Expiry.Local().Format(time.RFC3339))
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the locally stored session state",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s %t\n", flags.KeyWasLoggedIn, c.Store.WasAuthenticated())
		fmt.Fprintf(out, "%-16s %t\n", "refresh cookie", c.Jar.HasRefreshCookie())
		fmt.Fprintf(out, "%-16s %t\n", "logged out", c.Store.LoggedOut())
		fmt.Fprintf(out, "%-16s %s\n", "locale", c.Locale.Header())
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password, prompted when empty")
	_ = loginCmd.MarkFlagRequired("email")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Revoke every session of the account")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, keepAliveCmd, statusCmd)
}
