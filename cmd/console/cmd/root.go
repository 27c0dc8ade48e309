package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/console"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/jrsteele09/go-admin-console/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Admin console session client",
	Long: `Signs in to the admin API, keeps the session alive across commands and
manages users and roles. The refresh cookie and session flags are kept in the
data folder (FOLDER); the access token only lives for one command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr(), config.New().GetLogLevel(), verbose)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

func setupLogging(w io.Writer, level string, verbose bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

type consoleRunner func(cmd *cobra.Command, c *console.Console, args []string) error

// withConsole runs fn against a freshly wired console and closes it after
func withConsole(fn consoleRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := console.New(config.New(), console.WithNavigator(session.NavigatorFunc(func(target string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Session ended, sign in again (%s)\n", target)
		})))
		if err != nil {
			return err
		}
		defer c.Close()
		return describe(fn(cmd, c, args))
	}
}

// describe turns an API error into the message the backend gave, listing any
// field issues
func describe(err error) error {
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Msg("Command failed")
	msg, issues := apiclient.Describe(err)
	var apiErr *apiclient.APIError
	if !pkgerrors.As(err, &apiErr) {
		msg = err.Error()
	}
	for _, issue := range issues {
		msg += fmt.Sprintf("\n  %s: %s", issue.Field, issue.Message)
	}
	return pkgerrors.New(msg)
}
