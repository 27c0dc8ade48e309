package cmd

import (
	"fmt"

	"github.com/jrsteele09/go-admin-console/console"
	"github.com/jrsteele09/go-admin-console/locale"
	"github.com/spf13/cobra"
)

var localeCmd = &cobra.Command{
	Use:   "locale",
	Short: "Show or change the language sent to the API",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Locale.Code(), c.Locale.Header())
		return nil
	}),
}

var localeSetCmd = &cobra.Command{
	Use:   "set LANGUAGE",
	Short: "Change the language, e.g. es or es-MX",
	Args:  cobra.ExactArgs(1),
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		if err := c.Locale.Set(locale.Match(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Locale.Code(), c.Locale.Header())
		return nil
	}),
}

func init() {
	localeCmd.AddCommand(localeSetCmd)
	rootCmd.AddCommand(localeCmd)
}
