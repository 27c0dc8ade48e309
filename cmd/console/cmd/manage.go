package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/console"
	"github.com/jrsteele09/go-admin-console/rbac"
	"github.com/spf13/cobra"
)

var (
	listParams apiclient.ListParams
	userRole   string
	userInput  apiclient.UserInput
	inactive   bool
)

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func printPagination(w io.Writer, p apiclient.Pagination) {
	fmt.Fprintf(w, "page %d of %d, %d total\n", p.Page, max(p.TotalPages, 1), p.Total)
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage console users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		page, err := c.Users.List(cmd.Context(), apiclient.UserFilters{ListParams: listParams, Role: userRole})
		if err != nil {
			return err
		}
		tw := table(cmd.OutOrStdout(), "ID", "EMAIL", "NAME", "ROLE", "ACTIVE")
		for _, u := range page.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Name, u.RoleName, u.IsActive)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		printPagination(cmd.OutOrStdout(), page.Pagination)
		return nil
	}),
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		input := userInput
		input.IsActive = !inactive
		res, err := c.Users.Create(cmd.Context(), input)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.Message, res.Data.ID)
		return nil
	}),
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		res, err := c.Users.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}),
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Inspect roles",
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		page, err := c.Roles.List(cmd.Context(), listParams)
		if err != nil {
			return err
		}
		tw := table(cmd.OutOrStdout(), "ID", "NAME", "DESCRIPTION")
		for _, r := range page.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Name, r.Description)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		printPagination(cmd.OutOrStdout(), page.Pagination)
		return nil
	}),
}

var rolesGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a role and its permissions",
	Args:  cobra.ExactArgs(1),
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		role, err := c.Roles.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", role.Name, role.Description)
		tw := table(cmd.OutOrStdout(), "FEATURE", "C", "R", "U", "D", "P")
		for _, p := range role.Permissions {
			name := p.FeatureID
			if p.Feature != nil {
				name = p.Feature.Name
			}
			printFlags(tw, name, p.Flags)
		}
		return tw.Flush()
	}),
}

func printFlags(w io.Writer, feature string, f rbac.Flags) {
	mark := func(b bool) string {
		if b {
			return "x"
		}
		return "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", feature, mark(f.CanCreate), mark(f.CanRead), mark(f.CanUpdate), mark(f.CanDelete), mark(f.CanPrint))
}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Show the signed-in user's permissions and navigation",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		mine, err := c.Roles.MyPermissions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Role: %s\n", mine.RoleName)
		tw := table(cmd.OutOrStdout(), "FEATURE", "C", "R", "U", "D", "P")
		for _, p := range mine.Permissions {
			printFlags(tw, p.FeatureName, p.Flags)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "\nNavigation:")
		printNav(cmd.OutOrStdout(), rbac.Visible(rbac.Sidebar, rbac.NewPermissions(mine)), 1)
		return nil
	}),
}

func printNav(w io.Writer, items []rbac.NavItem, depth int) {
	for _, item := range items {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), item.LabelKey, item.Href)
		printNav(w, item.Children, depth+1)
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard summary",
	RunE: withConsole(func(cmd *cobra.Command, c *console.Console, args []string) error {
		stats, err := c.Dashboard.Stats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Users:    %d (%d active, %d inactive)\n", stats.TotalUsers, stats.ActiveUsers, stats.InactiveUsers)
		fmt.Fprintf(out, "Roles:    %d\n", stats.TotalRoles)
		fmt.Fprintf(out, "Features: %d\n", stats.TotalFeatures)
		for _, d := range stats.UserDistribution {
			fmt.Fprintf(out, "  %-12s %d\n", d.RoleName, d.Count)
		}
		return nil
	}),
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&listParams.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&listParams.Limit, "limit", 0, "Page size")
	cmd.Flags().StringVarP(&listParams.Search, "search", "s", "", "Search text")
}

func init() {
	addListFlags(usersListCmd)
	usersListCmd.Flags().StringVar(&userRole, "role", apiclient.RoleAll, "Only users with this role name")
	addListFlags(rolesListCmd)

	usersCreateCmd.Flags().StringVar(&userInput.Name, "name", "", "Full name")
	usersCreateCmd.Flags().StringVar(&userInput.Email, "email", "", "Email address")
	usersCreateCmd.Flags().StringVar(&userInput.Password, "password", "", "Initial password")
	usersCreateCmd.Flags().StringVar(&userInput.RoleID, "role-id", "", "Role ID")
	usersCreateCmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account deactivated")

	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersDeleteCmd)
	rolesCmd.AddCommand(rolesListCmd, rolesGetCmd)
	rootCmd.AddCommand(usersCmd, rolesCmd, permissionsCmd, dashboardCmd)
}
