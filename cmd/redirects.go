package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/paintco-web/internal/redirect"
)

func newRedirectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redirects",
		Short: "Inspect redirect rules",
	}
	cmd.AddCommand(newRedirectsListCmd())
	cmd.AddCommand(newRedirectsResolveCmd())
	return cmd
}

func newRedirectsListCmd() *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List redirect rules, active and inactive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			rules, err := appInstance.Redirects().List(cmd.Context(), limit, offset)
			if err != nil {
				return fmt.Errorf("list redirects: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rules); err != nil {
					return fmt.Errorf("encode redirects: %w", err)
				}
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM\tTO\tSTATUS\tACTIVE")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", r.FromPath, r.ToPath, r.StatusCode, r.IsActive)
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("write redirects: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of rules")
	cmd.Flags().IntVar(&offset, "offset", 0, "rules to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newRedirectsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show what the redirect middleware would do for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			resolver := appInstance.Resolver()
			if res := resolver.Refresh(cmd.Context()); res.Outcome == redirect.RefreshFailed {
				return fmt.Errorf("load redirects: %w", res.Err)
			}

			path := args[0]
			d := resolver.Resolve(cmd.Context(), path)
			out := cmd.OutOrStdout()
			if !d.Redirect {
				fmt.Fprintf(out, "%s: no redirect\n", path)
				return nil
			}
			base, err := url.Parse(appInstance.Config().Site.BaseURL)
			if err != nil {
				return fmt.Errorf("parse site.base_url: %w", err)
			}
			fmt.Fprintf(out, "%s: %d %s (matched %s)\n", path, d.StatusCode, d.Location(base), d.MatchedPath)
			return nil
		},
	}
}
