package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSitemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate the sitemap",
	}

	var toStdout bool
	build := &cobra.Command{
		Use:   "build",
		Short: "Render sitemap.xml and upload it to the configured storage backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			gen := appInstance.Sitemap()
			if toStdout {
				body, err := gen.Render(cmd.Context())
				if err != nil {
					return fmt.Errorf("render sitemap: %w", err)
				}
				if _, err := cmd.OutOrStdout().Write(body); err != nil {
					return fmt.Errorf("write sitemap: %w", err)
				}
				return nil
			}
			uri, err := gen.Publish(cmd.Context(), appInstance.Clock().Now())
			if err != nil {
				return fmt.Errorf("publish sitemap: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sitemap published to %s\n", uri)
			return nil
		},
	}
	build.Flags().BoolVar(&toStdout, "stdout", false, "print the sitemap instead of uploading it")
	cmd.AddCommand(build)
	return cmd
}
