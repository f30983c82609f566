package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the instance version, uptime and enabled services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			status, err := c.Status(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return writeJSON(out, status)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "version\t%s\n", status.Cobalt.Version)
			fmt.Fprintf(tw, "url\t%s\n", status.Cobalt.URL)
			fmt.Fprintf(tw, "started\t%s\n", startedAt(status.Cobalt.StartTime))
			fmt.Fprintf(tw, "duration limit\t%s\n", time.Duration(status.Cobalt.DurationLimit)*time.Second)
			fmt.Fprintf(tw, "services\t%s\n", strings.Join(status.Cobalt.Services, ", "))
			fmt.Fprintf(tw, "git\t%s@%s (%s)\n", status.Git.Branch, status.Git.Commit, status.Git.Remote)

			return tw.Flush()
		},
	}
}

// startedAt renders the instance start time as relative age plus timestamp.
// Unparseable values are shown verbatim.
func startedAt(raw string) string {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}

	return fmt.Sprintf("%s (%s)", humanize.Time(t), t.UTC().Format(time.RFC3339))
}

func newServicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the services enabled on the instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			services, err := c.Services(ctx)
			if err != nil {
				return fmt.Errorf("services: %w", err)
			}

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), services)
			}

			for _, s := range services {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}

			return nil
		},
	}
}

func newPresetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the presets loaded from the presets file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := a.presets.Names()

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), names)
			}

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}
