package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"simdash/internal/dashboard"

	"github.com/spf13/cobra"
)

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the simulation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCommand(cmd, (*dashboard.CommandIssuer).StartSimulation)
		},
	}
}

func newStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the simulation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCommand(cmd, (*dashboard.CommandIssuer).StopSimulation)
		},
	}
}

// runCommand issues one start/stop command and prints the refreshed view.
func (a *app) runCommand(cmd *cobra.Command, op func(*dashboard.CommandIssuer, context.Context) error) error {
	ctx := cmd.Context()
	if err := a.signIn(ctx); err != nil {
		return err
	}
	d := a.dashboard(dashboard.Options{})
	defer d.Unmount()

	err := op(d.Commands(), ctx)
	var rej *dashboard.RejectedError
	if err != nil && !errors.As(err, &rej) {
		return err
	}
	if rerr := renderView(cmd.OutOrStdout(), d.View()); rerr != nil {
		return rerr
	}
	return err
}

func newTestAlertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test-alert",
		Short: "Insert a critical 95°C test reading and send the alert email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.signIn(ctx); err != nil {
				return err
			}
			d := a.dashboard(dashboard.Options{})
			defer d.Unmount()

			res, err := d.Commands().InsertTestCheckup(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Success {
				_, _ = fmt.Fprintf(out, "alert sent: %s\n", res.Message)
			} else {
				_, _ = fmt.Fprintf(out, "alert failed: %s\n", res.Message)
			}
			if res.Details != "" {
				_, _ = fmt.Fprintf(out, "  %s\n", res.Details)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the checkup history as an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.signIn(ctx); err != nil {
				return err
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			n, err := a.client.ExportCheckups(ctx, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outPath, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "checkups.xlsx", "output file")
	return cmd
}
