package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"simdash/internal/dashboard"

	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		noReconnect bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the simulation dashboard until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.signIn(ctx); err != nil {
				return err
			}
			d := a.dashboard(dashboard.Options{
				PollInterval: a.v.GetDuration("poll"),
				NoReconnect:  noReconnect,
			})
			if err := d.Mount(ctx); err != nil {
				return err
			}
			defer d.Unmount()

			out := cmd.OutOrStdout()
			var last []byte
			show := func() error {
				var buf bytes.Buffer
				if asJSON {
					if err := json.NewEncoder(&buf).Encode(d.View()); err != nil {
						return err
					}
				} else {
					if err := renderView(&buf, d.View()); err != nil {
						return err
					}
					buf.WriteString("\n")
				}
				if bytes.Equal(buf.Bytes(), last) {
					return nil
				}
				last = buf.Bytes()
				_, err := out.Write(last)
				return err
			}

			if err := show(); err != nil {
				return err
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-d.Changes():
					if err := show(); err != nil {
						return err
					}
					if err := d.Err(); err != nil {
						return fmt.Errorf("session ended: %w", err)
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print each view as a JSON line")
	cmd.Flags().BoolVar(&noReconnect, "no-reconnect", false, "only poll after the realtime channel drops")
	cmd.Flags().Duration("poll", dashboard.DefaultPollInterval, "polling period while realtime is down")
	_ = a.v.BindPFlag("poll", cmd.Flags().Lookup("poll"))
	return cmd
}
