// Package cli is the simdash-dashboard command line: a headless dashboard
// and todo client for the simdash server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"simdash/internal/client"
	"simdash/internal/dashboard"
	"simdash/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SIMDASH"

var errMissingCredentials = errors.New("sign-in required: pass --email and --password (or SIMDASH_EMAIL / SIMDASH_PASSWORD), or --token")

// app holds what every subcommand shares. It is filled in by the root
// command's PersistentPreRunE once flags are parsed.
type app struct {
	v      *viper.Viper
	log    *logger.Logger
	client *client.Client
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:          "simdash-dashboard",
		Short:        "Headless simulation dashboard and todo client",
		Long:         "simdash-dashboard connects to a simdash server, follows simulation and temperature events in realtime (polling while the push channel is down) and issues start/stop commands.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("server", "http://localhost:8080", "simdash server base URL")
	pf.String("email", "", "account email")
	pf.String("password", "", "account password")
	pf.String("token", "", "access token (skips sign-in)")
	pf.String("log-level", logger.WarnLevel, "log level: debug, info, warn, error")
	_ = a.v.BindPFlags(pf)

	rootCmd.AddCommand(
		newWatchCmd(a),
		newStartCmd(a),
		newStopCmd(a),
		newTestAlertCmd(a),
		newExportCmd(a),
		newTodosCmd(a),
		newSignUpCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	a.log = logger.Get(a.v.GetString("log-level"))
	c, err := client.New(a.v.GetString("server"),
		client.WithLogger(a.log.Named("client")),
		client.WithToken(a.v.GetString("token")),
	)
	if err != nil {
		return err
	}
	a.client = c
	return nil
}

// signIn makes sure the client holds a token.
func (a *app) signIn(ctx context.Context) error {
	if a.client.Token() != "" {
		return nil
	}
	email, password := a.v.GetString("email"), a.v.GetString("password")
	if email == "" || password == "" {
		return errMissingCredentials
	}
	if err := a.client.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign in as %s: %w", email, err)
	}
	return nil
}

func (a *app) dashboard(opts dashboard.Options) *dashboard.Dashboard {
	opts.Log = a.log.Named("dashboard")
	return dashboard.New(a.client, opts)
}
