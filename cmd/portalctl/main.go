// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command portalctl signs in to a Portal API server and inspects the current user.
//
// The bearer token is kept in <config-dir>/auth_token between invocations.
// Forced navigations (after a 401) are reported on stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/taibuivan/portal/pkg/apiclient"
)

// settings are read from the environment and overridden by flags.
type settings struct {
	Server    string `env:"PORTAL_SERVER"     envDefault:"http://localhost:8080"`
	ConfigDir string `env:"PORTAL_CONFIG_DIR"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// cli carries what every subcommand needs.
type cli struct {
	settings settings
	out      io.Writer
	errOut   io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	app := &cli{out: out, errOut: errOut}
	if err := env.Parse(&app.settings); err != nil {
		fmt.Fprintf(errOut, "warning: ignoring environment: %s\n", err)
	}

	rootCmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Command-line client for the Portal API",
		Long: `portalctl talks to a Portal API server the way the web front end does.

Sign in once with "portalctl login"; later commands reuse the stored token
until it expires, the session idles out, or you run "portalctl logout".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.settings.Server, "server", app.settings.Server, "API base URL (env PORTAL_SERVER)")
	flags.StringVar(&app.settings.ConfigDir, "config-dir", app.settings.ConfigDir, "directory holding the auth token (env PORTAL_CONFIG_DIR)")

	rootCmd.AddCommand(
		app.loginCmd(),
		app.registerCmd(),
		app.logoutCmd(),
		app.whoamiCmd(),
		app.canCmd(),
		app.rolesCmd(),
	)

	return rootCmd
}

// configDir resolves the token directory, defaulting to the user config dir.
func (app *cli) configDir() (string, error) {
	if app.settings.ConfigDir != "" {
		return app.settings.ConfigDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no --config-dir given and no user config dir: %w", err)
	}
	return filepath.Join(base, "portal"), nil
}

// session builds a client and auth context backed by the token file.
func (app *cli) session() (*apiclient.Client, *apiclient.AuthContext, error) {
	dir, err := app.configDir()
	if err != nil {
		return nil, nil, err
	}

	client, err := apiclient.New(app.settings.Server,
		apiclient.WithTokenStore(apiclient.NewFileTokenStore(dir)),
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(route string) {
			fmt.Fprintf(app.errOut, "navigate: %s\n", route)
		})),
	)
	if err != nil {
		return nil, nil, err
	}

	return client, apiclient.NewAuthContext(client), nil
}
