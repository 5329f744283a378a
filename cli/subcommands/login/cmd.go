// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package login

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/auth"
	"github.com/eclipse-hono/regctl/cli/config"
	"github.com/eclipse-hono/regctl/context"
)

var LoginCmd = &cobra.Command{
	Use:   "login <context-name> <registry-url>",
	Short: "Configure authentication for a device registry",
	Long: `Login to a device registry by configuring a context with authentication.

With --token the given bearer token is stored as it is. Otherwise a Google
login is started: open the printed URL, consent, and the ID token is stored
together with a refresh token so it can be renewed.

The configuration is saved to ~/.config/regctl.yaml.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := auth.LoginOptions{Out: cmd.OutOrStdout()}
		opts.Token, _ = cmd.Flags().GetString("token")
		opts.ClientID, _ = cmd.Flags().GetString("client-id")
		opts.ClientSecret, _ = cmd.Flags().GetString("client-secret")
		opts.AllowedDomains, _ = cmd.Flags().GetStringSlice("allowed-domain")
		setDefault, _ := cmd.Flags().GetBool("set-default")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		configPath, _ := cmd.Flags().GetString("config")

		appCtx := config.Context{URL: args[1], PageSize: pageSize}
		return login(cmd.Context(), cmd.OutOrStdout(), configPath, args[0], appCtx, opts, setDefault)
	},
}

func init() {
	LoginCmd.Flags().String("token", "", "Bearer token to use instead of a Google login")
	LoginCmd.Flags().String("client-id", "", "OAuth client ID of the Google login")
	LoginCmd.Flags().String("client-secret", "", "OAuth client secret of the Google login")
	LoginCmd.Flags().StringSlice("allowed-domain", nil, "Only accept accounts of this hosted domain, can be repeated")
	LoginCmd.Flags().Bool("set-default", true, "Set this context as the default")
}

func login(ctx context.Context, out io.Writer, configPath, name string, appCtx config.Context, opts auth.LoginOptions, setDefault bool) error {
	cfg, err := config.LoadConfig(configPath)
	if errors.Is(err, config.ErrNotFound) {
		cfg = &config.Config{}
	} else if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	providerName := auth.ProviderGoogle
	if opts.Token != "" {
		providerName = auth.ProviderToken
	} else if opts.ClientID == "" {
		return errors.New("either --token or --client-id is required")
	}
	provider, err := auth.GetProvider(providerName)
	if err != nil {
		return err
	}
	tokens, err := provider.Login(ctx, opts)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	tokens.Apply(&appCtx)
	if providerName == auth.ProviderGoogle {
		appCtx.ClientID = opts.ClientID
		appCtx.ClientSecret = opts.ClientSecret
	}

	cfg.SetContext(name, appCtx)
	if setDefault {
		cfg.ActiveContext = name
	}
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(out, "Successfully configured context '%s'\n", name)
	fmt.Fprintf(out, "  Registry URL: %s\n", appCtx.URL)
	if tokens.Email != "" {
		fmt.Fprintf(out, "  Logged in as: %s\n", tokens.Email)
	}
	if setDefault {
		fmt.Fprintf(out, "  Set as default context\n")
	}
	return nil
}
