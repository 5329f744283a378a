// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package main

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/auth"
	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/cli/config"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/cli/subcommands/credentials"
	"github.com/eclipse-hono/regctl/cli/subcommands/devices"
	"github.com/eclipse-hono/regctl/cli/subcommands/gateways"
	"github.com/eclipse-hono/regctl/cli/subcommands/login"
	"github.com/eclipse-hono/regctl/cli/subcommands/payloads"
	"github.com/eclipse-hono/regctl/cli/subcommands/tenants"
	"github.com/eclipse-hono/regctl/console"
	"github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/viewstate"
)

// closeState releases the view state store opened for the command.
var closeState = func() error { return nil }

var rootCmd = &cobra.Command{
	Use:   "regctl",
	Short: "A command line console for an Eclipse Hono device registry",
	Long: `regctl manages the tenants, devices and gateways of an Eclipse Hono device
registry: bind devices to gateways, create devices and gateways together
with their bindings, and manage credentials, configs and commands.

Configuration is stored in $HOME/.config/regctl.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel, _ := cmd.Flags().GetString("log-level")
		log, err := context.InitLoggerTo(cmd.ErrOrStderr(), logLevel)
		if err != nil {
			return err
		}
		ctx := context.CtxWithLog(cmd.Context(), log)
		cmd.SetContext(ctx)

		if cmd.Flags().Changed("page-size") {
			size, _ := cmd.Flags().GetInt("page-size")
			if err := checkPageSize(size); err != nil {
				return err
			}
		}

		// Skip config logic for login command
		if cmd.Name() == "login" {
			return nil
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		contextName, _ := cmd.Flags().GetString("context")
		appCtx, err := cfg.GetContext(contextName)
		if err != nil {
			return fmt.Errorf("failed to get current context: %w", err)
		}
		changed, err := auth.RefreshIfExpired(ctx, appCtx, time.Now())
		if err != nil {
			return err
		}
		if changed {
			cfg.SetContext(cfg.ContextName(contextName), *appCtx)
			if err := config.SaveConfig(configPath, cfg); err != nil {
				return err
			}
		}

		state := openState(ctx, configPath)
		tenantID, _ := cmd.Flags().GetString("tenant")
		pageSize := appCtx.GetPageSize()
		if cmd.Flags().Changed("page-size") {
			pageSize, _ = cmd.Flags().GetInt("page-size")
		}
		s := session.New(api.NewClient(*appCtx), state, tenantID, pageSize, cmd.OutOrStdout(), cmd.ErrOrStderr())
		cmd.SetContext(session.CtxWithSession(ctx, s))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeState()
	},
}

// checkPageSize accepts the page sizes the list views offer.
func checkPageSize(size int) error {
	if !slices.Contains(console.PageSizeOptions, size) {
		return fmt.Errorf("invalid page size %d, must be one of %v", size, console.PageSizeOptions)
	}
	return nil
}

// openState opens the view state next to the config file. An in-memory
// store is used when it cannot be opened.
func openState(ctx context.Context, configPath string) viewstate.Store {
	log := context.CtxGetLog(ctx)
	path, err := config.StatePath(configPath)
	if err == nil {
		var store *viewstate.SqliteStore
		if store, err = viewstate.OpenSqliteStore(path); err == nil {
			closeState = store.Close
			return store
		}
	}
	log.Warn("view state is not persisted", "error", err)
	return viewstate.NewMemoryStore(0)
}

func init() {
	rootCmd.PersistentFlags().StringP("context", "c", "", "Specify the context to use from the configuration file")
	rootCmd.PersistentFlags().StringP("config", "f", "", "Specify the configuration file to use")
	rootCmd.PersistentFlags().StringP("tenant", "t", "", "Tenant to operate on")
	rootCmd.PersistentFlags().Int("page-size", config.DefaultPageSize, "Number of items per page: 50, 100 or 200")
	rootCmd.PersistentFlags().String("log-level", "warning", "Log level: debug, info, warning or error")

	rootCmd.AddCommand(login.LoginCmd)
	rootCmd.AddCommand(tenants.TenantsCmd)
	rootCmd.AddCommand(devices.DevicesCmd)
	rootCmd.AddCommand(gateways.GatewaysCmd)
	rootCmd.AddCommand(credentials.CredentialsCmd)
	rootCmd.AddCommand(payloads.ConfigsCmd)
	rootCmd.AddCommand(payloads.StatesCmd)
	rootCmd.AddCommand(payloads.CommandsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
