// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package payloads holds the config, state and command subcommands.
package payloads

import (
	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/console"
)

var ConfigsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Manage device configurations",
}

var StatesCmd = &cobra.Command{
	Use:   "states",
	Short: "Show device states",
}

var CommandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Send commands to devices",
}

var configsListCmd = &cobra.Command{
	Use:   "list <device-id>",
	Short: "List the config versions of a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()
		output.Configs(s.Out, detail.Configs)
		return nil
	},
}

var configsUpdateCmd = &cobra.Command{
	Use:   "update <device-id>",
	Short: "Send a new config version to a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()

		f := detail.NewConfigForm()
		f.Data, _ = cmd.Flags().GetString("data")
		f.Format = format(cmd)
		f.VersionToUpdate, _ = cmd.Flags().GetString("version")
		cfg, err := f.Confirm(cmd.Context())
		if err != nil {
			return err
		}
		detail.ConfigUpdated(cfg)
		output.Configs(s.Out, detail.Configs)
		return nil
	},
}

var statesListCmd = &cobra.Command{
	Use:   "list <device-id>",
	Short: "List the states a device reported",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		states, err := console.States(cmd.Context(), s.Services, tenantID, args[0])
		if err != nil {
			return err
		}
		output.States(s.Out, states)
		return nil
	},
}

var commandsSendCmd = &cobra.Command{
	Use:   "send <device-id>",
	Short: "Send a command to a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()

		f := detail.NewCommandForm()
		f.Data, _ = cmd.Flags().GetString("data")
		f.Format = format(cmd)
		f.Subfolder, _ = cmd.Flags().GetString("subfolder")
		f.ResponseRequired, _ = cmd.Flags().GetBool("response-required")
		f.WithCorrelationID = cmd.Flags().Changed("correlation-id")
		f.CorrelationID, _ = cmd.Flags().GetInt("correlation-id")
		if err := f.Confirm(cmd.Context()); err != nil {
			return err
		}
		detail.CommandSent()
		return nil
	},
}

func format(cmd *cobra.Command) console.PayloadFormat {
	if b64, _ := cmd.Flags().GetBool("base64"); b64 {
		return console.FormatBase64
	}
	return console.FormatText
}

func init() {
	for _, c := range []*cobra.Command{configsUpdateCmd, commandsSendCmd} {
		c.Flags().String("data", "", "Payload to send")
		c.Flags().Bool("base64", false, "The payload is already base64 encoded")
		cobra.CheckErr(c.MarkFlagRequired("data"))
	}
	configsUpdateCmd.Flags().String("version", "", "Only update when this is the current version")
	commandsSendCmd.Flags().String("subfolder", "", "Subfolder of the command")
	commandsSendCmd.Flags().Bool("response-required", false, "Wait for the device to respond")
	commandsSendCmd.Flags().Int("correlation-id", 0, "Correlation ID, only sent with --response-required")

	ConfigsCmd.AddCommand(configsListCmd)
	ConfigsCmd.AddCommand(configsUpdateCmd)
	StatesCmd.AddCommand(statesListCmd)
	CommandsCmd.AddCommand(commandsSendCmd)
}
