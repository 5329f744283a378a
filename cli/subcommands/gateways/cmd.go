// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package gateways

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/cli/subcommands/devices"
	"github.com/eclipse-hono/regctl/console"
)

var GatewaysCmd = &cobra.Command{
	Use:   "gateways",
	Short: "Manage gateways",
	Long: `Commands for managing gateways. A gateway is a device that other devices
of the tenant name in their via list.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List gateways",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		l := console.NewGatewayList(s.Services, tenantID, s.PageSize)
		l.Pager.ChangePage(page)
		l.SearchTerm, _ = cmd.Flags().GetString("search")
		if err := l.Search(cmd.Context()); err != nil {
			return err
		}
		if sortBy, _ := cmd.Flags().GetString("sort"); sortBy != "" {
			l.OnSort(sortBy)
		}
		output.Devices(s.Out, l.Gateways)
		output.Pagination(s.Out, l.Pager, l.Total)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <gateway-id>",
	Short: "Show a gateway and the devices bound to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return devices.ShowDetail(cmd, args[0], true)
	},
}

var createCmd = &cobra.Command{
	Use:   "create [gateway-id]",
	Short: "Create a gateway",
	Long: `Create a gateway and bind devices to it. At least one device is required,
given with --device or picked with --interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		gatewayID, err := devices.NewDeviceID(cmd, args)
		if err != nil {
			return err
		}
		ids, _ := cmd.Flags().GetStringSlice("device")
		interactive, _ := cmd.Flags().GetBool("interactive")

		l := console.NewGatewayList(s.Services, tenantID, s.PageSize)
		modal := l.NewCreateModal()
		modal.Device.ID = gatewayID
		if err := modal.Open(cmd.Context()); err != nil {
			return err
		}
		if err := devices.Select(cmd, modal, ids, interactive); err != nil {
			return err
		}
		res, err := modal.Confirm(cmd.Context())
		if res != nil && res.Device != nil {
			l.Created(res.Device)
		}
		return err
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <gateway-id>",
	Short: "Delete a gateway",
	Long: `Delete a gateway and remove it from the via list of the devices bound to
it. Only the first page of bound devices is updated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		l := console.NewGatewayList(s.Services, tenantID, s.PageSize)
		l.SearchTerm = args[0]
		if err := l.Search(cmd.Context()); err != nil {
			return err
		}
		gw, _ := l.Find(args[0])
		res, err := l.Delete(cmd.Context(), gw)
		if len(res.Updated) > 0 {
			fmt.Fprintf(s.Out, "Unbound %d device(s) from %s\n", len(res.Updated), gw.ID)
		}
		return err
	},
}

var bindCmd = &cobra.Command{
	Use:   "bind <gateway-id> [device-id...]",
	Short: "Bind devices to a gateway",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return devices.Bind(cmd, args[0], args[1:], true)
	},
}

var unbindCmd = &cobra.Command{
	Use:   "unbind <gateway-id> <device-id...>",
	Short: "Unbind devices from a gateway",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return devices.Unbind(cmd, args[0], args[1:], true)
	},
}

var boundCmd = &cobra.Command{
	Use:   "bound <gateway-id>",
	Short: "List the devices bound to a gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return devices.ListBound(cmd, args[0], true)
	},
}

func init() {
	listCmd.Flags().Int("page", 1, "Page to show")
	listCmd.Flags().String("search", "", "Exact gateway ID to look up")
	listCmd.Flags().String("sort", "", "Sort the page by a JSON field such as id or status.created")
	devices.AddIDFlags(createCmd)
	createCmd.Flags().StringSlice("device", nil, "Device to bind to the gateway, can be repeated")
	createCmd.Flags().BoolP("interactive", "i", false, "Pick the devices interactively")
	bindCmd.Flags().BoolP("interactive", "i", false, "Pick the devices interactively")
	boundCmd.Flags().String("search", "", "Only show devices whose ID contains this term")

	GatewaysCmd.AddCommand(listCmd)
	GatewaysCmd.AddCommand(getCmd)
	GatewaysCmd.AddCommand(createCmd)
	GatewaysCmd.AddCommand(deleteCmd)
	GatewaysCmd.AddCommand(bindCmd)
	GatewaysCmd.AddCommand(unbindCmd)
	GatewaysCmd.AddCommand(boundCmd)
}
