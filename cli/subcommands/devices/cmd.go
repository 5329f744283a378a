// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package devices

import (
	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/console"
)

var DevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage devices",
	Long:  `Commands for managing the devices of a tenant in the device registry`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices",
	Long: `List the devices of the tenant that are not gateways. With --search only
the device with exactly that ID is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		sortBy, _ := cmd.Flags().GetString("sort")
		l := console.NewDeviceList(s.Services, tenantID, s.PageSize)
		l.Pager.ChangePage(page)
		l.SearchTerm, _ = cmd.Flags().GetString("search")
		if err := l.Search(cmd.Context()); err != nil {
			return err
		}
		if sortBy != "" {
			l.OnSort(sortBy)
		}
		output.Devices(s.Out, l.Visible())
		output.Pagination(s.Out, l.Pager, l.Total)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <device-id>",
	Short: "Show a device",
	Long:  `Show a device with its bound devices, credentials and configs`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ShowDetail(cmd, args[0], false)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <device-id>",
	Short: "Delete a device",
	Long: `Delete a device. Devices that are bound to it keep it in their via list;
use "gateways delete" to remove a gateway together with those references.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		l := console.NewDeviceList(s.Services, tenantID, s.PageSize)
		l.SearchTerm = args[0]
		if err := l.Search(cmd.Context()); err != nil {
			return err
		}
		d, _ := l.Find(args[0])
		return l.Delete(cmd.Context(), d)
	},
}

func init() {
	listCmd.Flags().Int("page", 1, "Page to show")
	listCmd.Flags().String("search", "", "Exact device ID to look up")
	listCmd.Flags().String("sort", "", "Sort the page by a JSON field such as id, via or status.created")

	DevicesCmd.AddCommand(listCmd)
	DevicesCmd.AddCommand(getCmd)
	DevicesCmd.AddCommand(deleteCmd)
}

// ShowDetail prints the detail view of a device or gateway.
func ShowDetail(cmd *cobra.Command, deviceID string, asGateway bool) error {
	s := session.FromCmd(cmd)
	detail, err := s.OpenDetail(cmd.Context(), deviceID, asGateway)
	if err != nil {
		return err
	}
	defer func() { _ = detail.Close() }()
	if err := detail.LoadBoundDevices(cmd.Context()); err != nil {
		return err
	}

	output.DeviceDetail(s.Out, detail)
	output.Section(s.Out, "Bound devices")
	output.Devices(s.Out, detail.Bound.Visible())
	output.Section(s.Out, "Authentication")
	output.Authentication(s.Out, detail.CredentialsTable().Values)
	output.Section(s.Out, "Configs")
	output.Configs(s.Out, detail.Configs)
	return nil
}
