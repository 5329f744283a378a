// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package tenants

import (
	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/console"
)

var TenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Manage tenants",
	Long:  `Commands for managing the tenants of the device registry`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		page, _ := cmd.Flags().GetInt("page")
		l := console.NewTenantList(s.Services, s.PageSize)
		l.Pager.ChangePage(page)
		if err := l.Load(cmd.Context()); err != nil {
			return err
		}
		l.SearchTerm, _ = cmd.Flags().GetString("search")
		if sortBy, _ := cmd.Flags().GetString("sort"); sortBy != "" {
			l.OnSort(sortBy)
		}
		output.Tenants(s.Out, l.Visible())
		output.Pagination(s.Out, l.Pager, l.Total)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <tenant-id>",
	Short: "Create a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		l := console.NewTenantList(s.Services, s.PageSize)
		f := l.NewCreateForm()
		f.Tenant.ID = args[0]
		mt, _ := cmd.Flags().GetString("messaging-type")
		f.SetMessagingType(api.MessagingType(mt))
		t, err := f.Confirm(cmd.Context())
		if err != nil {
			return err
		}
		l.Created(t)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <tenant-id>",
	Short: "Change the messaging type of a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		t, err := s.Services.Tenants.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		l := console.NewTenantList(s.Services, s.PageSize)
		detail := l.OpenDetail(t)
		f := detail.NewEditForm()
		mt, _ := cmd.Flags().GetString("messaging-type")
		f.SetMessagingType(api.MessagingType(mt))
		if _, err := f.Confirm(cmd.Context()); err != nil {
			return err
		}
		detail.Edited()
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <tenant-id>",
	Short: "Show a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		t, err := s.Services.Tenants.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		output.Tenants(s.Out, []*api.Tenant{t})
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <tenant-id>",
	Short: "Delete a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		l := console.NewTenantList(s.Services, s.PageSize)
		return l.OpenDetail(&api.Tenant{ID: args[0]}).Delete(cmd.Context())
	},
}

func init() {
	listCmd.Flags().Int("page", 1, "Page to show")
	listCmd.Flags().String("search", "", "Only show tenants whose ID contains this term")
	listCmd.Flags().String("sort", "", "Sort the page by a JSON field such as id")
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().String("messaging-type", string(api.MessagingPubSub), "Messaging type: pubsub, kafka or amqp")
	}

	TenantsCmd.AddCommand(listCmd)
	TenantsCmd.AddCommand(getCmd)
	TenantsCmd.AddCommand(createCmd)
	TenantsCmd.AddCommand(updateCmd)
	TenantsCmd.AddCommand(deleteCmd)
}
