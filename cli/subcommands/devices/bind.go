// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package devices

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/cli/picker"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/console"
)

var errCancelled = errors.New("cancelled")

var createCmd = &cobra.Command{
	Use:   "create [device-id]",
	Short: "Create a device",
	Long: `Create a device, optionally sending via one or more gateways. The gateways
are given with --via or picked with --interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		tenantID, err := s.Tenant()
		if err != nil {
			return err
		}
		deviceID, err := NewDeviceID(cmd, args)
		if err != nil {
			return err
		}
		via, _ := cmd.Flags().GetStringSlice("via")
		interactive, _ := cmd.Flags().GetBool("interactive")

		l := console.NewDeviceList(s.Services, tenantID, s.PageSize)
		modal := l.NewCreateModal()
		modal.Device.ID = deviceID
		if err := modal.Open(cmd.Context()); err != nil {
			return err
		}
		modal.SendViaGateway = len(via) > 0 || interactive
		if err := Select(cmd, modal, via, interactive); err != nil {
			return err
		}
		res, err := modal.Confirm(cmd.Context())
		if err != nil {
			return err
		}
		return l.Created(cmd.Context(), res.Device)
	},
}

var bindCmd = &cobra.Command{
	Use:   "bind <device-id> [device-id...]",
	Short: "Bind devices to a device",
	Long: `Add the first device to the via list of the other devices. Devices can be
picked with --interactive instead of being listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Bind(cmd, args[0], args[1:], false)
	},
}

var unbindCmd = &cobra.Command{
	Use:   "unbind <device-id> <device-id...>",
	Short: "Unbind devices from a device",
	Long:  `Remove the first device from the via list of the other devices`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Unbind(cmd, args[0], args[1:], false)
	},
}

var boundCmd = &cobra.Command{
	Use:   "bound <device-id>",
	Short: "List the devices bound to a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ListBound(cmd, args[0], false)
	},
}

func init() {
	AddIDFlags(createCmd)
	createCmd.Flags().StringSlice("via", nil, "Gateway the device sends via, can be repeated")
	createCmd.Flags().BoolP("interactive", "i", false, "Pick the gateways interactively")
	bindCmd.Flags().BoolP("interactive", "i", false, "Pick the devices interactively")
	boundCmd.Flags().String("search", "", "Only show devices whose ID contains this term")

	DevicesCmd.AddCommand(createCmd)
	DevicesCmd.AddCommand(bindCmd)
	DevicesCmd.AddCommand(unbindCmd)
	DevicesCmd.AddCommand(boundCmd)
}

// AddIDFlags adds --generate-id to a create command.
func AddIDFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("generate-id", false, "Generate a random ID instead of passing one")
}

// NewDeviceID returns the ID argument of a create command or a generated
// one.
func NewDeviceID(cmd *cobra.Command, args []string) (string, error) {
	generate, _ := cmd.Flags().GetBool("generate-id")
	switch {
	case generate && len(args) > 0:
		return "", fmt.Errorf("%w: pass either an ID or --generate-id", console.ErrInvalid)
	case generate:
		return uuid.NewString(), nil
	case len(args) == 0:
		return "", fmt.Errorf("%w: an ID or --generate-id is required", console.ErrInvalid)
	}
	return args[0], nil
}

// Select picks ids in the modal, or runs the picker when interactive is
// set.
func Select(cmd *cobra.Command, modal *console.BindModal, ids []string, interactive bool) error {
	if !interactive {
		return picker.SelectIDs(cmd.Context(), modal, ids)
	}
	confirmed, err := picker.Run(cmd.Context(), modal, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !confirmed {
		modal.Close()
		return errCancelled
	}
	return nil
}

// Bind binds devices to target through the bind modal of its detail view.
func Bind(cmd *cobra.Command, target string, ids []string, asGateway bool) error {
	s := session.FromCmd(cmd)
	interactive, _ := cmd.Flags().GetBool("interactive")
	if len(ids) == 0 && !interactive {
		return fmt.Errorf("%w: list the devices to bind or use --interactive", console.ErrInvalid)
	}
	detail, err := s.OpenDetail(cmd.Context(), target, asGateway)
	if err != nil {
		return err
	}
	defer func() { _ = detail.Close() }()
	if err := detail.LoadBoundDevices(cmd.Context()); err != nil {
		return err
	}

	modal := detail.NewBindModal()
	if err := modal.Open(cmd.Context()); err != nil {
		return err
	}
	if err := Select(cmd, modal, ids, interactive); err != nil {
		return err
	}
	res, err := modal.Confirm(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Bound %d device(s) to %s\n", len(res.Updates.Updated), target)
	return nil
}

// Unbind removes target from the via list of the bound devices ids.
func Unbind(cmd *cobra.Command, target string, ids []string, asGateway bool) error {
	s := session.FromCmd(cmd)
	detail, err := s.OpenDetail(cmd.Context(), target, asGateway)
	if err != nil {
		return err
	}
	defer func() { _ = detail.Close() }()
	if err := detail.LoadBoundDevices(cmd.Context()); err != nil {
		return err
	}
	for _, id := range ids {
		d, ok := detail.Bound.Find(id)
		if !ok {
			return fmt.Errorf("%w: %s is not bound to %s", console.ErrInvalid, id, target)
		}
		if !d.Checked {
			detail.Bound.MarkDevice(d)
		}
	}
	detail.Bound.OnNavigateBack = func() {
		fmt.Fprintf(s.Out, "No devices are bound to %s anymore\n", target)
	}
	res, err := detail.Bound.Unbind(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Unbound %d device(s) from %s\n", len(res.Updated), target)
	return nil
}

// ListBound prints the devices bound to target.
func ListBound(cmd *cobra.Command, target string, asGateway bool) error {
	s := session.FromCmd(cmd)
	detail, err := s.OpenDetail(cmd.Context(), target, asGateway)
	if err != nil {
		return err
	}
	defer func() { _ = detail.Close() }()
	if err := detail.LoadBoundDevices(cmd.Context()); err != nil {
		return err
	}
	detail.Bound.SearchTerm, _ = cmd.Flags().GetString("search")
	output.Devices(s.Out, detail.Bound.Visible())
	output.Pagination(s.Out, detail.Bound.Pager, detail.Bound.Total)
	return nil
}
