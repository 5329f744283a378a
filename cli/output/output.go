// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package output renders view models as terminal tables and toasts.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/console"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Table writes rows under headers. An empty table prints empty instead.
func Table(w io.Writer, headers []string, rows [][]string, empty string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// Pagination writes the page footer of a list.
func Pagination(w io.Writer, pager console.Pager, total int) {
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("Page %d of %d (%d total)", pager.Page(), pager.Pages(total), total)))
}

// Section writes the heading of a part of a detail view.
func Section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.UnsetPadding().Underline(true).Render(title))
}

// Toast writes a single notification.
func Toast(w io.Writer, t console.Toast) {
	style := successStyle
	switch t.Level {
	case console.ToastError:
		style = errorStyle
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(string(t.Level)+":"), t.Message)
}

func enabledLabel(enabled *bool) string {
	if enabled == nil {
		return "-"
	}
	return strconv.FormatBool(*enabled)
}

func viaLabel(via []string) string {
	if len(via) == 0 {
		return "-"
	}
	return strings.Join(via, ", ")
}

func Devices(w io.Writer, devices []*api.Device) {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.ID, viaLabel(d.Via), console.CreationTime(d), enabledLabel(d.Enabled)})
	}
	Table(w, []string{"Device ID", "Via", "Created", "Enabled"}, rows, "No devices found.")
}

func Tenants(w io.Writer, tenants []*api.Tenant) {
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []string{t.ID, console.MessagingTypeLabel(t)})
	}
	Table(w, []string{"Tenant ID", "Messaging type"}, rows, "No tenants found.")
}

// DeviceDetail writes the header of a device detail view.
func DeviceDetail(w io.Writer, d *console.DeviceDetail) {
	fmt.Fprintln(w, headerStyle.UnsetPadding().Render(d.Title()))
	fmt.Fprintf(w, "%s%s\n", d.IDLabel(), d.Device.ID)
	fmt.Fprintf(w, "Created: %s\n", d.CreationTime())
	fmt.Fprintf(w, "Via: %s\n", viaLabel(d.Device.Via))
	fmt.Fprintf(w, "Enabled: %s\n", enabledLabel(d.Device.Enabled))
}

func Authentication(w io.Writer, values []console.AuthenticationValue) {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		expiry := v.NotAfter
		if expiry == "" {
			expiry = "-"
		}
		rows = append(rows, []string{console.AuthenticationTypeLabel(v.Type), v.AuthID, v.ID, expiry})
	}
	Table(w, []string{"Authentication type", "Auth ID", "Secret ID", "Expiry time (UTC)"}, rows, "No credentials found.")
}

func Configs(w io.Writer, configs []api.Config) {
	rows := make([][]string, 0, len(configs))
	for _, c := range configs {
		rows = append(rows, []string{c.Version, c.CloudUpdateTime, c.DeviceAckTime, console.DecodePayload(c.BinaryData)})
	}
	Table(w, []string{"Version", "Update time", "Device ack time", "Data"}, rows, "No configs found.")
}

func States(w io.Writer, states []api.State) {
	rows := make([][]string, 0, len(states))
	for _, s := range states {
		rows = append(rows, []string{s.UpdateTime, console.DecodePayload(s.BinaryData)})
	}
	Table(w, []string{"Update time", "Data"}, rows, "No states found.")
}
