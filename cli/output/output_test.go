// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/console"
)

func TestDevices(t *testing.T) {
	var buf bytes.Buffer
	enabled := true
	Devices(&buf, []*api.Device{
		{ID: "d1", Via: []string{"gw1", "gw2"}, Enabled: &enabled, Status: map[string]any{"created": "2023-06-14T10:30:00Z"}},
		{ID: "d2"},
	})
	out := buf.String()
	require.Contains(t, out, "Device ID")
	require.Contains(t, out, "gw1, gw2")
	require.Contains(t, out, "2023-06-14T10:30:00Z")
	require.Contains(t, out, "true")
	require.Contains(t, out, "d2")

	buf.Reset()
	Devices(&buf, nil)
	require.Equal(t, "No devices found.\n", buf.String())
}

func TestToastAndPagination(t *testing.T) {
	var buf bytes.Buffer
	Toast(&buf, console.Toast{Level: console.ToastError, Message: "Could not delete device d1"})
	require.Contains(t, buf.String(), "Error:")
	require.Contains(t, buf.String(), "Could not delete device d1")

	buf.Reset()
	p := console.NewPager(50)
	p.ChangePage(2)
	Pagination(&buf, p, 120)
	require.Contains(t, buf.String(), "Page 2 of 3 (120 total)")
}

func TestPayloadTables(t *testing.T) {
	var buf bytes.Buffer
	Configs(&buf, []api.Config{{Version: "1", BinaryData: "aGVsbG8="}})
	require.Contains(t, buf.String(), "hello")

	buf.Reset()
	Authentication(&buf, []console.AuthenticationValue{{Type: api.CredentialsRpk, AuthID: "a1", ID: "s1"}})
	require.Contains(t, buf.String(), "JWT based")
	require.Contains(t, buf.String(), "a1")
}
