// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package session carries what a regctl command needs from the root command
// to the subcommands.
package session

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/console"
	"github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/viewstate"
)

type Session struct {
	Api      *api.Api
	Services *console.Services
	TenantID string
	PageSize int

	Out io.Writer
	Err io.Writer
}

// New wires the console services to the api and prints every toast to
// errOut as it is raised.
func New(a *api.Api, state viewstate.Store, tenantID string, pageSize int, out, errOut io.Writer) *Session {
	s := &Session{
		Api:      a,
		Services: console.NewServices(a, state),
		TenantID: tenantID,
		PageSize: pageSize,
		Out:      out,
		Err:      errOut,
	}
	s.Services.Notify.OnToast = func(t console.Toast) { output.Toast(s.Err, t) }
	return s
}

// Tenant returns the tenant selected with --tenant.
func (s *Session) Tenant() (string, error) {
	if s.TenantID == "" {
		return "", errors.New("no tenant selected, use --tenant")
	}
	return s.TenantID, nil
}

// OpenDetail opens the detail view of a device of the selected tenant.
// asGateway selects the gateways tab first so the detail shows a gateway.
// The caller closes the detail.
func (s *Session) OpenDetail(ctx context.Context, deviceID string, asGateway bool) (*console.DeviceDetail, error) {
	tenantID, err := s.Tenant()
	if err != nil {
		return nil, err
	}
	if asGateway {
		console.NewGatewayList(s.Services, tenantID, s.PageSize)
	} else {
		console.NewDeviceList(s.Services, tenantID, s.PageSize)
	}
	return console.OpenDeviceDetailByID(ctx, s.Services, tenantID, deviceID, s.PageSize)
}

type ctxKey int

const sessionKey ctxKey = iota

func CtxWithSession(ctx context.Context, s *Session) context.Context {
	ctx = viewstate.CtxWithStore(ctx, s.Services.State)
	return context.WithValue(ctx, sessionKey, s)
}

func CtxGetSession(ctx context.Context) *Session {
	return ctx.Value(sessionKey).(*Session)
}

// FromCmd returns the session set up by the root command. Unset writers
// default to the command's own.
func FromCmd(cmd *cobra.Command) *Session {
	s := CtxGetSession(cmd.Context())
	if s.Out == nil {
		s.Out = cmd.OutOrStdout()
	}
	if s.Err == nil {
		s.Err = cmd.ErrOrStderr()
	}
	return s
}
