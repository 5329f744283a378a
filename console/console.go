// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package console holds the view models of the registry console: the device
// and gateway lists, the device detail, the bind and create modals and the
// tenant, credential, config and command forms. They keep the transient view
// state (selection, paging, sorting, toasts) and delegate every change to
// the registry services. None of the multi-call flows are transactional.
package console

import (
	"context"
	"errors"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/viewstate"
)

// ErrInvalid is returned when a form is confirmed with missing or invalid
// input. No registry call is made in that case.
var ErrInvalid = errors.New("invalid or incomplete input")

type DeviceService interface {
	ListByTenant(ctx context.Context, tenantID string, size, offset int, onlyGateways bool) (api.DeviceList, error)
	ListAll(ctx context.Context, tenantID string, size, offset int) (api.DeviceList, error)
	ListBoundDevices(ctx context.Context, tenantID, gatewayID string, size, offset int) (api.DeviceList, error)
	GetByExactID(ctx context.Context, tenantID, deviceID string) (*api.Device, error)
	Create(ctx context.Context, device *api.Device, tenantID string) error
	Update(ctx context.Context, device *api.Device, tenantID string) error
	Delete(ctx context.Context, device *api.Device, tenantID string) error
}

type TenantService interface {
	List(ctx context.Context, size, offset int) (api.TenantList, error)
	Get(ctx context.Context, tenantID string) (*api.Tenant, error)
	Create(ctx context.Context, tenant *api.Tenant) error
	Update(ctx context.Context, tenant *api.Tenant) error
	Delete(ctx context.Context, tenantID string) error
}

type CredentialsService interface {
	List(ctx context.Context, deviceID, tenantID string) ([]api.Credentials, error)
	Save(ctx context.Context, deviceID, tenantID string, creds []api.Credentials) error
}

type ConfigService interface {
	List(ctx context.Context, deviceID, tenantID string) ([]api.Config, error)
	Update(ctx context.Context, deviceID, tenantID string, req api.ConfigRequest) (*api.Config, error)
}

type StateService interface {
	List(ctx context.Context, deviceID, tenantID string) ([]api.State, error)
}

type CommandService interface {
	Send(ctx context.Context, deviceID, tenantID string, cmd api.Command) error
}

// Services is what every view model is built from.
type Services struct {
	Devices     DeviceService
	Tenants     TenantService
	Credentials CredentialsService
	Configs     ConfigService
	States      StateService
	Commands    CommandService

	Notify *Notifications
	State  viewstate.Store
}

func NewServices(a *api.Api, state viewstate.Store) *Services {
	if state == nil {
		state = viewstate.NewMemoryStore(0)
	}
	return &Services{
		Devices:     a.Devices(),
		Tenants:     a.Tenants(),
		Credentials: a.Credentials(),
		Configs:     a.Configs(),
		States:      a.States(),
		Commands:    a.Commands(),
		Notify:      NewNotifications(),
		State:       state,
	}
}
