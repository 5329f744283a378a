// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"fmt"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/viewstate"
)

// DeviceDetail is the detail view of a device or gateway. Whether it shows
// a gateway is remembered in the view state under IsGatewayKey until Close.
type DeviceDetail struct {
	s *Services

	TenantID  string
	Device    *api.Device
	IsGateway bool

	// Devices is the first page of all devices of the tenant.
	Devices     []*api.Device
	DeviceCount int

	Bound         *DeviceList
	Configs       []api.Config
	Credentials   []api.Credentials
	IsBoundDevice bool
	Pager         Pager

	// OnNavigateBack is called after the device was deleted.
	OnNavigateBack func()
}

// OpenDeviceDetail opens the detail of a device that was selected in a list.
func OpenDeviceDetail(ctx context.Context, s *Services, tenantID string, device *api.Device, pageSize int) (*DeviceDetail, error) {
	d := &DeviceDetail{s: s, TenantID: tenantID, Device: device, Pager: NewPager(pageSize)}
	d.loadDevices(ctx)
	if err := d.resolveIsGateway(); err != nil {
		return nil, err
	}
	d.setUp(ctx)
	return d, nil
}

// OpenDeviceDetailByID opens a detail view from identifiers only, looking
// the device up first.
func OpenDeviceDetailByID(ctx context.Context, s *Services, tenantID, deviceID string, pageSize int) (*DeviceDetail, error) {
	device, err := s.Devices.GetByExactID(ctx, tenantID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("unable to look up device %s: %w", deviceID, err)
	}
	return OpenDeviceDetail(ctx, s, tenantID, device, pageSize)
}

func (d *DeviceDetail) resolveIsGateway() error {
	key := viewstate.IsGatewayKey(d.Device.ID)
	stored, found, err := viewstate.GetBool(d.s.State, key)
	if err != nil {
		return fmt.Errorf("unable to read view state: %w", err)
	}
	if found {
		d.IsGateway = stored
	} else {
		d.IsGateway = activeTabIsGateway(d.s)
	}
	return viewstate.SetBool(d.s.State, key, d.IsGateway)
}

func (d *DeviceDetail) setUp(ctx context.Context) {
	d.Bound = NewBoundDeviceList(d.s, d.TenantID, d.Device.ID, d.IsGateway, d.Pager.Size)
	d.loadConfigs(ctx)
	d.loadCredentials(ctx)
	d.IsBoundDevice = d.Device.Via != nil
}

// Close tears the view down and forgets how it was opened.
func (d *DeviceDetail) Close() error {
	return d.s.State.Remove(viewstate.IsGatewayKey(d.Device.ID))
}

func (d *DeviceDetail) Title() string {
	if d.IsGateway {
		return "Gateway: " + d.Device.ID
	}
	return "Device: " + d.Device.ID
}

func (d *DeviceDetail) IDLabel() string {
	if d.IsGateway {
		return "Gateway ID: "
	}
	return "Device ID: "
}

func (d *DeviceDetail) CreationTime() string {
	return CreationTimeMedium(d.Device)
}

func (d *DeviceDetail) loadDevices(ctx context.Context) {
	list, err := d.s.Devices.ListAll(ctx, d.TenantID, d.Pager.Size, d.Pager.Offset)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list devices", "tenant", d.TenantID, "error", err)
		return
	}
	d.Devices = list.Result
	d.DeviceCount = list.Total
}

func (d *DeviceDetail) loadConfigs(ctx context.Context) {
	configs, err := d.s.Configs.List(ctx, d.Device.ID, d.TenantID)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list configs", "device", d.Device.ID, "error", err)
		return
	}
	d.Configs = configs
}

func (d *DeviceDetail) loadCredentials(ctx context.Context) {
	d.Credentials = nil
	creds, err := d.s.Credentials.List(ctx, d.Device.ID, d.TenantID)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list credentials", "device", d.Device.ID, "error", err)
		return
	}
	d.Credentials = creds
}

// LoadBoundDevices fills the bound devices list from the registry.
func (d *DeviceDetail) LoadBoundDevices(ctx context.Context) error {
	list, err := d.s.Devices.ListBoundDevices(ctx, d.TenantID, d.Device.ID, d.Pager.Size, d.Pager.Offset)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list bound devices", "device", d.Device.ID, "error", err)
		return err
	}
	d.Bound.Devices = list.Result
	d.Bound.Total = list.Total
	return nil
}

// NewBindModal opens the bind dialog for this device. Bound devices are
// appended to the bound list.
func (d *DeviceDetail) NewBindModal() *BindModal {
	return d.Bound.NewBindModal()
}

// Delete removes the device. For a gateway the devices bound to it are
// unbound afterwards, best effort.
func (d *DeviceDetail) Delete(ctx context.Context) (CascadeResult, error) {
	if err := d.s.Devices.Delete(ctx, d.Device, d.TenantID); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to delete device", "device", d.Device.ID, "error", err)
		d.s.Notify.Error("Could not delete device " + d.Device.ID)
		return CascadeResult{}, err
	}
	var (
		res CascadeResult
		err error
	)
	if d.IsGateway {
		res, err = cascadeUnbind(ctx, d.s, d.TenantID, d.Device.ID, d.Pager)
	}
	d.s.Notify.Success("Successfully deleted device " + d.Device.ID)
	if d.OnNavigateBack != nil {
		d.OnNavigateBack()
	}
	return res, err
}

// NewConfigForm opens the config dialog. Its result is prepended to
// Configs by ConfigUpdated.
func (d *DeviceDetail) NewConfigForm() *ConfigForm {
	return NewConfigForm(d.s, d.TenantID, d.Device.ID)
}

func (d *DeviceDetail) ConfigUpdated(cfg *api.Config) {
	d.s.Notify.Success("Successfully updated config for device " + d.Device.ID)
	d.Configs = append([]api.Config{*cfg}, d.Configs...)
}

func (d *DeviceDetail) NewCommandForm() *CommandForm {
	return NewCommandForm(d.s, d.TenantID, d.Device.ID)
}

func (d *DeviceDetail) CommandSent() {
	d.s.Notify.Success("Successfully sent command to device " + d.Device.ID)
}

func (d *DeviceDetail) NewCredentialsForm() *CredentialsForm {
	return NewCredentialsForm(d.s, d.TenantID, d.Device.ID, d.Credentials)
}

// CredentialsTable is the authentication table of the loaded credentials.
func (d *DeviceDetail) CredentialsTable() *CredentialsList {
	return NewCredentialsList(d.s, d.TenantID, d.Device.ID, d.Credentials)
}

// CredentialsAdded reloads the credentials after the form saved them.
func (d *DeviceDetail) CredentialsAdded(ctx context.Context) {
	d.s.Notify.Success("Successfully added credentials to device " + d.Device.ID)
	d.loadCredentials(ctx)
}
