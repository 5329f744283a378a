// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/viewstate"
)

const noExactMatch = "There is no device or gateway with such an ID. The search only finds exact matches."

// DeviceList is the device table of a tenant. When BoundTo is set it is
// instead the table of devices bound to that device on its detail view:
// it is filled by the detail view and can unbind its selection.
type DeviceList struct {
	s *Services

	TenantID   string
	Devices    []*api.Device
	Total      int
	Pager      Pager
	SearchTerm string
	Sort       SortHeaders

	BoundTo   string
	IsGateway bool

	// OnSelectionChanged is called with the checked devices after every
	// MarkDevice.
	OnSelectionChanged func([]*api.Device)
	// OnNavigateBack is called when unbinding empties a bound list.
	OnNavigateBack func()

	selected []*api.Device
}

// NewDeviceList opens the devices tab of a tenant.
func NewDeviceList(s *Services, tenantID string, pageSize int) *DeviceList {
	setActiveTab(s, false)
	return &DeviceList{s: s, TenantID: tenantID, Pager: NewPager(pageSize)}
}

func NewBoundDeviceList(s *Services, tenantID, deviceID string, isGateway bool, pageSize int) *DeviceList {
	return &DeviceList{
		s:         s,
		TenantID:  tenantID,
		Pager:     NewPager(pageSize),
		BoundTo:   deviceID,
		IsGateway: isGateway,
	}
}

func (l *DeviceList) isBoundList() bool {
	return l.BoundTo != ""
}

func (l *DeviceList) SearchLabel() string {
	if l.isBoundList() {
		return "Search"
	}
	return "Search exact Device ID"
}

// Visible is the list as displayed: a bound list filters locally by the
// search term, the tenant list shows the exact search result instead.
func (l *DeviceList) Visible() []*api.Device {
	if l.isBoundList() {
		return SearchFilter(l.Devices, l.SearchTerm, DeviceID)
	}
	return l.Devices
}

// Load fetches the current page of non gateway devices. A bound list is
// filled by its detail view and is not reloaded here.
func (l *DeviceList) Load(ctx context.Context) error {
	if l.isBoundList() {
		return nil
	}
	list, err := l.s.Devices.ListByTenant(ctx, l.TenantID, l.Pager.Size, l.Pager.Offset, false)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list devices", "tenant", l.TenantID, "error", err)
		return err
	}
	l.Devices = list.Result
	l.Total = list.Total
	l.selected = nil
	return nil
}

// Search looks up SearchTerm as an exact device ID, or reloads the page
// when the term is empty.
func (l *DeviceList) Search(ctx context.Context) error {
	if l.isBoundList() {
		return nil
	}
	if l.SearchTerm == "" {
		return l.Load(ctx)
	}
	d, err := l.s.Devices.GetByExactID(ctx, l.TenantID, l.SearchTerm)
	if err != nil {
		l.s.Notify.Error(noExactMatch)
		return err
	}
	l.Devices = []*api.Device{d}
	l.Total = 1
	return nil
}

func (l *DeviceList) ChangePage(ctx context.Context, page int) error {
	l.Pager.ChangePage(page)
	return l.Load(ctx)
}

func (l *DeviceList) ChangePageSize(ctx context.Context, size int) error {
	if !l.Pager.ChangeSize(size) {
		return nil
	}
	return l.Load(ctx)
}

func (l *DeviceList) OnSort(column string) {
	l.Devices = SortItems(l.Devices, l.Sort.Rotate(column))
}

func (l *DeviceList) IsEmpty() bool {
	return len(l.Devices) == 0
}

// MarkDevice toggles the selection of a device.
func (l *DeviceList) MarkDevice(d *api.Device) {
	d.Checked = !d.Checked
	l.selected = lo.Filter(l.Devices, func(d *api.Device, _ int) bool { return d.Checked })
	if l.OnSelectionChanged != nil {
		l.OnSelectionChanged(l.selected)
	}
}

func (l *DeviceList) Selected() []*api.Device {
	return l.selected
}

func (l *DeviceList) DevicesSelected() bool {
	return lo.SomeBy(l.Devices, func(d *api.Device) bool { return d.Checked })
}

// Find returns the listed device with the ID.
func (l *DeviceList) Find(id string) (*api.Device, bool) {
	return lo.Find(l.Devices, func(d *api.Device) bool { return d.ID == id })
}

// Append adds devices that were just bound through a bind modal.
func (l *DeviceList) Append(devices []*api.Device) {
	l.Devices = append(l.Devices, devices...)
}

// OpenDetail opens the detail view of a listed device.
func (l *DeviceList) OpenDetail(ctx context.Context, d *api.Device) (*DeviceDetail, error) {
	return OpenDeviceDetail(ctx, l.s, l.TenantID, d, l.Pager.Size)
}

// NewCreateModal opens the create device modal of the tenant.
func (l *DeviceList) NewCreateModal() *BindModal {
	return NewCreateDeviceModal(l.s, l.TenantID)
}

// Created reloads the list after the create modal confirmed.
func (l *DeviceList) Created(ctx context.Context, d *api.Device) error {
	l.s.Notify.Success("Successfully created device " + d.ID)
	return l.Load(ctx)
}

// NewBindModal opens the bind modal of a bound list. Devices it binds are
// appended to the list.
func (l *DeviceList) NewBindModal() *BindModal {
	m := NewBindModal(l.s, l.TenantID, l.BoundTo, l.IsGateway, l.Total, l.Pager.Size)
	m.OnDevicesSelected = l.Append
	return m
}

// Delete removes a single device. Devices naming it in their via list are
// left as they are.
func (l *DeviceList) Delete(ctx context.Context, d *api.Device) error {
	if err := l.s.Devices.Delete(ctx, d, l.TenantID); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to delete device", "tenant", l.TenantID, "device", d.ID, "error", err)
		l.s.Notify.Error("Could not delete device " + d.ID)
		return err
	}
	if idx := slices.Index(l.Devices, d); idx >= 0 {
		l.Devices = slices.Delete(l.Devices, idx, idx+1)
		l.Total--
		l.s.Notify.Success("Successfully deleted device " + d.ID)
	}
	return nil
}

// Unbind removes BoundTo from the via list of every selected device, drops
// those devices from the list and updates them. OnNavigateBack is called
// once the list is empty.
func (l *DeviceList) Unbind(ctx context.Context) (CascadeResult, error) {
	if !l.isBoundList() {
		return CascadeResult{}, fmt.Errorf("%w: not a bound device list", ErrInvalid)
	}
	var targets []*api.Device
	for _, d := range l.selected {
		if !removeVia(d, l.BoundTo) {
			continue
		}
		if idx := slices.Index(l.Devices, d); idx >= 0 {
			l.Devices = slices.Delete(l.Devices, idx, idx+1)
		}
		d.Checked = false
		targets = append(targets, d)
	}
	l.selected = nil

	res := updateAll(ctx, l.s.Devices, l.TenantID, targets)
	for range res.Failed {
		l.s.Notify.Error("Could not update device after unbinding")
	}
	if len(res.Updated) > 0 {
		l.Total = len(l.Devices)
		if len(l.Devices) == 0 && l.OnNavigateBack != nil {
			l.OnNavigateBack()
		}
	}
	return res, res.Err()
}

func setActiveTab(s *Services, isGateway bool) {
	tab := viewstate.TabDevices
	if isGateway {
		tab = viewstate.TabGateways
	}
	if err := s.State.Set(viewstate.KeyActiveTab, tab); err != nil {
		slog.Warn("unable to store active tab", "error", err)
	}
}

func activeTabIsGateway(s *Services) bool {
	tab, err := s.State.Get(viewstate.KeyActiveTab)
	return err == nil && tab == viewstate.TabGateways
}
