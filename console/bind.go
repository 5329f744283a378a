// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
)

type BindMode int

const (
	// ModeCreateDevice creates a device bound to the selected gateways.
	ModeCreateDevice BindMode = iota
	// ModeCreateGateway creates a gateway and binds the selected devices to it.
	ModeCreateGateway
	// ModeBind binds the selected devices to an existing device.
	ModeBind
)

// BindModal is the create-and-bind dialog. It lists candidate devices, keeps
// the selection and on confirm issues one registry call per affected device.
type BindModal struct {
	s *Services

	Mode     BindMode
	TenantID string

	// Device is the device or gateway being created.
	Device *api.Device
	// TargetID is the device the selection is bound to in ModeBind.
	TargetID          string
	IsGateway         bool
	BoundDevicesCount int

	// SendViaGateway requires a selection. It is always set for the
	// gateway and bind modes and optional when creating a device.
	SendViaGateway bool

	Candidates []*api.Device
	Count      int
	Pager      Pager

	// OnSelectionChanged is called with the selection after each change.
	OnSelectionChanged func([]*api.Device)
	// OnDevicesSelected receives the bound devices after a ModeBind confirm.
	OnDevicesSelected func([]*api.Device)

	selected []*api.Device
}

func NewCreateDeviceModal(s *Services, tenantID string) *BindModal {
	return &BindModal{s: s, Mode: ModeCreateDevice, TenantID: tenantID, Device: &api.Device{}, Pager: NewPager(0)}
}

func NewCreateGatewayModal(s *Services, tenantID string) *BindModal {
	return &BindModal{s: s, Mode: ModeCreateGateway, TenantID: tenantID, Device: &api.Device{}, Pager: NewPager(0)}
}

// NewBindModal binds devices to targetID. boundCount is the number of
// devices already bound to a gateway target.
func NewBindModal(s *Services, tenantID, targetID string, isGateway bool, boundCount, pageSize int) *BindModal {
	return &BindModal{
		s:                 s,
		Mode:              ModeBind,
		TenantID:          tenantID,
		Device:            &api.Device{},
		TargetID:          targetID,
		IsGateway:         isGateway,
		BoundDevicesCount: boundCount,
		Pager:             NewPager(pageSize),
	}
}

func (m *BindModal) Title() string {
	switch m.Mode {
	case ModeCreateDevice:
		return "Create new device"
	case ModeCreateGateway:
		return "Create new gateway"
	default:
		return "Bind device(s)"
	}
}

func (m *BindModal) SelectLabel() string {
	if m.Mode == ModeCreateDevice {
		return "Select gateway(s)."
	}
	return "Select device(s)."
}

// Open lists the first page of candidates.
func (m *BindModal) Open(ctx context.Context) error {
	if m.Mode != ModeCreateDevice {
		m.SendViaGateway = true
	}
	return m.listCandidates(ctx)
}

func (m *BindModal) ChangePage(ctx context.Context, page int) error {
	m.Pager.ChangePage(page)
	return m.listCandidates(ctx)
}

func (m *BindModal) listCandidates(ctx context.Context) error {
	onlyGateways := m.Mode == ModeCreateDevice
	list, err := m.s.Devices.ListByTenant(ctx, m.TenantID, m.Pager.Size, m.Pager.Offset, onlyGateways)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list bind candidates", "tenant", m.TenantID, "error", err)
		return err
	}
	for _, d := range list.Result {
		d.Checked = m.IsSelected(d.ID)
	}
	if m.Mode != ModeBind {
		m.Candidates = list.Result
		m.Count = list.Total
		return nil
	}
	if m.IsGateway {
		m.Count = list.Total - m.BoundDevicesCount
		m.Candidates = lo.Filter(list.Result, func(d *api.Device, _ int) bool {
			return !slices.Contains(d.Via, m.TargetID)
		})
	} else {
		m.Count = list.Total - 1
		m.Candidates = slices.DeleteFunc(list.Result, func(d *api.Device) bool {
			return d.ID == m.TargetID
		})
	}
	return nil
}

// Select checks a candidate and adds it to the selection once. Candidates
// are matched by ID since every page load returns new values.
func (m *BindModal) Select(d *api.Device) {
	d.Checked = true
	if !m.IsSelected(d.ID) {
		m.selected = append(m.selected, d)
		m.selectionChanged()
	}
}

func (m *BindModal) Unselect(d *api.Device) {
	d.Checked = false
	n := len(m.selected)
	m.selected = slices.DeleteFunc(m.selected, func(s *api.Device) bool { return s.ID == d.ID })
	if len(m.selected) != n {
		m.selectionChanged()
	}
}

func (m *BindModal) IsSelected(id string) bool {
	return lo.ContainsBy(m.selected, func(s *api.Device) bool { return s.ID == id })
}

// SelectByID selects the listed candidate with the ID.
func (m *BindModal) SelectByID(id string) bool {
	d, ok := lo.Find(m.Candidates, func(d *api.Device) bool { return d.ID == id })
	if ok {
		m.Select(d)
	}
	return ok
}

func (m *BindModal) selectionChanged() {
	if m.OnSelectionChanged != nil {
		m.OnSelectionChanged(m.Selected())
	}
}

func (m *BindModal) Selected() []*api.Device {
	return slices.Clone(m.selected)
}

func (m *BindModal) IsInvalid() bool {
	missingSelection := len(m.selected) == 0
	missingDevice := m.Device == nil || m.Device.ID == "" || m.TenantID == ""
	switch m.Mode {
	case ModeCreateDevice:
		return missingDevice || (m.SendViaGateway && missingSelection)
	case ModeCreateGateway:
		return missingDevice || missingSelection
	default:
		return m.TargetID == "" || m.TenantID == "" || (m.SendViaGateway && missingSelection)
	}
}

// BindResult is the outcome of a confirmed modal. Device is the created
// device for the create modes.
type BindResult struct {
	Device  *api.Device
	Updates CascadeResult
}

// Confirm performs the modal's action. ErrInvalid is returned without any
// registry call when IsInvalid reports true.
func (m *BindModal) Confirm(ctx context.Context) (*BindResult, error) {
	if m.IsInvalid() {
		return nil, ErrInvalid
	}
	switch m.Mode {
	case ModeCreateDevice:
		return m.createDevice(ctx)
	case ModeCreateGateway:
		return m.createGateway(ctx)
	default:
		return m.bind(ctx)
	}
}

// Close drops the selection.
func (m *BindModal) Close() {
	for _, d := range m.selected {
		d.Checked = false
	}
	m.selected = nil
}

func (m *BindModal) createDevice(ctx context.Context) (*BindResult, error) {
	m.Device.Via = lo.Uniq(lo.Map(m.selected, func(d *api.Device, _ int) string { return d.ID }))
	if err := m.s.Devices.Create(ctx, m.Device, m.TenantID); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to create device", "tenant", m.TenantID, "device", m.Device.ID, "error", err)
		m.s.Notify.Error("Could not create device for id " + m.Device.ID)
		return nil, err
	}
	return &BindResult{Device: m.Device}, nil
}

func (m *BindModal) createGateway(ctx context.Context) (*BindResult, error) {
	log := logctx.CtxGetLog(ctx).With("tenant", m.TenantID, "gateway", m.Device.ID)
	if err := m.s.Devices.Create(ctx, m.Device, m.TenantID); err != nil {
		log.Error("unable to create gateway", "error", err)
		m.s.Notify.Error("Could not create gateway for id " + m.Device.ID)
		return nil, err
	}
	var targets []*api.Device
	for _, d := range m.selected {
		if appendVia(d, m.Device.ID) {
			targets = append(targets, d)
		}
	}
	res := updateAll(ctx, m.s.Devices, m.TenantID, targets)
	for range res.Failed {
		m.s.Notify.Error("Could not create gateway for id " + m.Device.ID)
	}
	return &BindResult{Device: m.Device, Updates: res}, res.Err()
}

func (m *BindModal) bind(ctx context.Context) (*BindResult, error) {
	var targets []*api.Device
	for _, d := range m.selected {
		if appendVia(d, m.TargetID) {
			targets = append(targets, d)
		}
		d.Checked = false
	}
	res := updateAll(ctx, m.s.Devices, m.TenantID, targets)
	for range res.Failed {
		m.s.Notify.Error("Could not bind device to gateway " + m.TargetID)
	}
	if m.OnDevicesSelected != nil {
		m.OnDevicesSelected(m.Selected())
	}
	return &BindResult{Updates: res}, res.Err()
}
