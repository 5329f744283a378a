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

// GatewayList is the gateways tab of a tenant.
type GatewayList struct {
	s *Services

	TenantID   string
	Gateways   []*api.Device
	Total      int
	Pager      Pager
	SearchTerm string
	Sort       SortHeaders
}

func NewGatewayList(s *Services, tenantID string, pageSize int) *GatewayList {
	setActiveTab(s, true)
	return &GatewayList{s: s, TenantID: tenantID, Pager: NewPager(pageSize)}
}

func (l *GatewayList) Load(ctx context.Context) error {
	list, err := l.s.Devices.ListByTenant(ctx, l.TenantID, l.Pager.Size, l.Pager.Offset, true)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list gateways", "tenant", l.TenantID, "error", err)
		return err
	}
	l.Gateways = list.Result
	l.Total = list.Total
	return nil
}

func (l *GatewayList) Search(ctx context.Context) error {
	if l.SearchTerm == "" {
		return l.Load(ctx)
	}
	gw, err := l.s.Devices.GetByExactID(ctx, l.TenantID, l.SearchTerm)
	if err != nil {
		l.s.Notify.Error(noExactMatch)
		return err
	}
	l.Gateways = []*api.Device{gw}
	l.Total = 1
	return nil
}

func (l *GatewayList) ChangePage(ctx context.Context, page int) error {
	l.Pager.ChangePage(page)
	return l.Load(ctx)
}

func (l *GatewayList) ChangePageSize(ctx context.Context, size int) error {
	if !l.Pager.ChangeSize(size) {
		return nil
	}
	return l.Load(ctx)
}

func (l *GatewayList) OnSort(column string) {
	l.Gateways = SortItems(l.Gateways, l.Sort.Rotate(column))
}

func (l *GatewayList) IsEmpty() bool {
	return len(l.Gateways) == 0
}

func (l *GatewayList) Find(id string) (*api.Device, bool) {
	return lo.Find(l.Gateways, func(d *api.Device) bool { return d.ID == id })
}

// OpenDetail opens the detail view of a listed gateway.
func (l *GatewayList) OpenDetail(ctx context.Context, gw *api.Device) (*DeviceDetail, error) {
	return OpenDeviceDetail(ctx, l.s, l.TenantID, gw, l.Pager.Size)
}

func (l *GatewayList) NewCreateModal() *BindModal {
	return NewCreateGatewayModal(l.s, l.TenantID)
}

// Created adds a gateway confirmed by the create modal to the list.
func (l *GatewayList) Created(gw *api.Device) {
	l.Gateways = append(l.Gateways, gw)
	l.s.Notify.Success("Successfully created gateway " + gw.ID)
}

// Delete removes the gateway and then unbinds the devices referencing it
// on the current page. A failure after the delete leaves dangling via
// entries behind; it is reported, not repaired.
func (l *GatewayList) Delete(ctx context.Context, gw *api.Device) (CascadeResult, error) {
	if err := l.s.Devices.Delete(ctx, gw, l.TenantID); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to delete gateway", "tenant", l.TenantID, "gateway", gw.ID, "error", err)
		l.s.Notify.Error("Could not delete gateway " + gw.ID)
		return CascadeResult{}, err
	}
	if idx := slices.Index(l.Gateways, gw); idx >= 0 {
		l.Gateways = slices.Delete(l.Gateways, idx, idx+1)
		l.Total--
		l.s.Notify.Success("Successfully deleted gateway " + gw.ID)
	}
	return cascadeUnbind(ctx, l.s, l.TenantID, gw.ID, l.Pager)
}
