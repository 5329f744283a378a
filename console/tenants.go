// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"fmt"
	"slices"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
)

// TenantList is the tenant table.
type TenantList struct {
	s *Services

	Tenants    []*api.Tenant
	Total      int
	Pager      Pager
	SearchTerm string
	Sort       SortHeaders
}

func NewTenantList(s *Services, pageSize int) *TenantList {
	return &TenantList{s: s, Pager: NewPager(pageSize)}
}

func (l *TenantList) Load(ctx context.Context) error {
	list, err := l.s.Tenants.List(ctx, l.Pager.Size, l.Pager.Offset)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list tenants", "error", err)
		l.s.Notify.Error("Could not retrieve tenant list.")
		return err
	}
	l.Tenants = list.Result
	l.Total = list.Total
	return nil
}

// Visible filters the loaded page by the search term.
func (l *TenantList) Visible() []*api.Tenant {
	return SearchFilter(l.Tenants, l.SearchTerm, TenantID)
}

func (l *TenantList) ChangePage(ctx context.Context, page int) error {
	l.Pager.ChangePage(page)
	return l.Load(ctx)
}

func (l *TenantList) ChangePageSize(ctx context.Context, size int) error {
	if !l.Pager.ChangeSize(size) {
		return nil
	}
	return l.Load(ctx)
}

func (l *TenantList) OnSort(column string) {
	l.Tenants = SortItems(l.Tenants, l.Sort.Rotate(column))
}

func (l *TenantList) IsEmpty() bool {
	return len(l.Tenants) == 0
}

func (l *TenantList) NewCreateForm() *TenantForm {
	return NewTenantForm(l.s, nil)
}

func (l *TenantList) NewEditForm(t *api.Tenant) *TenantForm {
	return NewTenantForm(l.s, t)
}

// Created puts a tenant confirmed by the create form on top of the list.
func (l *TenantList) Created(t *api.Tenant) {
	l.Tenants = append([]*api.Tenant{t}, l.Tenants...)
	l.Total++
	l.s.Notify.Success("Successfully created tenant " + t.ID)
}

func (l *TenantList) Edited(t *api.Tenant) {
	l.s.Notify.Success("Successfully edited tenant " + t.ID)
}

func (l *TenantList) Delete(ctx context.Context, t *api.Tenant) error {
	if err := l.s.Tenants.Delete(ctx, t.ID); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to delete tenant", "tenant", t.ID, "error", err)
		l.s.Notify.Error("Could not delete tenant " + t.ID)
		return err
	}
	if idx := slices.Index(l.Tenants, t); idx >= 0 {
		l.Tenants = slices.Delete(l.Tenants, idx, idx+1)
		l.Total--
		l.s.Notify.Success("Successfully deleted tenant " + t.ID)
	}
	return nil
}

// OpenDetail selects a tenant. The devices tab is active afterwards.
func (l *TenantList) OpenDetail(t *api.Tenant) *TenantDetail {
	setActiveTab(l.s, false)
	return &TenantDetail{s: l.s, Tenant: t}
}

// TenantDetail is the view of a single tenant holding its device and
// gateway tabs.
type TenantDetail struct {
	s *Services

	Tenant *api.Tenant

	OnNavigateBack func()
}

func (d *TenantDetail) Title() string {
	return "Tenant: " + d.Tenant.ID
}

func (d *TenantDetail) MessagingType() string {
	return MessagingTypeLabel(d.Tenant)
}

func (d *TenantDetail) Devices(pageSize int) *DeviceList {
	return NewDeviceList(d.s, d.Tenant.ID, pageSize)
}

func (d *TenantDetail) Gateways(pageSize int) *GatewayList {
	return NewGatewayList(d.s, d.Tenant.ID, pageSize)
}

func (d *TenantDetail) NewEditForm() *TenantForm {
	return NewTenantForm(d.s, d.Tenant)
}

func (d *TenantDetail) Edited() {
	d.s.Notify.Success("Successfully edited tenant " + d.Tenant.ID)
}

func (d *TenantDetail) Delete(ctx context.Context) error {
	if err := d.s.Tenants.Delete(ctx, d.Tenant.ID); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to delete tenant", "tenant", d.Tenant.ID, "error", err)
		d.s.Notify.Error("Could not delete tenant " + d.Tenant.ID)
		return err
	}
	d.s.Notify.Success("Successfully deleted tenant " + d.Tenant.ID)
	if d.OnNavigateBack != nil {
		d.OnNavigateBack()
	}
	return nil
}

// TenantForm creates a tenant or edits the messaging type of one.
type TenantForm struct {
	s *Services

	IsNew  bool
	Tenant *api.Tenant
}

// NewTenantForm edits t, or creates a new tenant when t is nil.
func NewTenantForm(s *Services, t *api.Tenant) *TenantForm {
	f := &TenantForm{s: s, IsNew: t == nil, Tenant: t}
	if f.Tenant == nil {
		f.Tenant = &api.Tenant{}
	}
	if f.Tenant.Ext == nil {
		f.Tenant.Ext = map[string]any{api.ExtMessagingType: ""}
	}
	return f
}

func (f *TenantForm) Title() string {
	if f.IsNew {
		return "Create Tenant"
	}
	return "Edit Tenant"
}

func (f *TenantForm) SetMessagingType(mt api.MessagingType) {
	f.Tenant.Ext[api.ExtMessagingType] = string(mt)
}

func (f *TenantForm) IsInvalid() bool {
	if f.Tenant.ID == "" {
		return true
	}
	mt := api.MessagingType(f.Tenant.MessagingType())
	return !slices.Contains(api.MessagingTypes, mt)
}

// Confirm creates or updates the tenant and returns it.
func (f *TenantForm) Confirm(ctx context.Context) (*api.Tenant, error) {
	if f.IsInvalid() {
		return nil, ErrInvalid
	}
	log := logctx.CtxGetLog(ctx).With("tenant", f.Tenant.ID)
	if f.IsNew {
		if err := f.s.Tenants.Create(ctx, f.Tenant); err != nil {
			log.Error("unable to create tenant", "error", err)
			f.s.Notify.Error("Could not create tenant")
			return nil, fmt.Errorf("unable to create tenant %s: %w", f.Tenant.ID, err)
		}
		return f.Tenant, nil
	}
	if err := f.s.Tenants.Update(ctx, f.Tenant); err != nil {
		log.Error("unable to update tenant", "error", err)
		f.s.Notify.Error("Could not update tenant")
		return nil, fmt.Errorf("unable to update tenant %s: %w", f.Tenant.ID, err)
	}
	return f.Tenant, nil
}
