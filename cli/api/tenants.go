// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package api

import (
	"context"
	"net/url"
	"strconv"
)

type TenantsApi struct {
	api *Api
}

func (a *Api) Tenants() TenantsApi {
	return TenantsApi{api: a}
}

type tenantBody struct {
	Ext map[string]any `json:"ext"`
}

func tenantResource(tenantID string) string {
	return "/v1/tenants/" + url.PathEscape(tenantID)
}

// Only the messaging type extension is sent on create and update.
func newTenantBody(tenant *Tenant) tenantBody {
	return tenantBody{Ext: map[string]any{ExtMessagingType: tenant.MessagingType()}}
}

func (t TenantsApi) List(ctx context.Context, size, offset int) (TenantList, error) {
	var list TenantList
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(size))
	q.Set("pageOffset", strconv.Itoa(offset))
	return list, t.api.Get(ctx, "/v1/tenants/?"+q.Encode(), &list)
}

func (t TenantsApi) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	var tenant Tenant
	if err := t.api.Get(ctx, tenantResource(tenantID), &tenant); err != nil {
		return nil, err
	}
	tenant.ID = tenantID
	return &tenant, nil
}

func (t TenantsApi) Create(ctx context.Context, tenant *Tenant) error {
	return t.api.Post(ctx, tenantResource(tenant.ID), newTenantBody(tenant), nil)
}

func (t TenantsApi) Update(ctx context.Context, tenant *Tenant) error {
	return t.api.Put(ctx, tenantResource(tenant.ID), newTenantBody(tenant), nil)
}

func (t TenantsApi) Delete(ctx context.Context, tenantID string) error {
	return t.api.Delete(ctx, tenantResource(tenantID))
}
