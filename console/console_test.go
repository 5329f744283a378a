// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/cli/config"
	"github.com/eclipse-hono/regctl/fakeregistry"
	"github.com/eclipse-hono/regctl/viewstate"
)

type testEnv struct {
	ctx context.Context
	reg *fakeregistry.Registry
	s   *Services
}

func newTestEnv(t *testing.T) testEnv {
	reg := fakeregistry.New("token")
	reg.Now = func() time.Time { return time.Date(2023, 6, 14, 10, 30, 0, 0, time.UTC) }
	srv := httptest.NewServer(reg.Handler())
	t.Cleanup(srv.Close)
	client := api.NewClientWithTransport(config.Context{URL: srv.URL + "/", Token: "token"}, srv.Client().Transport)
	reg.AddTenant("t1", api.MessagingPubSub)
	return testEnv{ctx: context.Background(), reg: reg, s: NewServices(client, viewstate.NewMemoryStore(0))}
}

func (e testEnv) device(t *testing.T, id string) api.Device {
	d, ok := e.reg.Device("t1", id)
	require.True(t, ok, "device %s missing", id)
	return d
}

func (e testEnv) toasts() []string {
	return lo.Map(e.s.Notify.Drain(), func(t Toast, _ int) string { return string(t.Level) + ": " + t.Message })
}

func bodyOf(t *testing.T, c fakeregistry.Call) map[string]any {
	var body map[string]any
	require.Nil(t, json.Unmarshal([]byte(c.Body), &body))
	return body
}

func TestBindDevicesToGateway(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	env.reg.AddDevice("t1", api.Device{ID: "d2", Via: []string{"gw1"}})

	gw, err := env.s.Devices.GetByExactID(env.ctx, "t1", "gw1")
	require.Nil(t, err)
	require.Nil(t, env.s.State.Set(viewstate.KeyActiveTab, viewstate.TabGateways))
	detail, err := OpenDeviceDetail(env.ctx, env.s, "t1", gw, 50)
	require.Nil(t, err)
	require.True(t, detail.IsGateway)
	require.Nil(t, detail.LoadBoundDevices(env.ctx))
	require.Equal(t, []string{"d2"}, lo.Map(detail.Bound.Devices, func(d *api.Device, _ int) string { return d.ID }))

	m := detail.NewBindModal()
	require.Equal(t, "Bind device(s)", m.Title())
	require.Nil(t, m.Open(env.ctx))
	require.True(t, m.SendViaGateway)
	// d2 already names gw1 and is hidden
	require.Equal(t, []string{"d1"}, lo.Map(m.Candidates, func(d *api.Device, _ int) string { return d.ID }))
	require.Equal(t, 1, m.Count)

	require.True(t, m.IsInvalid())
	_, err = m.Confirm(env.ctx)
	require.ErrorIs(t, err, ErrInvalid)

	env.reg.ResetCalls()
	require.True(t, m.SelectByID("d1"))
	res, err := m.Confirm(env.ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"d1"}, res.Updates.Updated)

	puts := env.reg.CallsTo(http.MethodPut, "/v1/devices/t1/")
	require.Len(t, puts, 1)
	require.Equal(t, "/v1/devices/t1/d1", puts[0].Path)
	require.Equal(t, []any{"gw1"}, bodyOf(t, puts[0])["via"])
	require.Equal(t, []string{"gw1"}, env.device(t, "d1").Via)
	require.Len(t, detail.Bound.Devices, 2)
	require.False(t, detail.Bound.Devices[1].Checked)

	// binding again changes nothing
	env.reg.ResetCalls()
	d1 := &api.Device{ID: "d1", Via: []string{"gw1"}}
	m = NewBindModal(env.s, "t1", "gw1", true, 2, 50)
	m.Candidates = []*api.Device{d1}
	m.Select(d1)
	m.Select(d1)
	require.Len(t, m.Selected(), 1)
	res, err = m.Confirm(env.ctx)
	require.Nil(t, err)
	require.Empty(t, res.Updates.Updated)
	require.Empty(t, env.reg.CallsTo(http.MethodPut, "/v1/devices/"))
}

func TestBindFailureToast(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	env.reg.AddDevice("t1", api.Device{ID: "d2"})
	env.reg.FailOn(http.MethodPut, "/v1/devices/t1/d2", http.StatusInternalServerError)

	m := NewBindModal(env.s, "t1", "gw1", true, 0, 50)
	require.Nil(t, m.Open(env.ctx))
	require.True(t, m.SelectByID("d1"))
	require.True(t, m.SelectByID("d2"))
	res, err := m.Confirm(env.ctx)
	require.NotNil(t, err)
	require.Equal(t, []string{"d1"}, res.Updates.Updated)
	require.Contains(t, res.Updates.Failed, "d2")
	require.Equal(t, []string{"Error: Could not bind device to gateway gw1"}, env.toasts())
	require.Equal(t, []string{"gw1"}, env.device(t, "d1").Via)
	require.Empty(t, env.device(t, "d2").Via)
}

func TestBindToDeviceExcludesTarget(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	env.reg.AddDevice("t1", api.Device{ID: "d2"})
	env.reg.AddDevice("t1", api.Device{ID: "d3"})

	m := NewBindModal(env.s, "t1", "d1", false, 0, 50)
	require.Nil(t, m.Open(env.ctx))
	require.Equal(t, []string{"d2", "d3"}, lo.Map(m.Candidates, func(d *api.Device, _ int) string { return d.ID }))
	require.Equal(t, 2, m.Count)
}

func TestCreateDeviceModal(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})

	list := NewDeviceList(env.s, "t1", 50)
	m := list.NewCreateModal()
	require.Equal(t, "Create new device", m.Title())
	require.Equal(t, "Select gateway(s).", m.SelectLabel())
	require.Nil(t, m.Open(env.ctx))
	require.False(t, m.SendViaGateway)
	require.Equal(t, []string{"gw1"}, lo.Map(m.Candidates, func(d *api.Device, _ int) string { return d.ID }))

	// without a gateway the device is created standalone
	m.Device.ID = "plain"
	res, err := m.Confirm(env.ctx)
	require.Nil(t, err)
	require.Equal(t, "plain", res.Device.ID)
	post := env.reg.CallsTo(http.MethodPost, "/v1/devices/t1/plain")
	require.Len(t, post, 1)
	require.Equal(t, []any{}, bodyOf(t, post[0])["via"])

	m = list.NewCreateModal()
	require.Nil(t, m.Open(env.ctx))
	m.SendViaGateway = true
	m.Device.ID = "d2"
	require.True(t, m.IsInvalid())
	require.True(t, m.SelectByID("gw1"))
	res, err = m.Confirm(env.ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"gw1"}, env.device(t, "d2").Via)
	require.Nil(t, list.Created(env.ctx, res.Device))
	require.Contains(t, env.toasts(), "Success: Successfully created device d2")

	m = list.NewCreateModal()
	m.Device.ID = "d2"
	_, err = m.Confirm(env.ctx)
	require.NotNil(t, err)
	require.Equal(t, []string{"Error: Could not create device for id d2"}, env.toasts())
}

func TestBindSelectionAcrossPages(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "gw2"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1", "gw2"}})

	m := NewCreateDeviceModal(env.s, "t1")
	m.Pager = NewPager(1)
	require.Nil(t, m.Open(env.ctx))
	require.True(t, m.SelectByID("gw1"))
	require.Nil(t, m.ChangePage(env.ctx, 2))
	require.Equal(t, "gw2", m.Candidates[0].ID)
	require.False(t, m.Candidates[0].Checked)
	require.Nil(t, m.ChangePage(env.ctx, 1))
	require.True(t, m.Candidates[0].Checked)

	require.True(t, m.SelectByID("gw1"))
	require.Len(t, m.Selected(), 1)
	m.Unselect(m.Candidates[0])
	require.Empty(t, m.Selected())
	require.True(t, m.SelectByID("gw1"))

	m.SendViaGateway = true
	m.Device.ID = "d2"
	_, err := m.Confirm(env.ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"gw1"}, env.device(t, "d2").Via)
}

func TestCreateGatewayModal(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	env.reg.AddDevice("t1", api.Device{ID: "d2", Via: []string{"gw0"}})
	env.reg.AddDevice("t1", api.Device{ID: "gw0"})

	gws := NewGatewayList(env.s, "t1", 50)
	m := gws.NewCreateModal()
	require.Equal(t, "Create new gateway", m.Title())
	require.Nil(t, m.Open(env.ctx))
	require.True(t, m.SendViaGateway)
	require.Equal(t, []string{"d1", "d2"}, lo.Map(m.Candidates, func(d *api.Device, _ int) string { return d.ID }))

	m.Device.ID = "gw1"
	require.True(t, m.IsInvalid())
	require.True(t, m.SelectByID("d1"))
	require.True(t, m.SelectByID("d2"))
	env.reg.ResetCalls()
	res, err := m.Confirm(env.ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"d1", "d2"}, res.Updates.Updated)

	calls := env.reg.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, http.MethodPost, calls[0].Method)
	require.Equal(t, "/v1/devices/t1/gw1", calls[0].Path)
	require.Equal(t, []string{"gw1"}, env.device(t, "d1").Via)
	require.Equal(t, []string{"gw0", "gw1"}, env.device(t, "d2").Via)

	gws.Created(res.Device)
	require.Len(t, gws.Gateways, 1)
	require.Equal(t, []string{"Success: Successfully created gateway gw1"}, env.toasts())
}

func TestGatewayDeleteCascade(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "gw10"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})
	env.reg.AddDevice("t1", api.Device{ID: "d2", Via: []string{"gw1", "gw10"}})
	env.reg.AddDevice("t1", api.Device{ID: "d3", Via: []string{"gw10"}})

	gws := NewGatewayList(env.s, "t1", 50)
	require.Nil(t, gws.Load(env.ctx))
	require.Equal(t, 2, gws.Total)
	gw, ok := gws.Find("gw1")
	require.True(t, ok)

	env.reg.ResetCalls()
	res, err := gws.Delete(env.ctx, gw)
	require.Nil(t, err)
	require.Equal(t, []string{"d1", "d2"}, res.Updated)

	require.Len(t, env.reg.CallsTo(http.MethodDelete, "/v1/devices/"), 1)
	require.Len(t, env.reg.CallsTo(http.MethodPut, "/v1/devices/"), 2)
	list := env.reg.CallsTo(http.MethodGet, "/v1/devices/t1")
	require.Len(t, list, 1)
	require.Equal(t, "0", list[0].Query.Get("pageOffset"))
	require.Equal(t, "50", list[0].Query.Get("pageSize"))

	require.Empty(t, env.device(t, "d1").Via)
	require.Equal(t, []string{"gw10"}, env.device(t, "d2").Via)
	require.Equal(t, []string{"gw10"}, env.device(t, "d3").Via)
	require.Equal(t, 1, gws.Total)
	require.Equal(t, []string{"Success: Successfully deleted gateway gw1"}, env.toasts())
}

func TestGatewayDeleteCascadeUsesPage(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	for _, id := range []string{"d1", "d2", "d3"} {
		env.reg.AddDevice("t1", api.Device{ID: id, Via: []string{"gw1"}})
	}
	gws := NewGatewayList(env.s, "t1", 2)
	require.Nil(t, gws.Load(env.ctx))
	require.Nil(t, gws.ChangePage(env.ctx, 1))
	gw, ok := gws.Find("gw1")
	require.True(t, ok)

	res, err := gws.Delete(env.ctx, gw)
	require.Nil(t, err)
	// only the first page of bound devices is unbound
	require.Equal(t, []string{"d1", "d2"}, res.Updated)
	require.Equal(t, []string{"gw1"}, env.device(t, "d3").Via)
}

func TestGatewayDeleteFailures(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})
	env.reg.AddDevice("t1", api.Device{ID: "d2", Via: []string{"gw1"}})
	gws := NewGatewayList(env.s, "t1", 50)
	require.Nil(t, gws.Load(env.ctx))
	gw, _ := gws.Find("gw1")

	env.reg.FailOn(http.MethodDelete, "/v1/devices/t1/gw1", http.StatusInternalServerError)
	_, err := gws.Delete(env.ctx, gw)
	require.NotNil(t, err)
	require.Equal(t, []string{"Error: Could not delete gateway gw1"}, env.toasts())
	require.Len(t, gws.Gateways, 1)
	require.Empty(t, env.reg.CallsTo(http.MethodPut, "/v1/devices/"))

	env.reg.ClearFailures()
	env.reg.FailOn(http.MethodPut, "/v1/devices/t1/d2", http.StatusInternalServerError)
	res, err := gws.Delete(env.ctx, gw)
	require.NotNil(t, err)
	require.Equal(t, []string{"d1"}, res.Updated)
	require.Contains(t, res.Failed, "d2")
	require.Equal(t, []string{"gw1"}, env.device(t, "d2").Via)
	_, ok := env.reg.Device("t1", "gw1")
	require.False(t, ok)
	require.Equal(t, []string{
		"Success: Successfully deleted gateway gw1",
		"Error: Could not unbind 1 device(s) from deleted gateway gw1",
	}, env.toasts())
}

func TestUnbindNavigatesBack(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1", "gw2"}})

	gw, err := env.s.Devices.GetByExactID(env.ctx, "t1", "gw1")
	require.Nil(t, err)
	NewGatewayList(env.s, "t1", 50)
	detail, err := OpenDeviceDetail(env.ctx, env.s, "t1", gw, 50)
	require.Nil(t, err)
	require.Nil(t, detail.LoadBoundDevices(env.ctx))

	navigated := false
	detail.Bound.OnNavigateBack = func() { navigated = true }
	var selection []*api.Device
	detail.Bound.OnSelectionChanged = func(s []*api.Device) { selection = s }
	d1, ok := detail.Bound.Find("d1")
	require.True(t, ok)
	detail.Bound.MarkDevice(d1)
	require.Len(t, selection, 1)
	require.True(t, detail.Bound.DevicesSelected())

	res, err := detail.Bound.Unbind(env.ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"d1"}, res.Updated)
	require.True(t, navigated)
	require.Empty(t, detail.Bound.Devices)
	require.Equal(t, []string{"gw2"}, env.device(t, "d1").Via)

	_, err = NewDeviceList(env.s, "t1", 50).Unbind(env.ctx)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestUnbindFailure(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})
	env.reg.FailOn(http.MethodPut, "/v1/devices/t1/d1", http.StatusBadRequest)

	l := NewBoundDeviceList(env.s, "t1", "gw1", true, 50)
	l.Devices = []*api.Device{{ID: "d1", Via: []string{"gw1"}}}
	l.MarkDevice(l.Devices[0])
	navigated := false
	l.OnNavigateBack = func() { navigated = true }
	_, err := l.Unbind(env.ctx)
	require.NotNil(t, err)
	require.False(t, navigated)
	require.Equal(t, []string{"Error: Could not update device after unbinding"}, env.toasts())
}

func TestDeviceDetail(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})
	env.reg.AddDevice("t1", api.Device{ID: "d2"})

	NewDeviceList(env.s, "t1", 50)
	detail, err := OpenDeviceDetailByID(env.ctx, env.s, "t1", "d1", 50)
	require.Nil(t, err)
	require.False(t, detail.IsGateway)
	require.Equal(t, "Device: d1", detail.Title())
	require.Equal(t, "Device ID: ", detail.IDLabel())
	require.Equal(t, "Jun 14, 2023, 10:30:00 AM", detail.CreationTime())
	require.True(t, detail.IsBoundDevice)
	require.Equal(t, 3, detail.DeviceCount)

	// the stored flag wins over the active tab until the view is closed
	setActiveTab(env.s, true)
	detail, err = OpenDeviceDetailByID(env.ctx, env.s, "t1", "d1", 50)
	require.Nil(t, err)
	require.False(t, detail.IsGateway)
	require.Nil(t, detail.Close())
	detail, err = OpenDeviceDetailByID(env.ctx, env.s, "t1", "d1", 50)
	require.Nil(t, err)
	require.True(t, detail.IsGateway)
	require.Equal(t, "Gateway: d1", detail.Title())
	require.Nil(t, detail.Close())

	NewDeviceList(env.s, "t1", 50)
	detail, err = OpenDeviceDetailByID(env.ctx, env.s, "t1", "d2", 50)
	require.Nil(t, err)
	require.False(t, detail.IsBoundDevice)

	_, err = OpenDeviceDetailByID(env.ctx, env.s, "t1", "missing", 50)
	require.True(t, api.IsNotFound(err))
}

func TestDeviceDetailDeleteGateway(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})

	NewGatewayList(env.s, "t1", 50)
	detail, err := OpenDeviceDetailByID(env.ctx, env.s, "t1", "gw1", 50)
	require.Nil(t, err)
	navigated := false
	detail.OnNavigateBack = func() { navigated = true }
	res, err := detail.Delete(env.ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"d1"}, res.Updated)
	require.True(t, navigated)
	require.Empty(t, env.device(t, "d1").Via)
	require.Equal(t, []string{"Success: Successfully deleted device gw1"}, env.toasts())
}

func TestDeviceListSearchAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "gw1"})
	env.reg.AddDevice("t1", api.Device{ID: "d1", Via: []string{"gw1"}})
	env.reg.AddDevice("t1", api.Device{ID: "d2"})

	l := NewDeviceList(env.s, "t1", 50)
	require.Equal(t, "Search exact Device ID", l.SearchLabel())
	require.Nil(t, l.Load(env.ctx))
	require.Equal(t, 2, l.Total)

	l.SearchTerm = "d"
	require.NotNil(t, l.Search(env.ctx))
	require.Equal(t, []string{"Error: " + noExactMatch}, env.toasts())
	l.SearchTerm = "d2"
	require.Nil(t, l.Search(env.ctx))
	require.Equal(t, 1, l.Total)
	require.Equal(t, "d2", l.Visible()[0].ID)

	d2 := l.Devices[0]
	require.Nil(t, l.Delete(env.ctx, d2))
	require.True(t, l.IsEmpty())
	require.Equal(t, []string{"Success: Successfully deleted device d2"}, env.toasts())

	require.Nil(t, l.ChangePageSize(env.ctx, 100))
	require.Nil(t, l.ChangePage(env.ctx, 3))
	calls := env.reg.CallsTo(http.MethodGet, "/v1/devices/t1")
	last := calls[len(calls)-1]
	require.Equal(t, "200", last.Query.Get("pageOffset"))
	require.Equal(t, "100", last.Query.Get("pageSize"))
	require.Equal(t, "false", last.Query.Get("isGateway"))

	bound := NewBoundDeviceList(env.s, "t1", "gw1", true, 50)
	require.Equal(t, "Search", bound.SearchLabel())
	bound.Devices = []*api.Device{{ID: "Alpha"}, {ID: "beta"}}
	bound.SearchTerm = "ALP"
	require.Equal(t, []string{"Alpha"}, lo.Map(bound.Visible(), func(d *api.Device, _ int) string { return d.ID }))
}

func TestTenantForm(t *testing.T) {
	env := newTestEnv(t)
	tenants := NewTenantList(env.s, 50)
	require.Nil(t, tenants.Load(env.ctx))
	require.Equal(t, 1, tenants.Total)

	f := tenants.NewCreateForm()
	require.Equal(t, "Create Tenant", f.Title())
	require.Equal(t, map[string]any{api.ExtMessagingType: ""}, f.Tenant.Ext)
	f.Tenant.ID = "t2"
	require.True(t, f.IsInvalid())
	f.SetMessagingType("mqtt")
	require.True(t, f.IsInvalid())
	f.SetMessagingType(api.MessagingKafka)
	require.False(t, f.IsInvalid())
	created, err := f.Confirm(env.ctx)
	require.Nil(t, err)
	tenants.Created(created)
	require.Equal(t, "t2", tenants.Tenants[0].ID)
	require.Equal(t, 2, tenants.Total)

	_, err = NewTenantForm(env.s, &api.Tenant{ID: "t2", Ext: map[string]any{api.ExtMessagingType: "kafka"}}).Confirm(env.ctx)
	require.Nil(t, err)
	dup := tenants.NewCreateForm()
	dup.Tenant.ID = "t2"
	dup.SetMessagingType(api.MessagingAmqp)
	_, err = dup.Confirm(env.ctx)
	require.NotNil(t, err)

	edit := tenants.NewEditForm(tenants.Tenants[0])
	require.Equal(t, "Edit Tenant", edit.Title())
	edit.SetMessagingType(api.MessagingAmqp)
	_, err = edit.Confirm(env.ctx)
	require.Nil(t, err)
	got, err := env.s.Tenants.Get(env.ctx, "t2")
	require.Nil(t, err)
	require.Equal(t, "amqp", got.MessagingType())

	require.Equal(t, []string{
		"Success: Successfully created tenant t2",
		"Error: Could not create tenant",
	}, env.toasts())

	detail := tenants.OpenDetail(tenants.Tenants[0])
	require.Equal(t, "Tenant: t2", detail.Title())
	require.Equal(t, "amqp", detail.MessagingType())
	tab, err := env.s.State.Get(viewstate.KeyActiveTab)
	require.Nil(t, err)
	require.Equal(t, viewstate.TabDevices, tab)

	require.Nil(t, tenants.Delete(env.ctx, tenants.Tenants[0]))
	require.Equal(t, 1, tenants.Total)
	require.Equal(t, []string{"Success: Successfully deleted tenant t2"}, env.toasts())
}

func TestCredentialsForm(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})

	f := NewCredentialsForm(env.s, "t1", "d1", nil)
	require.Equal(t, "Add Credentials", f.Title())
	f.ChangeType(api.CredentialsHashedPassword)
	f.AuthID = "auth-1"
	require.True(t, f.IsInvalid())
	f.SetPassword(PasswordInput{Password: "s3cret"})
	require.False(t, f.IsInvalid())
	creds, err := f.Confirm(env.ctx)
	require.Nil(t, err)
	require.Len(t, creds, 1)
	stored := env.reg.Credentials("t1", "d1")
	require.Len(t, stored, 1)
	require.Equal(t, "s3cret", stored[0].Secrets[0].PwdPlain)

	f = NewCredentialsForm(env.s, "t1", "d1", creds)
	f.ChangeType(api.CredentialsRpk)
	f.AuthID = "auth-2"
	f.SetRpk(RpkInput{UsePublicKey: true, Key: "abc", Algorithm: "DSA"})
	require.True(t, f.IsInvalid())
	f.SetRpk(RpkInput{
		UsePublicKey: true,
		Key:          publicKeyHeader + "\nAAAA\nBBBB\n" + publicKeyFooter,
		Algorithm:    "EC",
		Cert:         "ignored",
		NotAfter:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	creds, err = f.Confirm(env.ctx)
	require.Nil(t, err)
	require.Len(t, creds, 2)
	secret := env.reg.Credentials("t1", "d1")[1].Secrets[0]
	require.Equal(t, "AAAABBBB", secret.Key)
	require.Empty(t, secret.Cert)
	require.Equal(t, "2024-01-02T03:04:05.000Z", secret.NotAfter)

	// a failed save drops the new credential again
	env.reg.FailOn(http.MethodPut, "/v1/credentials/t1/d1", http.StatusBadRequest)
	f = NewCredentialsForm(env.s, "t1", "d1", creds)
	f.ChangeType(api.CredentialsRpk)
	f.AuthID = "auth-3"
	f.SetRpk(RpkInput{Cert: certHeader + "\nCCCC\n" + certFooter})
	_, err = f.Confirm(env.ctx)
	require.NotNil(t, err)
	require.Len(t, f.Credentials, 2)
	require.Equal(t, []string{"Error: Could not save credentials. Please check your inputs again."}, env.toasts())
	env.reg.ClearFailures()

	_, err = f.Confirm(env.ctx)
	require.Nil(t, err)
	secret = env.reg.Credentials("t1", "d1")[2].Secrets[0]
	require.Equal(t, "CCCC", secret.Cert)
	require.Empty(t, secret.Key)
}

func TestCredentialsFormHashesLocally(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})

	f := NewCredentialsForm(env.s, "t1", "d1", nil)
	f.ChangeType(api.CredentialsHashedPassword)
	f.AuthID = "auth-1"
	f.SetPassword(PasswordInput{Password: "s3cret", HashFunction: HashSha512})
	_, err := f.Confirm(env.ctx)
	require.Nil(t, err)
	secret := env.reg.Credentials("t1", "d1")[0].Secrets[0]
	require.Empty(t, secret.PwdPlain)
	require.Equal(t, HashSha512, secret.HashFunction)
	ok, err := VerifyPassword("s3cret", secret)
	require.Nil(t, err)
	require.True(t, ok)

	f = NewCredentialsForm(env.s, "t1", "d1", nil)
	f.ChangeType(api.CredentialsHashedPassword)
	f.AuthID = "auth-1"
	f.SetPassword(PasswordInput{HashFunction: HashSha256})
	require.True(t, f.IsInvalid())
}

func TestCredentialsList(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	creds := []api.Credentials{
		{Type: api.CredentialsHashedPassword, AuthID: "pw", Secrets: []api.Secret{{ID: "s1"}, {ID: "s2"}}},
		{Type: api.CredentialsRpk, AuthID: "jwt", Secrets: []api.Secret{{ID: "s3", Algorithm: "EC", Key: "AAAA"}}},
	}
	require.Nil(t, env.s.Credentials.Save(env.ctx, "d1", "t1", creds))

	l := NewCredentialsList(env.s, "t1", "d1", creds)
	require.Equal(t, []string{"s3", "s2", "s1"}, lo.Map(l.Values, func(v AuthenticationValue, _ int) string { return v.ID }))
	require.Equal(t, "JWT based", AuthenticationTypeLabel(l.Values[0].Type))
	require.Equal(t, "Password based", AuthenticationTypeLabel(l.Values[1].Type))
	require.Equal(t, "-", AuthenticationTypeLabel(""))

	pw, _ := l.Find("pw")
	require.Nil(t, l.Edit(pw))
	jwt, _ := l.Find("jwt")
	f := l.Edit(jwt)
	require.Equal(t, "Update Credentials", f.Title())
	f.SetRpk(RpkInput{UsePublicKey: true, Key: "BBBB", Algorithm: "RSA"})
	_, err := f.Confirm(env.ctx)
	require.Nil(t, err)
	l.Edited(env.ctx, true)
	require.Equal(t, "BBBB", l.Values[0].Key)
	require.Len(t, env.reg.Credentials("t1", "d1"), 2)

	require.Nil(t, l.Delete(env.ctx, pw))
	require.Equal(t, []string{"", "s1"}, lo.Map(l.Values, func(v AuthenticationValue, _ int) string { return v.ID }))
	stored := env.reg.Credentials("t1", "d1")
	require.Len(t, stored, 1)
	require.Equal(t, "jwt", stored[0].AuthID)
	require.Equal(t, []string{
		"Success: Successfully edited credentials of device d1",
		"Success: Successfully deleted credentials for device d1",
	}, env.toasts())

	require.Nil(t, l.Delete(env.ctx, AuthenticationValue{AuthID: "unknown"}))
}

func TestConfigAndCommandForms(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	detail, err := OpenDeviceDetailByID(env.ctx, env.s, "t1", "d1", 50)
	require.Nil(t, err)

	cf := detail.NewConfigForm()
	_, err = cf.Confirm(env.ctx)
	require.ErrorIs(t, err, ErrInvalid)
	cf.Data = "hello"
	cfg, err := cf.Confirm(env.ctx)
	require.Nil(t, err)
	require.Equal(t, "aGVsbG8=", cfg.BinaryData)
	require.Equal(t, "1", cfg.Version)
	detail.ConfigUpdated(cfg)

	cf = detail.NewConfigForm()
	cf.Format = FormatBase64
	cf.Data = "%%%"
	_, err = cf.Confirm(env.ctx)
	require.NotNil(t, err)
	cf.Data = "d29ybGQ="
	cfg, err = cf.Confirm(env.ctx)
	require.Nil(t, err)
	detail.ConfigUpdated(cfg)
	require.Equal(t, []string{"2", "1"}, lo.Map(detail.Configs, func(c api.Config, _ int) string { return c.Version }))
	require.Equal(t, "world", DecodePayload(detail.Configs[0].BinaryData))

	require.Equal(t, []string{
		"Success: Successfully updated config for device d1",
		"Error: Could not update config for device d1. Reason: binaryData must be base64 encoded",
		"Success: Successfully updated config for device d1",
	}, env.toasts())

	cmd := detail.NewCommandForm()
	cmd.Data = "reboot"
	cmd.WithCorrelationID = true
	cmd.CorrelationID = 7
	require.Nil(t, cmd.Command().CorrelationID)
	cmd.ResponseRequired = true
	require.Equal(t, 7, *cmd.Command().CorrelationID)
	require.Nil(t, cmd.Confirm(env.ctx))
	detail.CommandSent()
	sent := env.reg.Commands("t1", "d1")
	require.Len(t, sent, 1)
	require.Equal(t, "cmVib290", sent[0].BinaryData)
	require.True(t, *sent[0].ResponseRequired)

	env.reg.FailOn(http.MethodPost, "/v1/commands/t1/d1", http.StatusServiceUnavailable)
	require.NotNil(t, cmd.Confirm(env.ctx))
	toasts := env.toasts()
	require.Equal(t, "Success: Successfully sent command to device d1", toasts[0])
	require.Contains(t, toasts[1], "Error: Could not send command to device d1. Reason: ")

	cmd = NewCommandForm(env.s, "t1", "")
	cmd.Data = "x"
	require.ErrorIs(t, cmd.Confirm(env.ctx), ErrInvalid)
}

func TestStates(t *testing.T) {
	env := newTestEnv(t)
	env.reg.AddDevice("t1", api.Device{ID: "d1"})
	env.reg.AddState("t1", "d1", api.State{UpdateTime: "2023-06-14T10:30:00.000Z", BinaryData: "b2s="})

	states, err := States(env.ctx, env.s, "t1", "d1")
	require.Nil(t, err)
	require.Len(t, states, 1)
	require.Equal(t, "ok", DecodePayload(states[0].BinaryData))
	require.Equal(t, "AAE=", DecodePayload("AAE="))
	require.Equal(t, "not base64", DecodePayload("not base64"))
}
