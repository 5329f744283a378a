// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package fakeregistry is an in-memory device registry that speaks the REST
// contract regctl consumes. It records every call it receives and can be told
// to fail specific requests, which makes it the HTTP double of the console
// tests. It is also served by cmd/fakeregistry for local experiments.
package fakeregistry

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/server"
)

// Call is a request as received by the registry.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

type tenant struct {
	ext         map[string]any
	devices     map[string]*api.Device
	order       []string
	credentials map[string][]api.Credentials
	configs     map[string][]api.Config
	states      map[string][]api.State
	commands    map[string][]api.Command
}

func newTenant(ext map[string]any) *tenant {
	return &tenant{
		ext:         ext,
		devices:     make(map[string]*api.Device),
		credentials: make(map[string][]api.Credentials),
		configs:     make(map[string][]api.Config),
		states:      make(map[string][]api.State),
		commands:    make(map[string][]api.Command),
	}
}

type Registry struct {
	mu       sync.Mutex
	token    string
	tenants  map[string]*tenant
	order    []string
	calls    []Call
	failures map[string]int

	// Now returns the timestamp recorded as a device's creation time.
	Now func() time.Time
}

// New creates an empty registry. When token is not empty only requests
// bearing exactly that token are accepted, otherwise any bearer token is.
func New(token string) *Registry {
	return &Registry{
		token:    token,
		tenants:  make(map[string]*tenant),
		failures: make(map[string]int),
		Now:      time.Now,
	}
}

// Handler returns the echo server serving the registry API.
func (r *Registry) Handler() *echo.Echo {
	e := server.NewEchoServer()
	RegisterHandlers(e, r)
	return e
}

func (r *Registry) record(c Call) (status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.failures[c.Method+" "+c.Path]
}

// FailOn makes every request with the method and exact path respond with
// status until ClearFailures is called.
func (r *Registry) FailOn(method, path string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method+" "+path] = status
}

func (r *Registry) ClearFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = make(map[string]int)
}

// Calls returns the requests received so far in arrival order.
func (r *Registry) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallsTo returns the received requests with the method whose path starts
// with prefix.
func (r *Registry) CallsTo(method, prefix string) []Call {
	var ret []Call
	for _, c := range r.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			ret = append(ret, c)
		}
	}
	return ret
}

func (r *Registry) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// AddTenant creates a tenant, or replaces its extensions if it exists.
func (r *Registry) AddTenant(id string, messagingType api.MessagingType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext := map[string]any{api.ExtMessagingType: string(messagingType)}
	if t, ok := r.tenants[id]; ok {
		t.ext = ext
		return
	}
	r.tenants[id] = newTenant(ext)
	r.order = append(r.order, id)
}

// AddDevice stores a copy of the device, creating the tenant when needed.
func (r *Registry) AddDevice(tenantID string, device api.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		t = newTenant(map[string]any{})
		r.tenants[tenantID] = t
		r.order = append(r.order, tenantID)
	}
	r.putDevice(t, device)
}

func (r *Registry) AddState(tenantID, deviceID string, state api.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tenants[tenantID]; ok {
		t.states[deviceID] = append(t.states[deviceID], state)
	}
}

// Device returns a copy of the stored device.
func (r *Registry) Device(tenantID, deviceID string) (api.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return api.Device{}, false
	}
	d, ok := t.devices[deviceID]
	if !ok {
		return api.Device{}, false
	}
	return copyDevice(d), true
}

func (r *Registry) Credentials(tenantID, deviceID string) []api.Credentials {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tenants[tenantID]; ok {
		return slices.Clone(t.credentials[deviceID])
	}
	return nil
}

func (r *Registry) Commands(tenantID, deviceID string) []api.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tenants[tenantID]; ok {
		return slices.Clone(t.commands[deviceID])
	}
	return nil
}

func (r *Registry) putDevice(t *tenant, device api.Device) {
	if _, ok := t.devices[device.ID]; !ok {
		t.order = append(t.order, device.ID)
	}
	d := copyDevice(&device)
	if d.Status == nil {
		d.Status = map[string]any{"created": r.Now().UTC().Format(time.RFC3339)}
	}
	t.devices[device.ID] = &d
}

func (r *Registry) authorized(req *http.Request) bool {
	token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}
	return r.token == "" || token == r.token
}

func copyDevice(d *api.Device) api.Device {
	c := *d
	c.Via = slices.Clone(d.Via)
	if d.Status != nil {
		c.Status = make(map[string]any, len(d.Status))
		for k, v := range d.Status {
			c.Status[k] = v
		}
	}
	c.Checked = false
	return c
}
