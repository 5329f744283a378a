// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package fakeregistry

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/server"
)

type handlers struct {
	r *Registry
}

var EchoError = server.EchoError

const defaultPageSize = 30

func RegisterHandlers(e *echo.Echo, r *Registry) {
	h := handlers{r: r}
	e.Use(h.recordCall, h.requireToken)

	g := e.Group("/v1")
	g.GET("/tenants", h.tenantList)
	g.GET("/tenants/", h.tenantList)
	g.GET("/tenants/:tenant", h.tenantGet)
	g.POST("/tenants/:tenant", h.tenantCreate)
	g.PUT("/tenants/:tenant", h.tenantUpdate)
	g.DELETE("/tenants/:tenant", h.tenantDelete)

	g.GET("/devices/:tenant", h.deviceList)
	g.GET("/devices/:tenant/", h.deviceList)
	g.GET("/devices/:tenant/:device", h.deviceGet)
	g.POST("/devices/:tenant/:device", h.deviceCreate)
	g.PUT("/devices/:tenant/:device", h.deviceUpdate)
	g.DELETE("/devices/:tenant/:device", h.deviceDelete)

	g.GET("/credentials/:tenant/:device", h.credentialsGet)
	g.PUT("/credentials/:tenant/:device", h.credentialsPut)
	g.GET("/configs/:tenant/:device", h.configsGet)
	g.POST("/configs/:tenant/:device", h.configsPost)
	g.GET("/states/:tenant/:device", h.statesGet)
	g.POST("/commands/:tenant/:device", h.commandsPost)
}

func (h handlers) recordCall(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			var err error
			if body, err = io.ReadAll(req.Body); err != nil {
				return EchoError(c, err, http.StatusBadRequest, "unable to read request body")
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		call := Call{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Body:   string(body),
		}
		if status := h.r.record(call); status != 0 {
			return EchoError(c, nil, status, "injected failure")
		}
		return next(c)
	}
}

func (h handlers) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.r.authorized(c.Request()) {
			return EchoError(c, nil, http.StatusUnauthorized, "missing or invalid bearer token")
		}
		return next(c)
	}
}

// httpError logs err and returns an error the server's error handler renders
// as {"error": msg}. Helpers use it so the calling handler stops.
func httpError(c echo.Context, err error, status int, msg string) error {
	if err != nil {
		logctx.CtxGetLog(c.Request().Context()).Warn(msg, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

// tenantOf must be called with the registry lock held.
func (h handlers) tenantOf(c echo.Context) (*tenant, error) {
	t, ok := h.r.tenants[c.Param("tenant")]
	if !ok {
		return nil, httpError(c, nil, http.StatusNotFound, "tenant not found")
	}
	return t, nil
}

// deviceOf must be called with the registry lock held.
func (h handlers) deviceOf(c echo.Context) (*tenant, *api.Device, error) {
	t, err := h.tenantOf(c)
	if err != nil {
		return nil, nil, err
	}
	d, ok := t.devices[c.Param("device")]
	if !ok {
		return nil, nil, httpError(c, nil, http.StatusNotFound, "device not found")
	}
	return t, d, nil
}

func paging(c echo.Context) (size, offset int, err error) {
	size, offset = defaultPageSize, 0
	if v := c.QueryParam("pageSize"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size < 0 {
			return 0, 0, httpError(c, err, http.StatusBadRequest, "invalid pageSize")
		}
	}
	if v := c.QueryParam("pageOffset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, httpError(c, err, http.StatusBadRequest, "invalid pageOffset")
		}
	}
	return
}

func page[T any](items []T, size, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+size, len(items))
	return items[offset:end]
}

func (h handlers) tenantList(c echo.Context) error {
	size, offset, err := paging(c)
	if err != nil {
		return err
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	all := make([]*api.Tenant, 0, len(h.r.order))
	for _, id := range h.r.order {
		all = append(all, &api.Tenant{ID: id, Ext: h.r.tenants[id].ext})
	}
	return c.JSON(http.StatusOK, api.TenantList{Total: len(all), Result: page(all, size, offset)})
}

func (h handlers) tenantGet(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, err := h.tenantOf(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.Tenant{Ext: t.ext})
}

func bindTenant(c echo.Context) (map[string]any, error) {
	var body struct {
		Ext map[string]any `json:"ext"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, httpError(c, err, http.StatusBadRequest, "malformed tenant")
	}
	if body.Ext == nil {
		body.Ext = map[string]any{}
	}
	if mt, ok := body.Ext[api.ExtMessagingType].(string); ok {
		if !slices.Contains(api.MessagingTypes, api.MessagingType(mt)) {
			return nil, httpError(c, nil, http.StatusBadRequest, "unsupported messaging type")
		}
	}
	return body.Ext, nil
}

func (h handlers) tenantCreate(c echo.Context) error {
	ext, err := bindTenant(c)
	if err != nil {
		return err
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	id := c.Param("tenant")
	if _, ok := h.r.tenants[id]; ok {
		return EchoError(c, nil, http.StatusConflict, "tenant already exists")
	}
	h.r.tenants[id] = newTenant(ext)
	h.r.order = append(h.r.order, id)
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h handlers) tenantUpdate(c echo.Context) error {
	ext, err := bindTenant(c)
	if err != nil {
		return err
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, err := h.tenantOf(c)
	if err != nil {
		return err
	}
	t.ext = ext
	return c.NoContent(http.StatusNoContent)
}

func (h handlers) tenantDelete(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	if _, err := h.tenantOf(c); err != nil {
		return err
	}
	id := c.Param("tenant")
	delete(h.r.tenants, id)
	h.r.order = slices.DeleteFunc(h.r.order, func(t string) bool { return t == id })
	return c.NoContent(http.StatusNoContent)
}

func (h handlers) deviceList(c echo.Context) error {
	size, offset, err := paging(c)
	if err != nil {
		return err
	}
	var filters []filter
	for _, raw := range c.QueryParams()["filterJson"] {
		f, err := parseFilters(raw)
		if err != nil {
			return EchoError(c, err, http.StatusBadRequest, "invalid filterJson")
		}
		filters = append(filters, f...)
	}

	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, err := h.tenantOf(c)
	if err != nil {
		return err
	}

	gateways := make(map[string]bool)
	for _, d := range t.devices {
		for _, gw := range d.Via {
			gateways[gw] = true
		}
	}

	isGateway := c.QueryParam("isGateway")
	var matched []*api.Device
	for _, id := range t.order {
		d := t.devices[id]
		switch isGateway {
		case "true":
			if !gateways[id] {
				continue
			}
		case "false":
			if gateways[id] {
				continue
			}
		}
		if !matchesAll(d, filters) {
			continue
		}
		cp := copyDevice(d)
		matched = append(matched, &cp)
	}
	if matched == nil {
		matched = []*api.Device{}
	}
	return c.JSON(http.StatusOK, api.DeviceList{Total: len(matched), Result: page(matched, size, offset)})
}

func (h handlers) deviceGet(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	_, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	cp := copyDevice(d)
	cp.ID = ""
	return c.JSON(http.StatusOK, cp)
}

// bindDevice decodes a create or update body. Fields absent from the body
// are reported as nil so an update can leave them untouched.
func bindDevice(c echo.Context) (via *[]string, enabled *bool, err error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, httpError(c, err, http.StatusBadRequest, "malformed device")
	}
	if raw, ok := body["via"]; ok {
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, nil, httpError(c, err, http.StatusBadRequest, "via must be a list of device ids")
		}
		via = &v
	}
	if raw, ok := body["enabled"]; ok {
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, nil, httpError(c, err, http.StatusBadRequest, "enabled must be a boolean")
		}
		enabled = &v
	}
	return via, enabled, nil
}

func (h handlers) deviceCreate(c echo.Context) error {
	via, enabled, err := bindDevice(c)
	if err != nil {
		return err
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, err := h.tenantOf(c)
	if err != nil {
		return err
	}
	id := c.Param("device")
	if _, ok := t.devices[id]; ok {
		return EchoError(c, nil, http.StatusConflict, "device already exists")
	}
	device := api.Device{ID: id, Enabled: enabled}
	if via != nil && len(*via) > 0 {
		device.Via = *via
	}
	h.r.putDevice(t, device)
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h handlers) deviceUpdate(c echo.Context) error {
	via, enabled, err := bindDevice(c)
	if err != nil {
		return err
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	_, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	if via != nil {
		d.Via = slices.Clone(*via)
		if len(d.Via) == 0 {
			d.Via = nil
		}
	}
	if enabled != nil {
		d.Enabled = enabled
	}
	return c.NoContent(http.StatusNoContent)
}

func (h handlers) deviceDelete(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	delete(t.devices, d.ID)
	delete(t.credentials, d.ID)
	delete(t.configs, d.ID)
	delete(t.states, d.ID)
	delete(t.commands, d.ID)
	t.order = slices.DeleteFunc(t.order, func(id string) bool { return id == d.ID })
	return c.NoContent(http.StatusNoContent)
}

func (h handlers) credentialsGet(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	creds := t.credentials[d.ID]
	if creds == nil {
		creds = []api.Credentials{}
	}
	return c.JSON(http.StatusOK, creds)
}

func (h handlers) credentialsPut(c echo.Context) error {
	var creds []api.Credentials
	if err := json.NewDecoder(c.Request().Body).Decode(&creds); err != nil {
		return EchoError(c, err, http.StatusBadRequest, "malformed credentials")
	}
	for _, cred := range creds {
		if cred.Type == "" || cred.AuthID == "" {
			return EchoError(c, nil, http.StatusBadRequest, "credentials require type and auth-id")
		}
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	t.credentials[d.ID] = creds
	return c.NoContent(http.StatusNoContent)
}

func (h handlers) configsGet(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	configs := slices.Clone(t.configs[d.ID])
	slices.Reverse(configs)
	if configs == nil {
		configs = []api.Config{}
	}
	return c.JSON(http.StatusOK, api.ConfigList{DeviceConfigs: configs})
}

func (h handlers) configsPost(c echo.Context) error {
	var req api.ConfigRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return EchoError(c, err, http.StatusBadRequest, "malformed config")
	}
	if _, err := base64.StdEncoding.DecodeString(req.BinaryData); err != nil || req.BinaryData == "" {
		return EchoError(c, err, http.StatusBadRequest, "binaryData must be base64 encoded")
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	current := strconv.Itoa(len(t.configs[d.ID]))
	if req.VersionToUpdate != "" && req.VersionToUpdate != current {
		return EchoError(c, nil, http.StatusConflict, "config version mismatch")
	}
	cfg := api.Config{
		Version:         strconv.Itoa(len(t.configs[d.ID]) + 1),
		CloudUpdateTime: h.r.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		BinaryData:      req.BinaryData,
	}
	t.configs[d.ID] = append(t.configs[d.ID], cfg)
	return c.JSON(http.StatusOK, cfg)
}

func (h handlers) statesGet(c echo.Context) error {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	states := slices.Clone(t.states[d.ID])
	if states == nil {
		states = []api.State{}
	}
	return c.JSON(http.StatusOK, api.StateList{DeviceStates: states})
}

func (h handlers) commandsPost(c echo.Context) error {
	var cmd api.Command
	if err := json.NewDecoder(c.Request().Body).Decode(&cmd); err != nil {
		return EchoError(c, err, http.StatusBadRequest, "malformed command")
	}
	if _, err := base64.StdEncoding.DecodeString(cmd.BinaryData); err != nil || cmd.BinaryData == "" {
		return EchoError(c, err, http.StatusBadRequest, "binaryData must be base64 encoded")
	}
	if cmd.ResponseRequired != nil && *cmd.ResponseRequired && cmd.CorrelationID == nil {
		return EchoError(c, nil, http.StatusBadRequest, "correlation-id is required when a response is required")
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	t, d, err := h.deviceOf(c)
	if err != nil {
		return err
	}
	t.commands[d.ID] = append(t.commands[d.ID], cmd)
	return c.NoContent(http.StatusOK)
}

