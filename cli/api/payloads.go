// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package api

import (
	"context"
	"net/url"
)

func deviceScoped(kind, tenantID, deviceID string) string {
	return "/v1/" + kind + "/" + url.PathEscape(tenantID) + "/" + url.PathEscape(deviceID)
}

type CredentialsApi struct {
	api *Api
}

func (a *Api) Credentials() CredentialsApi {
	return CredentialsApi{api: a}
}

func (c CredentialsApi) List(ctx context.Context, deviceID, tenantID string) ([]Credentials, error) {
	var creds []Credentials
	return creds, c.api.Get(ctx, deviceScoped("credentials", tenantID, deviceID), &creds)
}

// Save replaces the complete credentials set of the device.
func (c CredentialsApi) Save(ctx context.Context, deviceID, tenantID string, creds []Credentials) error {
	if creds == nil {
		creds = []Credentials{}
	}
	return c.api.Put(ctx, deviceScoped("credentials", tenantID, deviceID), creds, nil)
}

type ConfigsApi struct {
	api *Api
}

func (a *Api) Configs() ConfigsApi {
	return ConfigsApi{api: a}
}

func (c ConfigsApi) List(ctx context.Context, deviceID, tenantID string) ([]Config, error) {
	var list ConfigList
	return list.DeviceConfigs, c.api.Get(ctx, deviceScoped("configs", tenantID, deviceID), &list)
}

func (c ConfigsApi) Update(ctx context.Context, deviceID, tenantID string, req ConfigRequest) (*Config, error) {
	var cfg Config
	if err := c.api.Post(ctx, deviceScoped("configs", tenantID, deviceID), req, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type StatesApi struct {
	api *Api
}

func (a *Api) States() StatesApi {
	return StatesApi{api: a}
}

func (s StatesApi) List(ctx context.Context, deviceID, tenantID string) ([]State, error) {
	var list StateList
	return list.DeviceStates, s.api.Get(ctx, deviceScoped("states", tenantID, deviceID), &list)
}

type CommandsApi struct {
	api *Api
}

func (a *Api) Commands() CommandsApi {
	return CommandsApi{api: a}
}

func (c CommandsApi) Send(ctx context.Context, deviceID, tenantID string, cmd Command) error {
	return c.api.Post(ctx, deviceScoped("commands", tenantID, deviceID), cmd, nil)
}
