// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

type DevicesApi struct {
	api *Api
}

func (a *Api) Devices() DevicesApi {
	return DevicesApi{api: a}
}

// deviceBody is the create/update representation. Only via and enabled are
// sent: the registry merges a partial body into the stored device.
type deviceBody struct {
	Via     []string `json:"via"`
	Enabled *bool    `json:"enabled,omitempty"`
}

type deviceFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func deviceResource(tenantID, deviceID string) string {
	return "/v1/devices/" + url.PathEscape(tenantID) + "/" + url.PathEscape(deviceID)
}

func listResource(tenantID string, size, offset int, extra url.Values) string {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(size))
	q.Set("pageOffset", strconv.Itoa(offset))
	for k, v := range extra {
		q[k] = v
	}
	return "/v1/devices/" + url.PathEscape(tenantID) + "/?" + q.Encode()
}

func newDeviceBody(device *Device) deviceBody {
	body := deviceBody{Via: device.Via, Enabled: device.Enabled}
	if body.Via == nil {
		body.Via = []string{}
	}
	return body
}

// ListByTenant returns a page of devices. With onlyGateways the registry
// filters the page down to gateways.
func (d DevicesApi) ListByTenant(ctx context.Context, tenantID string, size, offset int, onlyGateways bool) (DeviceList, error) {
	var list DeviceList
	resource := listResource(tenantID, size, offset, url.Values{"isGateway": {strconv.FormatBool(onlyGateways)}})
	return list, d.api.Get(ctx, resource, &list)
}

// ListAll returns an unfiltered page of devices.
func (d DevicesApi) ListAll(ctx context.Context, tenantID string, size, offset int) (DeviceList, error) {
	var list DeviceList
	return list, d.api.Get(ctx, listResource(tenantID, size, offset, nil), &list)
}

// BoundDevicesFilter is the filterJson value matching devices bound to
// gatewayID. The registry matches it as a wildcard against the serialized
// via array, so a gateway ID that is a quoted substring of another ID would
// also match.
func BoundDevicesFilter(gatewayID string) (string, error) {
	filter, err := json.Marshal(deviceFilter{Field: "/via", Value: `*"` + gatewayID + `"*`})
	if err != nil {
		return "", fmt.Errorf("failed to marshal bound devices filter: %w", err)
	}
	return string(filter), nil
}

// ListBoundDevices returns a page of devices whose via list names gatewayID.
func (d DevicesApi) ListBoundDevices(ctx context.Context, tenantID, gatewayID string, size, offset int) (DeviceList, error) {
	var list DeviceList
	filter, err := BoundDevicesFilter(gatewayID)
	if err != nil {
		return list, err
	}
	return list, d.api.Get(ctx, listResource(tenantID, size, offset, url.Values{"filterJson": {filter}}), &list)
}

// GetByExactID fetches a single device. The registry does not echo the ID
// back in the body so it is filled in from the request.
func (d DevicesApi) GetByExactID(ctx context.Context, tenantID, deviceID string) (*Device, error) {
	var device Device
	if err := d.api.Get(ctx, deviceResource(tenantID, deviceID), &device); err != nil {
		return nil, err
	}
	device.ID = deviceID
	return &device, nil
}

func (d DevicesApi) Create(ctx context.Context, device *Device, tenantID string) error {
	return d.api.Post(ctx, deviceResource(tenantID, device.ID), newDeviceBody(device), nil)
}

func (d DevicesApi) Update(ctx context.Context, device *Device, tenantID string) error {
	return d.api.Put(ctx, deviceResource(tenantID, device.ID), newDeviceBody(device), nil)
}

// Delete removes the device. Devices that name it in their via list are not
// touched.
func (d DevicesApi) Delete(ctx context.Context, device *Device, tenantID string) error {
	return d.api.Delete(ctx, deviceResource(tenantID, device.ID))
}
