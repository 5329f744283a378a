// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"context"
	"encoding/base64"
	"strconv"

	"github.com/eclipse-hono/regctl/cli/api"
	logctx "github.com/eclipse-hono/regctl/context"
)

// PayloadFormat is how a payload was entered. Text is base64 encoded
// before it is sent, Base64 is sent as it is.
type PayloadFormat string

const (
	FormatText   PayloadFormat = "text"
	FormatBase64 PayloadFormat = "base64"
)

func encodePayload(data string, format PayloadFormat) string {
	if format == FormatText {
		return base64.StdEncoding.EncodeToString([]byte(data))
	}
	return data
}

// ConfigForm sends a new configuration version to a device.
type ConfigForm struct {
	s *Services

	TenantID string
	DeviceID string
	Data     string
	Format   PayloadFormat
	// VersionToUpdate guards against concurrent config updates when set.
	VersionToUpdate string
}

func NewConfigForm(s *Services, tenantID, deviceID string) *ConfigForm {
	return &ConfigForm{s: s, TenantID: tenantID, DeviceID: deviceID, Format: FormatText}
}

func (f *ConfigForm) IsInvalid() bool {
	return f.Data == ""
}

// Confirm sends the configuration. A failure is toasted with the reason the
// registry gave.
func (f *ConfigForm) Confirm(ctx context.Context) (*api.Config, error) {
	if f.IsInvalid() {
		return nil, ErrInvalid
	}
	req := api.ConfigRequest{
		VersionToUpdate: f.VersionToUpdate,
		BinaryData:      encodePayload(f.Data, f.Format),
	}
	cfg, err := f.s.Configs.Update(ctx, f.DeviceID, f.TenantID, req)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to update config", "tenant", f.TenantID, "device", f.DeviceID, "error", err)
		f.s.Notify.Error("Could not update config for device " + f.DeviceID + ". Reason: " + api.ErrorReason(err))
		return nil, err
	}
	return cfg, nil
}

// CommandForm sends a one-way or request-response command to a device.
type CommandForm struct {
	s *Services

	TenantID string
	DeviceID string
	Data     string
	Format   PayloadFormat

	Subfolder        string
	ResponseRequired bool
	// WithCorrelationID sends CorrelationID, only with ResponseRequired.
	WithCorrelationID bool
	CorrelationID     int
}

func NewCommandForm(s *Services, tenantID, deviceID string) *CommandForm {
	return &CommandForm{s: s, TenantID: tenantID, DeviceID: deviceID, Format: FormatText}
}

func (f *CommandForm) IsInvalid() bool {
	return f.Data == "" || f.DeviceID == "" || f.TenantID == ""
}

// Command builds the request body.
func (f *CommandForm) Command() api.Command {
	cmd := api.Command{
		BinaryData: encodePayload(f.Data, f.Format),
		Subfolder:  f.Subfolder,
	}
	if f.ResponseRequired {
		required := true
		cmd.ResponseRequired = &required
		if f.WithCorrelationID {
			id := f.CorrelationID
			cmd.CorrelationID = &id
		}
	}
	return cmd
}

func (f *CommandForm) Confirm(ctx context.Context) error {
	if f.IsInvalid() {
		return ErrInvalid
	}
	if err := f.s.Commands.Send(ctx, f.DeviceID, f.TenantID, f.Command()); err != nil {
		logctx.CtxGetLog(ctx).Error("unable to send command", "tenant", f.TenantID, "device", f.DeviceID, "error", err)
		f.s.Notify.Error("Could not send command to device " + f.DeviceID + ". Reason: " + api.ErrorReason(err))
		return err
	}
	return nil
}

// DecodePayload returns the text of a base64 payload when it decodes to
// printable text and the raw value otherwise.
func DecodePayload(data string) string {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return data
	}
	s := string(raw)
	for _, r := range s {
		if !strconv.IsPrint(r) && r != '\n' && r != '\t' {
			return data
		}
	}
	return s
}

// States lists the states a device reported, newest first.
func States(ctx context.Context, s *Services, tenantID, deviceID string) ([]api.State, error) {
	states, err := s.States.List(ctx, deviceID, tenantID)
	if err != nil {
		logctx.CtxGetLog(ctx).Error("unable to list states", "tenant", tenantID, "device", deviceID, "error", err)
		return nil, err
	}
	return states, nil
}
