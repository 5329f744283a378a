// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package viewstate remembers small pieces of UI state between commands,
// such as whether a device was last viewed as a gateway.
package viewstate

import (
	"context"
	"errors"
	"strconv"
)

var ErrNotFound = errors.New("view state key not found")

const (
	// KeyActiveTab holds the last active list: TabDevices or TabGateways.
	KeyActiveTab = "activeTab"

	TabDevices  = "devices"
	TabGateways = "gateways"
)

// Store is a string key value store. Get returns ErrNotFound for unknown
// keys and Remove of an unknown key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// IsGatewayKey is the key remembering how a device detail was opened.
func IsGatewayKey(deviceID string) string {
	return "isGateway_" + deviceID
}

// GetBool reads a key written by SetBool. found is false when the key is
// absent.
func GetBool(s Store, key string) (value, found bool, err error) {
	raw, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, false, nil
	} else if err != nil {
		return false, false, err
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, err
	}
	return value, true, nil
}

func SetBool(s Store, key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

type ctxKey int

const storeKey ctxKey = iota

func CtxWithStore(ctx context.Context, s Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// CtxGetStore returns the store of ctx or a fresh memory store.
func CtxGetStore(ctx context.Context) Store {
	if s, ok := ctx.Value(storeKey).(Store); ok {
		return s
	}
	return NewMemoryStore(0)
}
