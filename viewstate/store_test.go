// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package viewstate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.Nil(t, s.Set(KeyActiveTab, TabGateways))
	v, err := s.Get(KeyActiveTab)
	require.Nil(t, err)
	require.Equal(t, TabGateways, v)

	require.Nil(t, s.Set(KeyActiveTab, TabDevices))
	v, err = s.Get(KeyActiveTab)
	require.Nil(t, err)
	require.Equal(t, TabDevices, v)

	key := IsGatewayKey("gw1")
	require.Equal(t, "isGateway_gw1", key)
	_, found, err := GetBool(s, key)
	require.Nil(t, err)
	require.False(t, found)

	require.Nil(t, SetBool(s, key, true))
	value, found, err := GetBool(s, key)
	require.Nil(t, err)
	require.True(t, found)
	require.True(t, value)

	require.Nil(t, s.Remove(key))
	require.Nil(t, s.Remove(key))
	_, found, err = GetBool(s, key)
	require.Nil(t, err)
	require.False(t, found)

	require.Nil(t, s.Set("bogus", "maybe"))
	_, _, err = GetBool(s, "bogus")
	require.NotNil(t, err)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(0))
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	require.Nil(t, s.Set("k", "v"))
	require.Eventually(t, func() bool {
		_, err := s.Get("k")
		return err == ErrNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestSqliteStore(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSqliteStore(dbFile)
	require.Nil(t, err)
	testStore(t, s)

	require.Nil(t, s.Set("persisted", "yes"))
	require.Nil(t, s.Close())

	s, err = OpenSqliteStore(dbFile)
	require.Nil(t, err)
	defer func() { require.Nil(t, s.Close()) }()
	v, err := s.Get("persisted")
	require.Nil(t, err)
	require.Equal(t, "yes", v)
}

func TestCtxStore(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, CtxGetStore(ctx))

	s := NewMemoryStore(0)
	require.Nil(t, s.Set("k", "v"))
	ctx = CtxWithStore(ctx, s)
	v, err := CtxGetStore(ctx).Get("k")
	require.Nil(t, err)
	require.Equal(t, "v", v)
}

func TestSqliteStorePrune(t *testing.T) {
	s, err := OpenSqliteStore(filepath.Join(t.TempDir(), "state.db"))
	require.Nil(t, err)
	defer func() { require.Nil(t, s.Close()) }()

	require.Nil(t, s.Set("old", "1"))
	require.Nil(t, s.Prune(time.Now().Add(-time.Hour)))
	_, err = s.Get("old")
	require.Nil(t, err)

	require.Nil(t, s.Prune(time.Now().Add(time.Hour)))
	_, err = s.Get("old")
	require.ErrorIs(t, err, ErrNotFound)
}
