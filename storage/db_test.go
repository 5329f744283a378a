// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "regctl.db")
	db, err := NewDb(dbFile)
	require.Nil(t, err)
	version, err := db.SchemaVersion()
	require.Nil(t, err)
	require.Equal(t, len(migrations), version)
	_, err = db.db.Exec("INSERT INTO view_state (key, value) VALUES ('k', 'v')")
	require.Nil(t, err)
	require.Nil(t, db.Close())

	// reopening keeps the data and applies nothing twice
	db, err = NewDb(dbFile)
	require.Nil(t, err)
	var value string
	require.Nil(t, db.db.QueryRow("SELECT value FROM view_state WHERE key = 'k'").Scan(&value))
	require.Equal(t, "v", value)

	_, err = db.db.Exec("PRAGMA user_version = 99")
	require.Nil(t, err)
	require.Nil(t, db.Close())
	_, err = NewDb(dbFile)
	require.ErrorContains(t, err, "newer than this regctl supports")
}
