// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package context

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitLoggerTo(&buf, "warning")
	require.Nil(t, err)

	log.Info("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown", "device", "d1")
	var entry map[string]any
	require.Nil(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "shown", entry["msg"])
	require.Equal(t, "d1", entry["device"])

	_, err = InitLoggerTo(&buf, "verbose")
	require.ErrorContains(t, err, "debug, error, info, warning")
}

func TestCtxLog(t *testing.T) {
	require.NotNil(t, CtxGetLog(Background()))

	var buf bytes.Buffer
	log, err := InitLoggerTo(&buf, "debug")
	require.Nil(t, err)
	ctx := CtxWithLog(Background(), log.With("tenant", "t1"))
	CtxGetLog(ctx).Debug("hello")
	require.Contains(t, buf.String(), `"tenant":"t1"`)
}
