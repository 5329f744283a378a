// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-hono/regctl/context"
)

func TestLoopbackServer(t *testing.T) {
	e := NewEchoServer()
	e.GET("/fail", func(c echo.Context) error {
		return EchoError(c, errors.New("boom"), http.StatusConflict, "device exists")
	})
	e.GET("/internal", func(c echo.Context) error {
		return errors.New("internal detail")
	})
	srv, err := NewLoopbackServer(context.Background(), e, "test")
	require.Nil(t, err)
	require.NotEmpty(t, srv.GetAddress())
	quit := make(chan error, 1)
	srv.Start(quit)
	defer srv.Shutdown(time.Second)

	get := func(path string) (int, string, string) {
		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s%s", srv.GetAddress(), path), nil)
		require.Nil(t, err)
		req.Header.Set(echo.HeaderXRequestID, "rid-1")
		r, err := http.DefaultClient.Do(req)
		require.Nil(t, err)
		defer r.Body.Close()
		var body map[string]string
		require.Nil(t, json.NewDecoder(r.Body).Decode(&body))
		return r.StatusCode, body["error"], r.Header.Get(echo.HeaderXRequestID)
	}

	status, msg, rid := get("/fail")
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "device exists", msg)
	require.Equal(t, "rid-1", rid)

	status, msg, _ = get("/doesnotexist")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Not Found", msg)

	status, msg, _ = get("/internal")
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "Internal Server Error", msg)
}
