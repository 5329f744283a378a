// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package api is the client of the device registry REST API.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/gommon/random"

	"github.com/eclipse-hono/regctl/cli/config"
	logctx "github.com/eclipse-hono/regctl/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	userAgent       = "regctl"

	// RequestTimeout bounds a single registry call including reading the
	// response body.
	RequestTimeout = 30 * time.Second
)

type Api struct {
	URL string

	Client *http.Client
}

func NewClient(appCtx config.Context) *Api {
	return NewClientWithTransport(appCtx, http.DefaultTransport)
}

// NewClientWithTransport is NewClient with a custom base transport, e.g. the
// transport of an httptest server.
func NewClientWithTransport(appCtx config.Context, base http.RoundTripper) *Api {
	return &Api{
		URL: strings.TrimSuffix(appCtx.URL, "/"),
		Client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: &bearerTransport{token: appCtx.Token, base: base},
		},
	}
}

// bearerTransport authenticates every request with the context's ID token
// and tags it with a request ID that the registry echoes back.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrip must not modify the request it was given
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "Bearer "+t.token)
	req2.Header.Set("Accept", "application/json")
	req2.Header.Set("User-Agent", userAgent)
	rid := req2.Header.Get(HeaderRequestID)
	if rid == "" {
		rid = random.String(12)
		req2.Header.Set(HeaderRequestID, rid)
	}

	log := logctx.CtxGetLog(req.Context()).With("req_id", rid, "method", req.Method, "url", req.URL.Path)
	start := time.Now()
	resp, err := t.base.RoundTrip(req2)
	if err != nil {
		log.Debug("registry call failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	log.Debug("registry call", "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}
