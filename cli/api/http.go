// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	logctx "github.com/eclipse-hono/regctl/context"
)

// HttpError is returned for any non-2xx response from the registry.
type HttpError struct {
	Method    string
	Resource  string
	Status    int
	RequestID string
	Body      string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("API request %s %s (id=%s) failed with status %d: %s",
		e.Method, e.Resource, e.RequestID, e.Status, e.Body)
}

// Reason returns the "error" member of a JSON error body, or the raw body
// when it is not one.
func (e *HttpError) Reason() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil && body.Error != "" {
		return body.Error
	}
	return e.Body
}

// ErrorReason returns the registry's reason for a failed request, or the
// error text for failures that never reached the registry.
func ErrorReason(err error) string {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Reason()
	}
	return err.Error()
}

// IsNotFound reports whether err is an HttpError with status 404.
func IsNotFound(err error) bool {
	var httpErr *HttpError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

func (a Api) Get(ctx context.Context, resource string, result any) error {
	return a.do(ctx, http.MethodGet, resource, nil, result)
}

func (a Api) Post(ctx context.Context, resource string, body, result any) error {
	return a.do(ctx, http.MethodPost, resource, body, result)
}

func (a Api) Put(ctx context.Context, resource string, body, result any) error {
	return a.do(ctx, http.MethodPut, resource, body, result)
}

func (a Api) Delete(ctx context.Context, resource string) error {
	return a.do(ctx, http.MethodDelete, resource, nil, nil)
}

func (a Api) do(ctx context.Context, method, resource string, body, result any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.URL+resource, reader)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logctx.CtxGetLog(ctx)
	log.Debug("registry request", "method", method, "resource", resource)

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("API request %s %s failed: %w", method, resource, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("failed to close response body", "error", err)
		}
	}()

	rid := resp.Header.Get(HeaderRequestID)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		buf, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("API request %s %s failed with status %d and unreadable body", method, resource, resp.StatusCode)
		}
		return &HttpError{
			Method:    method,
			Resource:  resource,
			Status:    resp.StatusCode,
			RequestID: rid,
			Body:      string(bytes.TrimSpace(buf)),
		}
	}

	if result == nil {
		return nil
	}
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}
	if err := json.Unmarshal(buf, result); err != nil {
		return fmt.Errorf("failed to unmarshal response body (id=%s): %w", rid, err)
	}
	return nil
}
