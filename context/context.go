// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package context

import (
	"context"
	"log/slog"
)

type (
	Context    = context.Context
	CancelFunc = context.CancelFunc
	ctxKey     int
)

var (
	Background  = context.Background
	WithCancel  = context.WithCancel
	WithTimeout = context.WithTimeout
	WithValue   = context.WithValue

	Canceled = context.Canceled
)

const (
	ctxKeyLogger ctxKey = iota
)

// CtxGetLog returns the logger stored in ctx. Contexts created outside of
// the CLI (for example by httptest servers) fall back to the default logger.
func CtxGetLog(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

func CtxWithLog(ctx Context, log *slog.Logger) Context {
	return WithValue(ctx, ctxKeyLogger, log)
}
