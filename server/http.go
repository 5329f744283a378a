// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package server runs the echo based HTTP servers of regctl: the local fake
// registry and the loopback server receiving OAuth callbacks.
package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"

	"github.com/eclipse-hono/regctl/context"
)

type Server struct {
	context context.Context
	name    string
	echo    *echo.Echo
	server  *http.Server
}

// NewServer binds echo to addr when started, e.g. ":28080".
func NewServer(ctx context.Context, echo *echo.Echo, name string, addr string) Server {
	log := context.CtxGetLog(ctx).With("server", name)
	ctx = context.CtxWithLog(ctx, log)
	srv := &http.Server{
		Addr:              addr,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ConnContext:       adjustConnContext,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return Server{context: ctx, name: name, echo: echo, server: srv}
}

// NewLoopbackServer binds an ephemeral port on 127.0.0.1 right away, so
// GetAddress is known before Start. Routes must be added before Start.
func NewLoopbackServer(ctx context.Context, echo *echo.Echo, name string) (Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return Server{}, fmt.Errorf("unable to listen for %s: %w", name, err)
	}
	echo.Listener = ln
	return NewServer(ctx, echo, name, ln.Addr().String()), nil
}

func (s Server) Start(quit chan error) {
	log := context.CtxGetLog(s.context)
	go func() {
		if err := s.echo.StartServer(s.server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			quit <- fmt.Errorf("failed to start server %s: %w", s.name, err)
		}
	}()
	if s.echo.Listener != nil {
		log.Debug("server started", "addr", s.GetAddress())
		return
	}
	go func() {
		// Echo locks a mutex immediately at the Start call, and releases after port binding is done.
		time.Sleep(time.Millisecond * 2)
		if addr := s.GetAddress(); addr != "" {
			log.Info("server started", "addr", addr)
		}
	}()
}

func (s Server) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(s.context, timeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		context.CtxGetLog(s.context).Error("error stopping server", "error", err)
	}
}

// GetAddress returns the bound host:port, or "" when the server failed to
// start.
func (s Server) GetAddress() string {
	if s.echo.Listener != nil {
		return s.echo.Listener.Addr().String()
	}
	// ListenerAddr waits for the server to start before returning
	if addr := s.echo.ListenerAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func adjustConnContext(ctx context.Context, conn net.Conn) context.Context {
	log := context.CtxGetLog(ctx).With("conn_id", random.String(10), "remote", conn.RemoteAddr().String())
	return context.CtxWithLog(ctx, log)
}
