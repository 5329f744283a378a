// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/eclipse-hono/regctl/context"
)

// NewEchoServer returns an echo instance that logs every request with a
// request scoped logger and reports every error as {"error": "<msg>"}, the
// shape the registry uses.
func NewEchoServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler
	e.Use(contextLogger(), requestLogger())
	return e
}

// EchoError logs err with the request logger and responds with msg.
func EchoError(c echo.Context, err error, status int, msg string) error {
	if err != nil {
		context.CtxGetLog(c.Request().Context()).Warn(msg, "status", status, "error", err)
	}
	return c.JSON(status, map[string]string{"error": msg})
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]string{"error": msg})
	}
	if err != nil {
		context.CtxGetLog(c.Request().Context()).Error("unable to send error response", "error", err)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError:      true,
		LogContentLength: true,
		LogError:         true,
		LogMethod:        true,
		LogStatus:        true,
		LogLatency:       true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log := context.CtxGetLog(c.Request().Context())
			args := []any{"method", v.Method, "status", v.Status, "latency", v.Latency}
			switch {
			case v.Status >= http.StatusInternalServerError:
				if v.Error != nil {
					args = append(args, "err", v.Error.Error())
				}
				log.Error("response", args...)
			case v.Error != nil:
				log.Warn("response", append(args, "err", v.Error.Error())...)
			default:
				log.Debug("response", append(args, "content-length", v.ContentLength)...)
			}
			return nil
		},
	})
}

// contextLogger tags the request logger with the X-Request-ID the client
// sent, or a new one that is echoed back.
func contextLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = random.String(12)
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			log := context.CtxGetLog(req.Context()).With("req_id", rid, "method", req.Method, "uri", req.RequestURI)
			c.SetRequest(req.WithContext(context.CtxWithLog(req.Context(), log)))
			return next(c)
		}
	}
}
