// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package context

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

var levelMap = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// InitLogger creates a JSON logger writing to stdout.
func InitLogger(level string) (*slog.Logger, error) {
	return InitLoggerTo(os.Stdout, level)
}

// InitLoggerTo creates a JSON logger writing to w. The CLI logs to stderr so
// that command output on stdout stays clean.
func InitLoggerTo(w io.Writer, level string) (*slog.Logger, error) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "info"
		}
	}
	logLevel, ok := levelMap[level]
	if !ok {
		var valid []string
		for k := range levelMap {
			valid = append(valid, k)
		}
		sort.Strings(valid)
		return nil, fmt.Errorf("invalid log level: %s; supported: %s", level, strings.Join(valid, ", "))
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
	// This sets a default global logger for both slog and legacy log packages.
	slog.SetDefault(logger)
	return logger, nil
}
