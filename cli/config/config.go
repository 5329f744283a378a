// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPageSize = 50
	configFileName  = "regctl.yaml"
	stateFileName   = "regctl-state.db"
)

// ErrNotFound is returned by LoadConfig when no configuration file exists.
var ErrNotFound = errors.New("config file not found")

type Config struct {
	ActiveContext string             `yaml:"active_context"`
	Contexts      map[string]Context `yaml:"contexts"`
}

// Context describes one registry server and the credentials used for it.
// Token holds the OIDC ID token sent as the bearer token. When the context
// was created by a Google login the refresh token and OAuth client are kept
// so the ID token can be renewed.
type Context struct {
	URL          string    `yaml:"url"`
	Token        string    `yaml:"token"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	ClientID     string    `yaml:"client_id,omitempty"`
	ClientSecret string    `yaml:"client_secret,omitempty"`
	Expiry       time.Time `yaml:"expiry,omitempty"`
	PageSize     int       `yaml:"page_size,omitempty"`
}

// Expired reports whether the stored ID token is known to be expired. Tokens
// without an expiry, like static tokens, never expire from the CLI's view.
func (c Context) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

func (c Context) CanRefresh() bool {
	return c.RefreshToken != "" && c.ClientID != ""
}

func (c Context) GetPageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

// LoadConfig loads the CLI configuration from the path. If the path is empty,
// it uses the default config path.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// GetContext retrieves the context by name. If name is empty, it returns the
// configured active context.
func (c *Config) GetContext(name string) (*Context, error) {
	if c.ActiveContext == "" && name == "" {
		return nil, fmt.Errorf("no default context set")
	} else if name == "" {
		name = c.ActiveContext
	}

	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context '%s' not found", name)
	}

	if ctx.URL == "" {
		return nil, fmt.Errorf("context '%s' has no URL configured", name)
	}

	if ctx.Token == "" {
		return nil, fmt.Errorf("context '%s' has no token configured", name)
	}

	return &ctx, nil
}

// ContextName resolves an empty name to the active context.
func (c *Config) ContextName(name string) string {
	if name == "" {
		return c.ActiveContext
	}
	return name
}

func (c *Config) SetContext(name string, ctx Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]Context)
	}
	c.Contexts[name] = ctx
}

func SaveConfig(configPath string, cfg *Config) error {
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// StatePath returns the view-state database that lives next to the config
// file.
func StatePath(configPath string) (string, error) {
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return "", fmt.Errorf("failed to get config path: %w", err)
		}
	}
	return filepath.Join(filepath.Dir(configPath), stateFileName), nil
}

func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", configFileName), nil
}
