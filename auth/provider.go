// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package auth obtains and renews the bearer token regctl sends to the
// registry.
package auth

import (
	"fmt"
	"io"
	"time"

	"github.com/eclipse-hono/regctl/cli/config"
	"github.com/eclipse-hono/regctl/context"
)

// Tokens is the outcome of a login or a refresh. IDToken is what the
// registry expects as bearer token.
type Tokens struct {
	IDToken      string
	RefreshToken string
	Expiry       time.Time
	Email        string
}

// Apply stores the tokens in a config context.
func (t Tokens) Apply(appCtx *config.Context) {
	appCtx.Token = t.IDToken
	if t.RefreshToken != "" {
		appCtx.RefreshToken = t.RefreshToken
	}
	appCtx.Expiry = t.Expiry
}

type LoginOptions struct {
	// Token is a pre-issued bearer token, used by the token provider.
	Token string

	ClientID       string
	ClientSecret   string
	AllowedDomains []string

	// Out receives the authorization URL the user has to open.
	Out io.Writer
	// OpenURL, when set, is called with the authorization URL, e.g. to
	// launch a browser.
	OpenURL func(string) error
}

// Provider defines how a CLI context gets its bearer token.
type Provider interface {
	Name() string

	Login(ctx context.Context, opts LoginOptions) (*Tokens, error)

	// Refresh renews the token of appCtx. Providers that cannot refresh
	// return an error.
	Refresh(ctx context.Context, appCtx config.Context) (*Tokens, error)
}

const AuthCallbackPath = "/auth/callback"

var providers map[string]Provider

func GetProvider(name string) (Provider, error) {
	if provider, ok := providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("no provider found with type `%s`", name)
}

func RegisterProvider(provider Provider) {
	if providers == nil {
		providers = make(map[string]Provider)
	}
	providers[provider.Name()] = provider
}

// RefreshIfExpired renews an expired token of appCtx in place with the
// google provider. It reports whether appCtx changed.
func RefreshIfExpired(ctx context.Context, appCtx *config.Context, now time.Time) (bool, error) {
	if !appCtx.Expired(now) {
		return false, nil
	}
	if !appCtx.CanRefresh() {
		return false, fmt.Errorf("token expired at %s, please login again", appCtx.Expiry.Format(time.RFC3339))
	}
	provider, err := GetProvider(ProviderGoogle)
	if err != nil {
		return false, err
	}
	tokens, err := provider.Refresh(ctx, *appCtx)
	if err != nil {
		return false, fmt.Errorf("unable to refresh token: %w", err)
	}
	tokens.Apply(appCtx)
	context.CtxGetLog(ctx).Debug("token refreshed", "expiry", appCtx.Expiry)
	return true, nil
}
