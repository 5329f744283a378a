// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package auth

import (
	"errors"

	"golang.org/x/oauth2"

	"github.com/eclipse-hono/regctl/cli/config"
	"github.com/eclipse-hono/regctl/context"
)

const ProviderToken = "token"

// tokenProvider stores a bearer token issued elsewhere. A token that is a
// JWT keeps its expiry, anything else never expires.
type tokenProvider struct{}

func (tokenProvider) Name() string {
	return ProviderToken
}

func (tokenProvider) Login(ctx context.Context, opts LoginOptions) (*Tokens, error) {
	if opts.Token == "" {
		return nil, errors.New("a token is required")
	}
	token := (&oauth2.Token{AccessToken: opts.Token}).WithExtra(map[string]any{"id_token": opts.Token})
	if tokens, err := tokensFromIDToken(token, LoginOptions{}); err == nil {
		return tokens, nil
	}
	context.CtxGetLog(ctx).Debug("token is not a JWT, storing it without expiry")
	return &Tokens{IDToken: opts.Token}, nil
}

func (tokenProvider) Refresh(context.Context, config.Context) (*Tokens, error) {
	return nil, errors.New("a static token cannot be refreshed")
}

func init() {
	RegisterProvider(tokenProvider{})
}
