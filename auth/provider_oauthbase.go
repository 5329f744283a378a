// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/eclipse-hono/regctl/cli/config"
	"github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/server"
)

const callbackShutdownTimeout = 2 * time.Second

// oauth2BaseProvider runs the authorization code flow with PKCE against a
// loopback redirect served on an ephemeral port.
type oauth2BaseProvider struct {
	name        string
	displayName string
	endpoint    oauth2.Endpoint
	scopes      []string

	checkToken func(*oauth2.Token, LoginOptions) (*Tokens, error)
}

func (p oauth2BaseProvider) Name() string {
	return p.name
}

func (p oauth2BaseProvider) oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       p.scopes,
		Endpoint:     p.endpoint,
	}
}

type callbackResult struct {
	tokens *Tokens
	err    error
}

func (p oauth2BaseProvider) Login(ctx context.Context, opts LoginOptions) (*Tokens, error) {
	if opts.ClientID == "" {
		return nil, errors.New("an OAuth client ID is required")
	}
	log := context.CtxGetLog(ctx).With("provider", p.name)
	ctx = context.CtxWithLog(ctx, log)

	e := server.NewEchoServer()
	srv, err := server.NewLoopbackServer(ctx, e, "oauth-callback")
	if err != nil {
		return nil, fmt.Errorf("unable to start %s login callback server: %w", p.displayName, err)
	}

	cfg := p.oauthConfig(opts.ClientID, opts.ClientSecret, "http://"+srv.GetAddress()+AuthCallbackPath)
	state := rand.Text()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)
	e.GET(AuthCallbackPath, func(c echo.Context) error {
		res := p.handleOauthCallback(c, cfg, state, verifier, opts)
		select {
		case results <- res:
		default:
		}
		if res.err != nil {
			return c.String(http.StatusBadRequest, "Login failed: "+res.err.Error())
		}
		return c.String(http.StatusOK, "Login complete. You can close this window.")
	})

	quit := make(chan error, 1)
	srv.Start(quit)
	defer srv.Shutdown(callbackShutdownTimeout)

	u := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Open the following URL to login with %s:\n\n  %s\n\n", p.displayName, u)
	}
	if opts.OpenURL != nil {
		if err := opts.OpenURL(u); err != nil {
			log.Warn("unable to open browser", "error", err)
		}
	}

	select {
	case res := <-results:
		return res.tokens, res.err
	case err := <-quit:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p oauth2BaseProvider) handleOauthCallback(c echo.Context, cfg *oauth2.Config, state, verifier string, opts LoginOptions) callbackResult {
	if c.QueryParam("state") != state {
		return callbackResult{err: errors.New("invalid oauth state")}
	}
	if reason := c.QueryParam("error"); reason != "" {
		return callbackResult{err: fmt.Errorf("authorization denied: %s", reason)}
	}
	code := c.QueryParam("code")
	if code == "" {
		return callbackResult{err: errors.New("missing authorization code")}
	}
	token, err := cfg.Exchange(c.Request().Context(), code, oauth2.VerifierOption(verifier))
	if err != nil {
		context.CtxGetLog(c.Request().Context()).Warn("could not exchange code for token", "error", err)
		return callbackResult{err: fmt.Errorf("could not exchange code for token: %w", err)}
	}
	tokens, err := p.checkToken(token, opts)
	return callbackResult{tokens: tokens, err: err}
}

func (p oauth2BaseProvider) Refresh(ctx context.Context, appCtx config.Context) (*Tokens, error) {
	if !appCtx.CanRefresh() {
		return nil, fmt.Errorf("context has no %s refresh token", p.displayName)
	}
	cfg := p.oauthConfig(appCtx.ClientID, appCtx.ClientSecret, "")
	expired := &oauth2.Token{RefreshToken: appCtx.RefreshToken, Expiry: time.Unix(1, 0)}
	token, err := cfg.TokenSource(ctx, expired).Token()
	if err != nil {
		return nil, err
	}
	tokens, err := p.checkToken(token, LoginOptions{})
	if err != nil {
		return nil, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = appCtx.RefreshToken
	}
	return tokens, nil
}
