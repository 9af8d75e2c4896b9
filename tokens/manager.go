// Package tokens keeps a usable Yahoo access token for every linked user.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// RefreshMargin is how close to expiry a token may get before ValidToken refreshes it.
	RefreshMargin = 60 * time.Second

	// Yahoo access tokens live for an hour. Used when a token response has no expires_in.
	defaultLifetime = time.Hour

	tokenResource = "oauth2/token"
)

// Locker serializes refreshes for one user across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Identifier resolves the provider's subject for a freshly issued token.
type Identifier interface {
	Subject(ctx context.Context, ts oauth2.TokenSource) (string, error)
}

type Option func(*Manager)

func WithLocker(l Locker) Option {
	return func(m *Manager) { m.locker = l }
}

func WithIdentifier(i Identifier) Option {
	return func(m *Manager) { m.identifier = i }
}

// WithHTTPClient sets the client used for token endpoint calls. It must have a timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

type Manager struct {
	config     *oauth2.Config
	db         db.DB
	clock      clock.Clock
	httpClient *http.Client
	locker     Locker
	identifier Identifier
	group      singleflight.Group
}

func NewManager(config *oauth2.Config, store db.DB, clock clock.Clock, opts ...Option) *Manager {
	m := &Manager{
		config:     config,
		db:         store,
		clock:      clock,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ValidToken returns an access token that is good for at least RefreshMargin,
// refreshing the stored credential first when it is not.
func (m *Manager) ValidToken(ctx context.Context, userID string) (string, error) {
	c, err := m.credential(ctx, userID)
	if err != nil {
		return "", err
	}
	if !c.ExpiresWithin(m.clock.Now(), RefreshMargin) {
		return c.AccessToken, nil
	}

	c, err = m.refreshShared(ctx, userID, false)
	if err != nil {
		return "", err
	}
	return c.AccessToken, nil
}

// Refresh always exchanges the stored refresh token, even if the access token is still fresh.
func (m *Manager) Refresh(ctx context.Context, userID string) (*model.Credential, error) {
	return m.refreshShared(ctx, userID, true)
}

// Exchange trades an authorization code for the user's first credential.
func (m *Manager) Exchange(ctx context.Context, userID, code string) (*model.Credential, error) {
	if userID == "" {
		return nil, &model.AuthenticationError{Reason: "no session"}
	}
	if code == "" {
		return nil, &model.AuthenticationError{UserID: userID, Reason: "missing authorization code"}
	}

	tok, err := m.config.Exchange(m.tokenContext(ctx), code)
	if err != nil {
		return nil, m.tokenError(userID, "authorization code exchange rejected", err)
	}

	c := m.credentialFromToken(userID, tok)
	if m.identifier != nil {
		sub, err := m.identifier.Subject(m.tokenContext(ctx), oauth2.StaticTokenSource(tok))
		if err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("unable to resolve yahoo subject")
		} else {
			c.ProviderUserID = sub
		}
	}

	if err := m.db.SaveCredential(ctx, c); err != nil {
		return nil, fmt.Errorf("error saving credential for %s: %w", userID, err)
	}
	log.Info().Str("user", userID).Time("expires", c.ExpiresAt).Msg("linked yahoo account")
	return c, nil
}

// refreshShared collapses concurrent refreshes for a user into one call,
// forced or not. A forced caller that joins an in-flight refresh takes its
// result, which was issued after the call began. The shared call runs
// detached from any single caller's cancellation; the token endpoint client
// timeout bounds it instead.
func (m *Manager) refreshShared(ctx context.Context, userID string, force bool) (*model.Credential, error) {
	v, err, shared := m.group.Do(userID, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx), userID, force)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug().Str("user", userID).Msg("joined in-flight token refresh")
	}

	c := *v.(*model.Credential)
	return &c, nil
}

func (m *Manager) refresh(ctx context.Context, userID string, force bool) (*model.Credential, error) {
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "token-refresh:"+userID)
		if err != nil {
			return nil, fmt.Errorf("error acquiring refresh lock for %s: %w", userID, err)
		}
		defer unlock()
	}

	// Read again under the lock. Another caller or instance may already have refreshed.
	c, err := m.credential(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !force && !c.ExpiresWithin(m.clock.Now(), RefreshMargin) {
		return c, nil
	}
	if c.RefreshToken == "" {
		return nil, &model.AuthenticationError{UserID: userID, Reason: "no refresh token stored"}
	}

	log.Info().Str("user", userID).Time("expires", c.ExpiresAt).Msg("refreshing yahoo token")

	// Without an access token the source always goes to the token endpoint. If
	// the response has no refresh_token the library carries the old one forward.
	src := m.config.TokenSource(m.tokenContext(ctx), &oauth2.Token{RefreshToken: c.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, m.tokenError(userID, "token refresh rejected", err)
	}

	updated := m.credentialFromToken(userID, tok)
	updated.ProviderUserID = c.ProviderUserID
	updated.CreatedAt = c.CreatedAt
	if updated.RefreshToken == "" {
		updated.RefreshToken = c.RefreshToken
	}

	if err := m.db.SaveCredential(ctx, updated); err != nil {
		return nil, fmt.Errorf("error saving refreshed credential for %s: %w", userID, err)
	}
	if updated.ExpiresWithin(m.clock.Now(), RefreshMargin) {
		log.Warn().Str("user", userID).Dur("expires_in", updated.ExpiresAt.Sub(m.clock.Now())).
			Msg("refreshed yahoo token is already inside the refresh margin")
	}
	return updated, nil
}

func (m *Manager) credential(ctx context.Context, userID string) (*model.Credential, error) {
	if userID == "" {
		return nil, &model.AuthenticationError{Reason: "no session"}
	}

	c, err := m.db.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrCredentialNotFound) {
			return nil, &model.AuthenticationError{UserID: userID, Reason: "no linked yahoo account", Err: err}
		}
		return nil, fmt.Errorf("error loading credential for %s: %w", userID, err)
	}
	return c, nil
}

func (m *Manager) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// tokenError maps a rejected exchange to AuthenticationError and anything
// that never got an answer (timeouts, transport) to UpstreamError.
func (m *Manager) tokenError(userID, reason string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		log.Warn().Err(err).Str("user", userID).Int("status", status).Msg(reason)
		return &model.AuthenticationError{UserID: userID, Reason: reason, Err: err}
	}
	return &model.UpstreamError{Resource: tokenResource, Err: err}
}

// credentialFromToken derives ExpiresAt from our clock and the response's
// expires_in, never from the library's wall clock Expiry.
func (m *Manager) credentialFromToken(userID string, tok *oauth2.Token) *model.Credential {
	return &model.Credential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    m.clock.Now().Add(expiresIn(tok)).UTC(),
	}
}

func expiresIn(tok *oauth2.Token) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}

	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultLifetime
}
