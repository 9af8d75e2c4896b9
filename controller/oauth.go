package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

const oauthStateLifetime = 5 * time.Minute

type oauthState struct {
	userID string
	expiry time.Time
}

func (c *controller) OAuthStart(userID string) (string, error) {
	if err := requireUser(userID); err != nil {
		return "", err
	}
	if c.yahooConfig == nil {
		return "", errors.New("yahoo oauth client is not configured")
	}

	state := uuid.NewString()
	now := c.clock.Now()

	c.oauthLock.Lock()
	defer c.oauthLock.Unlock()
	for k, s := range c.oauthStates {
		if now.After(s.expiry) {
			delete(c.oauthStates, k)
		}
	}
	c.oauthStates[state] = &oauthState{
		userID: userID,
		expiry: now.Add(oauthStateLifetime),
	}
	return c.yahooConfig.AuthCodeURL(state), nil
}

func (c *controller) OAuthExchange(ctx context.Context, state, code string) (*model.Credential, error) {
	c.oauthLock.Lock()
	s, ok := c.oauthStates[state]
	delete(c.oauthStates, state)
	c.oauthLock.Unlock()

	if !ok || c.clock.Now().After(s.expiry) {
		return nil, &model.AuthenticationError{Reason: "oauth state is not valid"}
	}
	if c.linker == nil {
		return nil, errors.New("yahoo oauth client is not configured")
	}

	cred, err := c.linker.Exchange(ctx, s.userID, code)
	if err != nil {
		log.Err(err).Str("user", s.userID).Msg("error linking yahoo account")
		return nil, err
	}
	return cred, nil
}

func (c *controller) OAuthStatus(ctx context.Context, userID string) (*model.LinkStatus, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	cred, err := c.db.GetCredential(ctx, userID)
	if errors.Is(err, db.ErrCredentialNotFound) {
		return &model.LinkStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading credential: %w", err)
	}

	expires, updated := cred.ExpiresAt, cred.UpdatedAt
	return &model.LinkStatus{
		Linked:         true,
		ProviderUserID: cred.ProviderUserID,
		ExpiresAt:      &expires,
		Expired:        !c.clock.Now().Before(expires),
		UpdatedAt:      &updated,
	}, nil
}
