package testutils

import (
	"context"
	"time"

	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"golang.org/x/oauth2"
)

// TestController bundles the fakes a controller needs: an in-memory store on
// a mock clock, the Yahoo API and the OAuth token endpoint.
type TestController struct {
	*TestDB
	YahooConfig *oauth2.Config
	OAuth       *FakeOAuthServer
	Yahoo       *FakeYahooServer
}

func (c *TestController) Close() {
	c.Yahoo.Close()
	c.OAuth.Close()
}

func (c *TestController) YahooURL() string {
	return c.Yahoo.URL()
}

func NewTestController() *TestController {
	oauth := NewFakeOAuthServer()
	return &TestController{
		TestDB:      NewTestDB(),
		YahooConfig: oauth.Config(),
		OAuth:       oauth,
		Yahoo:       NewFakeYahooServer(),
	}
}

// Link stores a credential for userID that stays valid for an hour of mock
// clock time.
func (c *TestController) Link(userID string) error {
	return c.DB.SaveCredential(context.Background(), &model.Credential{
		UserID:       userID,
		AccessToken:  "linked-access",
		RefreshToken: "linked-refresh",
		ExpiresAt:    c.Clock.Now().Add(time.Hour),
	})
}
