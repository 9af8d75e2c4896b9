package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

const (
	FakeClientID     = "fakeClientID"
	FakeClientSecret = "fakeClientSecret"
	FakeSubject      = "YAHOO-SUB-123"
	FakeAuthCode     = "fake-auth-code"
)

// FakeOAuthServer is a token endpoint plus the bits of an OIDC issuer that
// the token manager touches.
type FakeOAuthServer struct {
	s *httptest.Server

	refreshes atomic.Int32
	exchanges atomic.Int32

	mu               sync.Mutex
	failStatus       int
	omitRefreshToken bool
	omitExpiresIn    bool
	delay            time.Duration
	userinfoDelay    time.Duration
	expiresIn        int
	lastGrant        string
	lastRefreshToken string
	issued           int
}

func NewFakeOAuthServer() *FakeOAuthServer {
	f := &FakeOAuthServer{expiresIn: 3600}

	r := chi.NewRouter()
	r.Post("/token", f.tokenHandler)
	r.Get("/.well-known/openid-configuration", f.discoveryHandler)
	r.Get("/userinfo", f.userinfoHandler)
	f.s = httptest.NewServer(r)
	return f
}

func (f *FakeOAuthServer) Close() {
	f.s.Close()
}

func (f *FakeOAuthServer) URL() string {
	return f.s.URL
}

// Config returns an oauth2 config pointing at this server.
func (f *FakeOAuthServer) Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     FakeClientID,
		ClientSecret: FakeClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   fmt.Sprintf("%s/auth", f.s.URL),
			TokenURL:  fmt.Sprintf("%s/token", f.s.URL),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: fmt.Sprintf("%s/redirect", f.s.URL),
		Scopes:      []string{"openid", "fspt-r"},
	}
}

func (f *FakeOAuthServer) Refreshes() int {
	return int(f.refreshes.Load())
}

func (f *FakeOAuthServer) Exchanges() int {
	return int(f.exchanges.Load())
}

// LastRefreshToken is the refresh_token form value of the latest refresh request.
func (f *FakeOAuthServer) LastRefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRefreshToken
}

// FailWith makes the token endpoint answer every request with status.
func (f *FakeOAuthServer) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

func (f *FakeOAuthServer) OmitRefreshToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitRefreshToken = true
}

func (f *FakeOAuthServer) OmitExpiresIn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitExpiresIn = true
}

// ExpiresIn sets the expires_in of issued tokens, in seconds.
func (f *FakeOAuthServer) ExpiresIn(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiresIn = seconds
}

// UserinfoDelay holds every userinfo response for d.
func (f *FakeOAuthServer) UserinfoDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userinfoDelay = d
}

// Delay holds every token response for d.
func (f *FakeOAuthServer) Delay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *FakeOAuthServer) tokenHandler(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != FakeClientID || secret != FakeClientSecret {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	f.mu.Lock()
	grant := r.PostForm.Get("grant_type")
	f.lastGrant = grant
	failStatus, delay := f.failStatus, f.delay
	omitRefresh, omitExpires, expiresIn := f.omitRefreshToken, f.omitExpiresIn, f.expiresIn
	f.mu.Unlock()

	switch grant {
	case "refresh_token":
		f.refreshes.Add(1)
		f.mu.Lock()
		f.lastRefreshToken = r.PostForm.Get("refresh_token")
		f.mu.Unlock()
	case "authorization_code":
		f.exchanges.Add(1)
		if r.PostForm.Get("code") != FakeAuthCode {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant")
			return
		}
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	if delay > 0 {
		time.Sleep(delay)
	}
	if failStatus != 0 {
		writeOAuthError(w, failStatus, "invalid_grant")
		return
	}

	f.mu.Lock()
	f.issued++
	n := f.issued
	f.mu.Unlock()

	resp := map[string]any{
		"access_token": fmt.Sprintf("access-%d", n),
		"token_type":   "bearer",
	}
	if !omitRefresh {
		resp["refresh_token"] = fmt.Sprintf("refresh-%d", n)
	}
	if !omitExpires {
		resp["expires_in"] = expiresIn
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (f *FakeOAuthServer) discoveryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"issuer":                 f.s.URL,
		"authorization_endpoint": f.s.URL + "/auth",
		"token_endpoint":         f.s.URL + "/token",
		"userinfo_endpoint":      f.s.URL + "/userinfo",
		"jwks_uri":               f.s.URL + "/jwks",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (f *FakeOAuthServer) userinfoHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delay := f.userinfoDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sub": FakeSubject})
}

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}
