package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/youcodecowboy/fantasy-hockey-analysis/config"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller/mockcontroller"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

func TestNewServer(t *testing.T) {
	ctrl := &mockcontroller.C{}

	if _, err := NewServer(config.ServerConfig{Port: 3000}, ctrl); err == nil {
		t.Errorf("expected an error without a session secret")
	}

	s, err := NewServer(config.ServerConfig{
		Port:           8080,
		SessionSecret:  "secret",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   time.Minute,
		RequestTimeout: 45 * time.Second,
	}, ctrl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", s.server.Addr)
	}
	if s.server.WriteTimeout != time.Minute {
		t.Errorf("expected a 1m write timeout, got %v", s.server.WriteTimeout)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: &model.AuthenticationError{UserID: "u", Reason: "expired"}, want: http.StatusUnauthorized},
		{err: fmt.Errorf("wrapped: %w", &model.NotFoundError{Kind: "team", Key: "3"}), want: http.StatusNotFound},
		{err: &model.UpstreamError{Resource: "/users", Err: errors.New("timeout")}, want: http.StatusBadGateway},
		{err: &model.ParseError{Entity: "league", Reason: "missing league_key"}, want: http.StatusBadGateway},
		{err: controller.ErrAnalysisDisabled, want: http.StatusServiceUnavailable},
		{err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestNewSessionToken(t *testing.T) {
	now := time.Date(2024, 11, 9, 12, 0, 0, 0, time.UTC)
	tok, err := NewSessionToken([]byte("secret"), "user-9", now, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := jwt.ParseWithClaims(tok, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now.Add(time.Minute) }))
	if err != nil {
		t.Fatalf("error parsing token: %v", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub != "user-9" {
		t.Errorf("expected subject user-9, got %q (%v)", sub, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || !exp.Time.Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v (%v)", now.Add(time.Hour), exp, err)
	}
}

func TestRootHandler(t *testing.T) {
	s := newTestServer(t, &mockcontroller.C{})

	resp, err := http.Get(s.URL + "/")
	if err != nil {
		t.Fatalf("error sending request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &mockcontroller.C{})

	req := httptest.NewRequest(http.MethodOptions, "/api/leagues", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	req.RequestURI = ""
	req.URL.Scheme = "http"
	req.URL.Host = s.Listener.Addr().String()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("error sending request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected the origin to be allowed, got %q", got)
	}
}
