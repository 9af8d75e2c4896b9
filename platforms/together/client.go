// Package together is a small client for Together's chat completions API.
package together

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"golang.org/x/time/rate"
)

const (
	TogetherURL  = "https://api.together.xyz"
	DefaultModel = "meta-llama/Llama-3.1-70B-Instruct-Turbo"

	completionsPath = "/v1/chat/completions"
	noResponse      = "No response generated"
)

var ErrNoAPIKey = errors.New("together api key is not configured")

type Client struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func New(apiKey, modelName string, timeout time.Duration) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Client{
		url:        TogetherURL,
		apiKey:     apiKey,
		model:      modelName,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
	}
}

func NewForTest(url, apiKey string) *Client {
	c := New(apiKey, "", 5*time.Second)
	c.url = url
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends a system and a user prompt and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding completion request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &model.UpstreamError{Resource: completionsPath, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating together request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &model.UpstreamError{Resource: completionsPath, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &model.UpstreamError{Resource: completionsPath, StatusCode: resp.StatusCode, Err: err}
	}
	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Str("model", c.model).Msg("together completion")

	if resp.StatusCode != http.StatusOK {
		return "", &model.UpstreamError{Resource: completionsPath, StatusCode: resp.StatusCode, Body: truncate(raw, 300)}
	}

	var res completionResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("error decoding completion response: %w", err)
	}
	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return noResponse, nil
	}
	return res.Choices[0].Message.Content, nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
