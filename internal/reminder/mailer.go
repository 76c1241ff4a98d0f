package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrEmailDispatch = errors.New("email dispatch failed")
)

// Mailer sends one templated reminder email per due pair.
type Mailer interface {
	SendReminder(ctx context.Context, msg EmailMessage) error
}

// HTTPMailer posts reminder payloads to the platform's transactional
// email dispatcher. Provider errors and rate limits surface as
// ErrEmailDispatch, which callers treat as a recoverable per-pair failure.
type HTTPMailer struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPMailer(endpoint, token string) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *HTTPMailer) SendReminder(ctx context.Context, msg EmailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDispatch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrEmailDispatch, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	return nil
}
