package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes caps response body reads in the JSON helpers.
const maxResponseBytes = 4 << 20

// StatusError reports a non-2xx API response that was not handled by the
// session retry policy. Body holds the full response body; the error message
// truncates it.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.Code, truncate(e.Body, 256))
}

// GetJSON issues an authenticated GET and decodes the response into out.
// A nil out discards the body.
func (s *Session) GetJSON(ctx context.Context, url string, out interface{}) error {
	return s.roundTripJSON(ctx, http.MethodGet, url, nil, out)
}

// PostJSON issues an authenticated POST with in as the JSON body.
func (s *Session) PostJSON(ctx context.Context, url string, in, out interface{}) error {
	return s.roundTripJSON(ctx, http.MethodPost, url, in, out)
}

// PutJSON issues an authenticated PUT with in as the JSON body.
func (s *Session) PutJSON(ctx context.Context, url string, in, out interface{}) error {
	return s.roundTripJSON(ctx, http.MethodPut, url, in, out)
}

// Delete issues an authenticated DELETE.
func (s *Session) Delete(ctx context.Context, url string) error {
	return s.roundTripJSON(ctx, http.MethodDelete, url, nil, nil)
}

func (s *Session) roundTripJSON(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method: method,
			URL:    url,
			Code:   resp.StatusCode,
			Body:   string(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
