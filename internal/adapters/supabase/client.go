// Package supabase talks to a hosted Supabase project: PostgREST for the
// plan table and GoTrue for authentication.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)


// APIError is a non-2xx answer from Supabase. Message is the server's text, verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("supabase returned %d", e.Status)
}

// Client is the shared HTTP plumbing: base URL, apikey header and bearer token.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewClient creates a Client for the project at baseURL.
// PRE: baseURL is an absolute URL, anonKey is the project's public key
// POST: a nil httpClient is replaced by one without a timeout
func NewClient(baseURL, anonKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    httpClient,
	}
}

// request describes one call.
type request struct {
	method  string
	path    string
	query   url.Values
	bearer  string // falls back to the anon key
	body    any
	headers map[string]string
}

// do performs the call and decodes a 2xx JSON answer into out (which may be nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	bearer := r.bearer
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse supabase response: %w", err)
	}
	return nil
}

// parseAPIError reads the error shapes PostgREST and GoTrue use.
func parseAPIError(status int, body []byte) *APIError {
	var payload struct {
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	for _, m := range []string{payload.Message, payload.Msg, payload.ErrorDescription, payload.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	switch code := payload.Code.(type) {
	case string:
		apiErr.Code = code
	case float64:
		apiErr.Code = fmt.Sprintf("%.0f", code)
	}
	if payload.ErrorCode != "" {
		apiErr.Code = payload.ErrorCode
	}
	return apiErr
}
