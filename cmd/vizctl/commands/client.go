package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/benvon/vizflow/internal/services/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Type, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the Vizflow API and unwraps its response envelope
type Client struct {
	baseURL string
	http    *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// newClient picks the auth mode: a static token, client credentials, or none
func newClient(ctx context.Context, opts *globalOptions) (*Client, error) {
	httpClient := &http.Client{Timeout: opts.timeout}

	switch {
	case opts.token != "":
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.token}))
		httpClient.Timeout = opts.timeout
	case opts.clientID != "":
		tokenURL := opts.tokenURL
		if tokenURL == "" {
			if opts.issuer == "" {
				return nil, fmt.Errorf("--token-url or --issuer is required with --client-id")
			}
			doc, err := oidc.Discover(ctx, opts.issuer)
			if err != nil {
				return nil, fmt.Errorf("failed to discover token endpoint: %w", err)
			}
			tokenURL = doc.TokenEndpoint
		}
		cc := clientcredentials.Config{
			ClientID:     opts.clientID,
			ClientSecret: opts.clientSecret,
			TokenURL:     tokenURL,
			Scopes:       opts.scopes,
		}
		httpClient = cc.Client(ctx)
		httpClient.Timeout = opts.timeout
	}

	return &Client{baseURL: strings.TrimSuffix(opts.server, "/"), http: httpClient}, nil
}

// do sends body as JSON and decodes the envelope's data into out when out is non-nil
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Type: env.Error, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// getRaw fetches a path that does not use the envelope
func (c *Client) getRaw(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	return resp.StatusCode, raw, err
}
