// Package client is the CLI's JSON client for the lending API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crucial707/hci-lending/cmd/cli/config"
	"github.com/google/uuid"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// APIError is a non-2xx answer. Code is the API's machine-readable error code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// New returns a client for config.APIURL without credentials.
func New() *Client {
	return &Client{BaseURL: config.APIURL(), HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Authenticated returns a client carrying the stored token.
func Authenticated() (*Client, error) {
	token, err := config.ReadToken()
	if err != nil {
		return nil, err
	}
	c := New()
	c.Token = token
	return c, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// Post sends payload as JSON. Every call carries a fresh Idempotency-Key so a retried request
// cannot apply the same transition twice.
func (c *Client) Post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, data, uuid.NewString(), out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, idemKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Code = e.Error, e.Code
		}
		return apiErr
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}
