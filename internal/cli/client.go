package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client is a thin REST client for the Prombank API. The server address and
// credential come from PROMBANK_SERVER and PROMBANK_TOKEN; the token is
// normally an API token created through the UI or `prombank token create`.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client from the environment.
func NewClient() *Client {
	baseURL := os.Getenv("PROMBANK_SERVER")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   os.Getenv("PROMBANK_TOKEN"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError mirrors the server's error envelope.
type apiError struct {
	Err struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs a request and decodes the JSON response into out (may be nil).
func (c *Client) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+"/api/v1"+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Err.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Err.Message, apiErr.Err.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// doRaw performs a request and returns the raw response body, for exports.
func (c *Client) doRaw(method, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(method, c.baseURL+"/api/v1"+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Err.Message != "" {
			return nil, fmt.Errorf("%s (%s)", apiErr.Err.Message, apiErr.Err.Code)
		}
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
	return raw, nil
}
