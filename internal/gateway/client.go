package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"datagpt-client/internal/config"
	"datagpt-client/internal/dto"
	"datagpt-client/internal/pkg/logger"
)

// RemoteError is any REST failure: a non-2xx status, a `success=false`
// envelope, or a response the client could not decode.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("backend request failed (%d): %s", e.Status, e.Message)
}

const unexpectedShapeMsg = "unexpected response shape"

// Client issues typed requests against the workspace/auth REST service and
// the LLM ingestion/query service. All configuration is injected here; there
// are no package-level base URLs.
type Client struct {
	backendURL string
	llmURL     string
	httpClient *http.Client
	llmClient  *http.Client
	log        logger.ILogger
}

func NewClient(backend config.BackendConfig, llm config.LLMConfig, log logger.ILogger) *Client {
	return &Client{
		backendURL: strings.TrimRight(backend.BaseURL, "/"),
		llmURL:     strings.TrimRight(llm.BaseURL, "/"),
		httpClient: &http.Client{Timeout: backend.RequestTimeout},
		llmClient:  &http.Client{Timeout: llm.RequestTimeout},
		log:        log,
	}
}

// doEnvelope performs a backend request whose response is wrapped in the
// uniform `{success, data, message}` envelope and decodes data into out.
// Callers always get either a typed payload or a *RemoteError, never a
// silent empty success.
func (c *Client) doEnvelope(ctx context.Context, method, path, token string, payload, out interface{}) error {
	resp, err := c.do(ctx, c.httpClient, c.backendURL+path, method, token, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: err.Error()}
	}

	var env dto.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return &RemoteError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	return nil
}

func (c *Client) do(ctx context.Context, client *http.Client, url, method, token string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &RemoteError{Status: 0, Message: err.Error()}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &RemoteError{Status: 0, Message: err.Error()}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		c.log.Error("gateway", "request failed", map[string]interface{}{
			"method": method,
			"url":    url,
			"error":  err.Error(),
		})
		return nil, &RemoteError{Status: 0, Message: err.Error()}
	}
	return resp, nil
}
