// Package backend is the typed client of the employer REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehanapbuhay/employer-panel/internal/metrics"
	"github.com/ehanapbuhay/employer-panel/internal/middleware"
)

const maxResponseBytes = 10 << 20

// Client talks to the API rooted at baseURL, e.g. http://localhost:3000/api.
// It keeps no credentials; authenticated calls go through As.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Collector
}

func New(baseURL string, httpClient *http.Client, m *metrics.Collector) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		metrics: m,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

type Employer struct {
	c     *Client
	token string
}

func (c *Client) As(token string) *Employer {
	return &Employer{c: c, token: token}
}

type envelope struct {
	Success *bool           `json:"success"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type request struct {
	endpoint    string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// do sends req and decodes the payload into out. The payload is the
// envelope's data when the server wrapped it, otherwise the whole body, so
// both bare arrays and {success,data} shapes land in the same out.
func (c *Client) do(ctx context.Context, req request, out any) (string, error) {
	started := time.Now()
	msg, err := c.send(ctx, req, out)
	outcome := "ok"
	switch {
	case err == nil:
	case isAPIError(err):
		outcome = "api_error"
	default:
		outcome = "transport_error"
	}
	c.metrics.ObserveUpstream(req.endpoint, outcome, time.Since(started))
	return msg, err
}

func (c *Client) send(ctx context.Context, req request, out any) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return "", transport(req.endpoint, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	requestID := middleware.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set(middleware.RequestIDHeader, requestID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", transport(req.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transport(req.endpoint, err)
	}
	ok2xx := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env envelope
	isEnvelope := false
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if json.Unmarshal(trimmed, &env) == nil && (env.Success != nil || env.Message != nil || len(env.Data) > 0) {
			isEnvelope = true
		}
	}

	if !isEnvelope {
		if !ok2xx {
			return "", transport(req.endpoint, fmt.Errorf("status %d without envelope", resp.StatusCode))
		}
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return "", nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return "", transport(req.endpoint, fmt.Errorf("decode body: %w", err))
		}
		return "", nil
	}

	message := ""
	if env.Message != nil {
		message = *env.Message
	}
	if !ok2xx || (env.Success != nil && !*env.Success) {
		return "", &APIError{Status: resp.StatusCode, Message: message}
	}
	if out == nil {
		return message, nil
	}
	payload := env.Data
	if len(payload) == 0 || string(payload) == "null" {
		payload = raw
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return "", transport(req.endpoint, fmt.Errorf("decode data: %w", err))
	}
	return message, nil
}

func isAPIError(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

func (e *Employer) get(ctx context.Context, endpoint, path string, out any) error {
	_, err := e.c.do(ctx, request{endpoint: endpoint, method: http.MethodGet, path: path, token: e.token}, out)
	return err
}

func (e *Employer) sendJSON(ctx context.Context, endpoint, method, path string, in, out any) (string, error) {
	body, err := jsonBody(in)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", endpoint, err)
	}
	return e.c.do(ctx, request{
		endpoint:    endpoint,
		method:      method,
		path:        path,
		token:       e.token,
		body:        body,
		contentType: "application/json",
	}, out)
}
