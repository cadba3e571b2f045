// Package api is the HTTP client side of the chatter backend.
//
// Client resolves interactions, delivers lead submissions and edits rules against a
// server speaking the /api/v1 protocol (see pkg/adapters/http for the server side).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
)

// Protocol constants shared with the server adapter.
const (
	ClientIDHeader  = "X-Client-ID"
	InteractPath    = "/api/v1/interact/"
	SubmissionsPath = "/api/v1/submissions/"
	RulesPath       = "/api/v1/rules/"
	SummaryPath     = "/api/v1/analytics/summary/"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 1 << 20

// Client talks to a chatter server on behalf of one tenant.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
	logger   *slog.Logger
}

var (
	_ ports.Resolver       = (*Client)(nil)
	_ ports.SubmissionSink = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL, clientID string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID returns the tenant this client sends in the X-Client-ID header.
func (c *Client) ClientID() string {
	return c.clientID
}

type interactRequest struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// Resolve posts the interaction to the interact endpoint and decodes the reply.
// Non-2xx replies are ResolutionErrors, unknown shapes wrap ErrMalformedResponse.
func (c *Client) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	clientID := req.ClientID
	if clientID == "" {
		clientID = c.clientID
	}
	status, body, err := c.do(ctx, http.MethodPost, InteractPath, clientID, interactRequest{
		Type:    string(req.Kind),
		Payload: req.Payload,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &domain.ResolutionError{StatusCode: status, Message: errorMessage(body)}
	}

	res, err := DecodeResolution(body)
	if err != nil {
		c.logger.Warn("Unrecognized interact response", "kind", req.Kind, "payload", req.Payload, "err", err)
		return nil, err
	}
	return res, nil
}

// CreateSubmission posts the lead form. Any non-2xx reply is an error.
func (c *Client) CreateSubmission(ctx context.Context, clientID string, fields domain.FormFields) error {
	if clientID == "" {
		clientID = c.clientID
	}
	status, body, err := c.do(ctx, http.MethodPost, SubmissionsPath, clientID, fields)
	if err != nil {
		return err
	}
	return statusError(status, body)
}

// Summary fetches the analytics summary for the client's tenant.
func (c *Client) Summary(ctx context.Context) (map[string]int, error) {
	status, body, err := c.do(ctx, http.MethodGet, SummaryPath, c.clientID, nil)
	if err != nil {
		return nil, err
	}
	if err := statusError(status, body); err != nil {
		return nil, err
	}
	out := map[string]int{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: summary: %v", domain.ErrMalformedResponse, err)
	}
	return out, nil
}

// do performs one JSON round trip. Transport failures wrap domain.ErrNetwork.
func (c *Client) do(ctx context.Context, method, path, clientID string, in any) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if clientID != "" {
		httpReq.Header.Set(ClientIDHeader, clientID)
	}

	c.logger.Debug("API request", "method", method, "path", path)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading body: %w", domain.ErrNetwork, err)
	}
	return resp.StatusCode, body, nil
}

// statusError maps an HTTP status to the domain sentinels. 2xx is nil.
func statusError(status int, body []byte) error {
	if status >= 200 && status <= 299 {
		return nil
	}
	msg := errorMessage(body)
	switch status {
	case http.StatusBadRequest:
		return &domain.ValidationError{Reason: msg}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrProtectedNode, msg)
	default:
		return &domain.ResolutionError{StatusCode: status, Message: msg}
	}
}

// errorMessage extracts "error" or "answer" from a JSON error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Answer != "" {
			return payload.Answer
		}
	}
	return strings.TrimSpace(string(body))
}
