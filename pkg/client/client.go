// Package client is a typed HTTP client for the visitors service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/diagnosis/visitor-desk/internal/http/response"
	"github.com/diagnosis/visitor-desk/pkg/logger"
)

// APIError is a non-2xx response decoded back into its error code.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("visitors api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("visitors api: %s: %s", e.Code, e.Message)
}

// CodeOf returns the API error code carried by err, or "" when there is none.
// Transport failures report NETWORK_ERROR.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return response.CodeNetwork
}

func IsAccessDenied(err error) bool {
	return CodeOf(err) == response.CodeAccessDenied
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListVisitors(ctx context.Context, opts ListOptions) (*VisitorPage, error) {
	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("encoding list query: %w", err)
	}
	path := "/v1/visitors"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	var page VisitorPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page, nil); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateVisitor(ctx context.Context, in CreateVisitorInput) (*Visitor, error) {
	var out Visitor
	if err := c.do(ctx, http.MethodPost, "/v1/visitors", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckIn submits the public form. idempotencyKey may be empty.
func (c *Client) CheckIn(ctx context.Context, in CreateVisitorInput, idempotencyKey string) (*Visitor, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	var out Visitor
	if err := c.do(ctx, http.MethodPost, "/v1/checkin", in, &out, headers); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateVisitor(ctx context.Context, id int64, patch VisitorPatch) (*Visitor, error) {
	var out Visitor
	if err := c.do(ctx, http.MethodPatch, "/v1/visitors/"+strconv.FormatInt(id, 10), patch, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteVisitor(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/v1/visitors/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		req.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Calling visitors api", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body response.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Fields = body.Fields
		if body.Error != "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
