// Package mcp implements the client side of the tool-server protocol:
// JSON-RPC 2.0 over HTTP POST to {baseURL}/mcp, methods tools/list and
// tools/call. One request per call, no session state, no retries; callers
// decide whether a failure is fatal.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cipchat/orchestrator/pkg/httpclient"
)

const DefaultTimeout = 30 * time.Second

// ToolDescriptor is one entry of a server's tool catalog. InputSchema is
// the raw JSON-schema object and is passed through to the model untouched.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type listResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

type callResult struct {
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Client struct {
	httpClient *httpclient.Client
	nextID     atomic.Int64
}

type Option func(*Client)

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListTools fetches the tool catalog from the server at baseURL.
// Every failure is reported as a *DiscoveryError.
func (c *Client) ListTools(ctx context.Context, baseURL string) ([]ToolDescriptor, error) {
	raw, err := c.rpc(ctx, baseURL, "tools/list", nil)
	if err != nil {
		return nil, &DiscoveryError{ServerURL: baseURL, Err: err}
	}

	var result listResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DiscoveryError{ServerURL: baseURL, Err: fmt.Errorf("malformed tools/list result: %w", err)}
	}

	return result.Tools, nil
}

// CallTool invokes one tool and returns the text of the first "text"
// content entry. A result without text content yields an empty string,
// not an error. Every failure is reported as a *InvocationError.
func (c *Client) CallTool(ctx context.Context, baseURL, name string, arguments map[string]any) (string, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}

	raw, err := c.rpc(ctx, baseURL, "tools/call", callParams{Name: name, Arguments: arguments})
	if err != nil {
		return "", &InvocationError{ServerURL: baseURL, Tool: name, Err: err}
	}

	var result callResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", &InvocationError{ServerURL: baseURL, Tool: name, Err: fmt.Errorf("malformed tools/call result: %w", err)}
	}

	for _, part := range result.Content {
		if part.Type == "text" {
			return part.Text, nil
		}
	}

	return "", nil
}

func Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/mcp"
}

func (c *Client) rpc(ctx context.Context, baseURL, method string, params any) (json.RawMessage, error) {
	payload := request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	// Do returns the response alongside the error on non-2xx statuses;
	// the body must be closed either way or the connection is stranded.
	httpResp, err := c.httpClient.Do(req)
	if httpResp != nil {
		defer httpResp.Body.Close()
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, httpResp.Status)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if httpResp == nil {
		return nil, fmt.Errorf("request failed: no response received")
	}

	responseBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	resp, err := parseResponse(responseBody)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// parseResponse handles both plain JSON bodies and SSE-framed bodies
// ("data: {...}") that streamable-HTTP servers produce for single responses.
func parseResponse(body []byte) (*response, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err == nil {
		return &resp, nil
	}

	for _, line := range strings.Split(string(body), "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			if err := json.Unmarshal([]byte(data), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	return nil, fmt.Errorf("failed to parse response as JSON or SSE")
}
