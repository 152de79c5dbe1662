// Package reason provides an HTTP JSON-RPC client for an external reasoning
// service, usable as the resolver's injected Caller.
package reason

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// MethodComplete is the reasoning service's completion method.
const MethodComplete = "reason/complete"

// completeParams is the request payload for reason/complete.
type completeParams struct {
	Prompt string `json:"prompt"`
}

// completeResult is the response payload for reason/complete.
type completeResult struct {
	Completion string `json:"completion"`
}

// jsonrpcRequest is a JSON-RPC 2.0 request envelope.
type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response envelope.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

// jsonrpcError is a JSON-RPC 2.0 error object.
type jsonrpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HTTPCaller calls a reasoning service over HTTP/JSON-RPC. It satisfies
// resolve.Caller.
type HTTPCaller struct {
	endpoint  string
	http      *http.Client
	requestID atomic.Int64
}

// Option configures an HTTPCaller.
type Option func(*HTTPCaller)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPCaller) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPCaller) {
		c.http = hc
	}
}

// NewHTTPCaller creates a caller for the given JSON-RPC endpoint.
func NewHTTPCaller(endpoint string, opts ...Option) *HTTPCaller {
	c := &HTTPCaller{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends the prompt via reason/complete and returns the completion text.
// Context cancellation and timeouts surface as errors from the HTTP layer.
func (c *HTTPCaller) Call(ctx context.Context, prompt string) (string, error) {
	params, err := json.Marshal(completeParams{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("reason: marshal params: %w", err)
	}

	rpcReq := jsonrpcRequest{
		JSONRPC: JSONRPCVersion,
		ID:      c.requestID.Add(1),
		Method:  MethodComplete,
		Params:  params,
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return "", fmt.Errorf("reason: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("reason: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("reason: call %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("reason: HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var rpcResp jsonrpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("reason: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("reason: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result completeResult
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return "", fmt.Errorf("reason: decode result: %w", err)
	}
	return result.Completion, nil
}
