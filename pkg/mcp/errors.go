package mcp

import "fmt"

// DiscoveryError wraps a failed tools/list call. Callers treat it as
// non-fatal: a server that cannot be discovered contributes no tools.
type DiscoveryError struct {
	ServerURL string
	Err       error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("tool discovery failed for %s: %v", e.ServerURL, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// InvocationError wraps a failed tools/call. The router downgrades it to a
// textual tool result so the conversation can continue.
type InvocationError struct {
	ServerURL string
	Tool      string
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool call %s failed on %s: %v", e.Tool, e.ServerURL, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// RPCError is a JSON-RPC error object returned by a tool server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}
