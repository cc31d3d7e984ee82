package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcHandler(t *testing.T, handle func(method string, params json.RawMessage) (any, *RPCError)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/mcp", r.URL.Path)

		var req struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      int64           `json:"id"`
			Method  string          `json:"method"`
			Params  json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2.0", req.JSONRPC)

		result, rpcErr := handle(req.Method, req.Params)

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestClient_ListTools(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(method string, _ json.RawMessage) (any, *RPCError) {
		require.Equal(t, "tools/list", method)
		return map[string]any{
			"tools": []map[string]any{
				{
					"name":        "get_weather",
					"description": "Current weather for a city",
					"inputSchema": map[string]any{
						"type":       "object",
						"properties": map[string]any{"city": map[string]any{"type": "string"}},
					},
				},
			},
		}, nil
	}))
	defer srv.Close()

	tools, err := NewClient().ListTools(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_weather", tools[0].Name)
	assert.Equal(t, "Current weather for a city", tools[0].Description)
	assert.Equal(t, "object", tools[0].InputSchema["type"])
}

func TestClient_ListTools_TrailingSlash(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(string, json.RawMessage) (any, *RPCError) {
		return map[string]any{"tools": []map[string]any{}}, nil
	}))
	defer srv.Close()

	_, err := NewClient().ListTools(context.Background(), srv.URL+"/")
	require.NoError(t, err)
}

func TestClient_ListTools_RPCError(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(string, json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32601, Message: "Method not found"}
	}))
	defer srv.Close()

	_, err := NewClient().ListTools(context.Background(), srv.URL)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestClient_ListTools_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().ListTools(context.Background(), srv.URL)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, srv.URL, discErr.ServerURL)
}

func TestClient_ListTools_Unreachable(t *testing.T) {
	// Port from a closed listener: connection refused.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient().ListTools(context.Background(), url)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
}

func TestClient_CallTool(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(method string, params json.RawMessage) (any, *RPCError) {
		require.Equal(t, "tools/call", method)

		var p struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		require.NoError(t, json.Unmarshal(params, &p))
		require.Equal(t, "get_weather", p.Name)
		require.Equal(t, "Lisbon", p.Arguments["city"])

		return map[string]any{
			"content": []map[string]any{
				{"type": "image", "data": "..."},
				{"type": "text", "text": "Sunny, 24C"},
				{"type": "text", "text": "ignored second entry"},
			},
		}, nil
	}))
	defer srv.Close()

	text, err := NewClient().CallTool(context.Background(), srv.URL, "get_weather", map[string]any{"city": "Lisbon"})
	require.NoError(t, err)
	assert.Equal(t, "Sunny, 24C", text)
}

func TestClient_CallTool_NoTextContent(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(string, json.RawMessage) (any, *RPCError) {
		return map[string]any{"content": []map[string]any{{"type": "image", "data": "..."}}}, nil
	}))
	defer srv.Close()

	text, err := NewClient().CallTool(context.Background(), srv.URL, "render", nil)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestClient_CallTool_RPCError(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, func(string, json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32000, Message: "boom"}
	}))
	defer srv.Close()

	_, err := NewClient().CallTool(context.Background(), srv.URL, "explode", nil)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "explode", invErr.Tool)
	assert.False(t, errors.As(err, new(*DiscoveryError)))
}

func TestClient_CallTool_SSEFramedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"content\":[{\"type\":\"text\",\"text\":\"from sse\"}]}}\n\n"))
	}))
	defer srv.Close()

	text, err := NewClient().CallTool(context.Background(), srv.URL, "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "from sse", text)
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		baseURL  string
		expected string
	}{
		{"http://host:8010", "http://host:8010/mcp"},
		{"http://host:8010/", "http://host:8010/mcp"},
		{"http://host:8010//", "http://host:8010/mcp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Endpoint(tt.baseURL))
	}
}

func TestClient_ClosesBodyOnHTTPError(t *testing.T) {
	var mu sync.Mutex
	conns := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		conns[r.RemoteAddr] = true
		mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	// With the body closed after each failure, keep-alive reuses one
	// connection across sequential calls; an unclosed body strands the
	// connection and forces a new one every time.
	client := NewClient()
	for i := 0; i < 5; i++ {
		_, err := client.ListTools(context.Background(), srv.URL)
		require.Error(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, conns, 1)
}

func TestClient_RequestIDsIncrease(t *testing.T) {
	var ids []int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		ids = append(ids, req.ID)
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{"tools": []any{}}})
	}))
	defer srv.Close()

	client := NewClient()
	_, _ = client.ListTools(context.Background(), srv.URL)
	_, _ = client.ListTools(context.Background(), srv.URL)

	require.Len(t, ids, 2)
	assert.Greater(t, ids[1], ids[0])
}
