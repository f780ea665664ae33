package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// McpClient is an in-process MCP client connected to a server handler over a
// streamable HTTP test server.
type McpClient struct {
	ctx        context.Context
	testServer *httptest.Server
	*mcp.ClientSession
}

func NewMcpClient(t *testing.T, mcpHttpServer http.Handler) *McpClient {
	require.NotNil(t, mcpHttpServer, "McpHttpServer must be provided")
	ret := &McpClient{ctx: t.Context()}
	ret.testServer = httptest.NewServer(mcpHttpServer)
	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.33.7"}, nil)
	session, err := client.Connect(ret.ctx, &mcp.StreamableClientTransport{Endpoint: ret.testServer.URL}, nil)
	require.NoError(t, err, "Expected no error connecting MCP client")
	ret.ClientSession = session
	return ret
}

func (m *McpClient) Close() {
	if m.ClientSession != nil {
		_ = m.ClientSession.Close()
	}
	if m.testServer != nil {
		m.testServer.Close()
	}
}

// CallTool helper function to call a tool by name with arguments
func (m *McpClient) CallTool(name string, args map[string]any) (*mcp.CallToolResult, error) {
	return m.ClientSession.CallTool(m.ctx, &mcp.CallToolParams{Name: name, Arguments: args})
}

// ListTools helper returning all tool names exposed by the server
func (m *McpClient) ListToolNames() ([]string, error) {
	result, err := m.ClientSession.ListTools(m.ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	return names, nil
}
