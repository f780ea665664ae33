package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"k8s.io/utils/ptr"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

// ToolCallRequest adapts the go-sdk raw tool call params to api.ToolCallRequest.
type ToolCallRequest struct {
	Name      string
	Arguments map[string]any
}

var _ api.ToolCallRequest = (*ToolCallRequest)(nil)

func (t *ToolCallRequest) GetArguments() map[string]any {
	if t.Arguments == nil {
		return make(map[string]any)
	}
	return t.Arguments
}

// GoSdkToolCallParamsToToolCallRequest decodes the raw JSON arguments of a
// go-sdk tool call into the map form tool handlers consume.
func GoSdkToolCallParamsToToolCallRequest(params *mcp.CallToolParamsRaw) (*ToolCallRequest, error) {
	request := &ToolCallRequest{Arguments: make(map[string]any)}
	if params == nil {
		return request, nil
	}
	request.Name = params.Name
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &request.Arguments); err != nil {
			return nil, fmt.Errorf("failed to parse tool call arguments: %w", err)
		}
	}
	return request, nil
}

// ServerToolToGoSdkTool converts an api.ServerTool to the go-sdk tool and
// handler pair the MCP server registers.
func ServerToolToGoSdkTool(s *Server, serverTool api.ServerTool) (*mcp.Tool, mcp.ToolHandler, error) {
	tool := &mcp.Tool{
		Name:        serverTool.Tool.Name,
		Title:       serverTool.Tool.Annotations.Title,
		Description: serverTool.Tool.Description,
		InputSchema: serverTool.Tool.InputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:           serverTool.Tool.Annotations.Title,
			ReadOnlyHint:    ptr.Deref(serverTool.Tool.Annotations.ReadOnlyHint, false),
			DestructiveHint: serverTool.Tool.Annotations.DestructiveHint,
			IdempotentHint:  ptr.Deref(serverTool.Tool.Annotations.IdempotentHint, false),
			OpenWorldHint:   serverTool.Tool.Annotations.OpenWorldHint,
		},
	}

	handler := func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		toolCallRequest, err := GoSdkToolCallParamsToToolCallRequest(request.Params)
		if err != nil {
			return NewTextResult("", err), nil
		}
		result, err := serverTool.Handler(api.ToolHandlerParams{
			Context:          ctx,
			KubernetesClient: s.k,
			ToolCallRequest:  toolCallRequest,
			ListOutput:       s.configuration.ListOutput(),
		})
		if err != nil {
			return NewTextResult("", err), nil
		}
		if result.Error != nil {
			return NewTextResult("", result.Error), nil
		}
		callToolResult := NewTextResult(result.Content, nil)
		callToolResult.StructuredContent = result.StructuredContent
		return callToolResult, nil
	}

	return tool, handler, nil
}
