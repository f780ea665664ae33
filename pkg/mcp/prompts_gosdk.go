package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

// promptCallRequestAdapter adapts MCP GetPromptRequest to api.PromptCallRequest
type promptCallRequestAdapter struct {
	request *mcp.GetPromptRequest
}

func (p *promptCallRequestAdapter) GetArguments() map[string]string {
	if p.request == nil || p.request.Params == nil || p.request.Params.Arguments == nil {
		return make(map[string]string)
	}
	return p.request.Params.Arguments
}

// ServerPromptToGoSdkPrompt converts an api.ServerPrompt to MCP SDK types
func ServerPromptToGoSdkPrompt(s *Server, serverPrompt api.ServerPrompt) (*mcp.Prompt, mcp.PromptHandler, error) {
	var args []*mcp.PromptArgument
	for _, arg := range serverPrompt.Prompt.Arguments {
		args = append(args, &mcp.PromptArgument{
			Name:        arg.Name,
			Description: arg.Description,
			Required:    arg.Required,
		})
	}

	mcpPrompt := &mcp.Prompt{
		Name:        serverPrompt.Prompt.Name,
		Description: serverPrompt.Prompt.Description,
		Arguments:   args,
	}

	handler := func(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		params := api.PromptHandlerParams{
			Context:           ctx,
			KubernetesClient:  s.k,
			PromptCallRequest: &promptCallRequestAdapter{request: request},
		}

		result, err := serverPrompt.Handler(params)
		if err != nil {
			return nil, err
		}

		if result.Error != nil {
			return nil, result.Error
		}

		var messages []*mcp.PromptMessage
		for _, msg := range result.Messages {
			messages = append(messages, &mcp.PromptMessage{
				Role:    mcp.Role(msg.Role),
				Content: &mcp.TextContent{Text: msg.Content.Text},
			})
		}

		return &mcp.GetPromptResult{
			Description: result.Description,
			Messages:    messages,
		}, nil
	}

	return mcpPrompt, handler, nil
}
