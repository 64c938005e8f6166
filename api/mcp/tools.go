package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/innerself/pkg/mind"
)

var (
	contextToolName    = "innerself_context"
	contextDescription = "Render a character's inner context: their latest inner thoughts, active goals, and recent secrets. Returns an empty context for characters that have no mind yet. Inject the result into the character's prompt."

	brainToolName    = "innerself_brain"
	brainDescription = "Return the full mind of one character: thoughts, memories, goals, secrets, and opinions."

	brainsToolName    = "innerself_brains"
	brainsDescription = "List every character with a mind, with counts of thoughts, memories, goals, secrets, and opinions and their latest thought."
)

// NameInput names the character a tool call is about.
type NameInput struct {
	Name string `json:"name" jsonschema:"the character's name, case-sensitive"`
}

// ContextOutput is the structured output of innerself_context.
type ContextOutput struct {
	Name    string `json:"name"`
	Context string `json:"context"`
}

// BrainsInput is the (empty) input of innerself_brains.
type BrainsInput struct{}

// BrainsOutput is the JSON text returned by innerself_brains.
type BrainsOutput struct {
	Brains []mind.Summary `json:"brains"`
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}

func (s *Server) handleContext(_ context.Context, _ *mcp.CallToolRequest, input NameInput) (*mcp.CallToolResult, ContextOutput, error) {
	if input.Name == "" {
		return toolError("name is required"), ContextOutput{}, nil
	}

	output := ContextOutput{Name: input.Name, Context: s.config.Engine.Context(input.Name)}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: output.Context},
		},
	}, output, nil
}

// handleBrain returns the record as JSON text only. Records carry
// timestamps, so no output schema is declared for them.
func (s *Server) handleBrain(_ context.Context, _ *mcp.CallToolRequest, input NameInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("name is required"), nil, nil
	}

	r, ok := s.config.Engine.Store().Get(input.Name)
	if !ok {
		return toolError(fmt.Sprintf("no mind for %q", input.Name)), nil, nil
	}

	result, err := jsonResult(r)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize brain: %v", err)), nil, nil
	}
	return result, nil, nil
}

func (s *Server) handleBrains(_ context.Context, _ *mcp.CallToolRequest, _ BrainsInput) (*mcp.CallToolResult, any, error) {
	output := BrainsOutput{Brains: s.config.Engine.Store().Summaries()}

	result, err := jsonResult(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize brains: %v", err)), nil, nil
	}

	s.config.Logger.Debug("listed brains via MCP", "count", len(output.Brains))
	return result, nil, nil
}
