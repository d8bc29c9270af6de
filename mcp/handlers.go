package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies("", nil)
	}
	return &HandlerSet{deps: deps}
}

// methodBrief is the per-method entry of the summary output
type methodBrief struct {
	File     string   `json:"file"`
	Method   string   `json:"method"`
	Status   string   `json:"status"`
	Regions  int      `json:"irreducible_regions,omitempty"`
	Error    string   `json:"error,omitempty"`
	Comments []string `json:"comments,omitempty"`
}

// HandleStructureGraph handles the structure_graph tool
func (h *HandlerSet) HandleStructureGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, errResult := requirePath(args)
	if errResult != nil {
		return errResult, nil
	}

	// Parse output_mode parameter (default: "summary")
	outputMode := "summary"
	if om, ok := args["output_mode"].(string); ok {
		outputMode = om
	}
	if outputMode != "summary" && outputMode != "full" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid output_mode %q, must be summary or full", outputMode)), nil
	}

	var full bytes.Buffer
	explicit := map[string]bool{"json": true}
	req := domain.StructureRequest{
		Paths:        []string{path},
		OutputFormat: domain.OutputFormatJSON,
		OutputWriter: io.Discard,
		ConfigPath:   h.deps.ConfigPath(),
	}
	if outputMode == "full" {
		req.OutputWriter = &full
		req.ShowTokens = true
		explicit["tokens"] = true
	}

	result, errResult := h.run(ctx, path, req, explicit)
	if errResult != nil {
		return errResult, nil
	}

	if outputMode == "full" {
		return mcp.NewToolResultText(full.String()), nil
	}

	methods := make([]methodBrief, 0, len(result.Methods))
	for i := range result.Methods {
		methods = append(methods, brief(&result.Methods[i]))
	}
	return jsonResult(map[string]interface{}{
		"summary":      result.Summary,
		"has_problems": result.HasProblems(),
		"methods":      methods,
		"warnings":     result.Warnings,
		"errors":       result.Errors,
	})
}

// HandleCheckReducibility handles the check_reducibility tool
func (h *HandlerSet) HandleCheckReducibility(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, errResult := requirePath(args)
	if errResult != nil {
		return errResult, nil
	}

	result, errResult := h.run(ctx, path, domain.StructureRequest{
		Paths:        []string{path},
		OutputFormat: domain.OutputFormatJSON,
		OutputWriter: io.Discard,
		ConfigPath:   h.deps.ConfigPath(),
	}, map[string]bool{"json": true})
	if errResult != nil {
		return errResult, nil
	}

	irreducible := []methodBrief{}
	unresolved := []methodBrief{}
	for i := range result.Methods {
		m := &result.Methods[i]
		switch m.Status {
		case domain.MethodIrreducible:
			irreducible = append(irreducible, brief(m))
		case domain.MethodAborted, domain.MethodFailed:
			unresolved = append(unresolved, brief(m))
		}
	}

	return jsonResult(map[string]interface{}{
		"reducible":           len(irreducible) == 0 && len(unresolved) == 0 && len(result.Errors) == 0,
		"total_methods":       result.Summary.TotalMethods,
		"irreducible_methods": irreducible,
		"unresolved_methods":  unresolved,
		"errors":              result.Errors,
	})
}

// run executes the structure use case for a single tool call
func (h *HandlerSet) run(ctx context.Context, path string, req domain.StructureRequest, explicitFlags map[string]bool) (*domain.StructureResponse, *mcp.CallToolResult) {
	uc, err := h.deps.BuildStructureUseCase(path, explicitFlags)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to create structurer: %v", err))
	}

	result, err := uc.Execute(ctx, req)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("structuring failed: %v", err))
	}
	return result, nil
}

func requirePath(args map[string]interface{}) (string, *mcp.CallToolResult) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", mcp.NewToolResultError("path parameter is required and must be a string")
	}

	// Validate path exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path))
	}
	return path, nil
}

func brief(m *domain.MethodResult) methodBrief {
	return methodBrief{
		File:     m.File,
		Method:   m.QualifiedName(),
		Status:   string(m.Status),
		Regions:  m.IrreducibleCount,
		Error:    m.Error,
		Comments: m.Comments,
	}
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
