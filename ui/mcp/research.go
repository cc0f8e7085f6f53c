package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	domain "github.com/AzielCF/az-insights/research/domain"
)

type SearchUsecase interface {
	Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error)
	SelectRecord(ctx context.Context, contentType domain.ContentType, id string) (domain.SelectionResult, error)
}

type ResearchHandler struct {
	search SearchUsecase
}

func InitMcpResearch(search SearchUsecase) *ResearchHandler {
	return &ResearchHandler{search: search}
}

func (h *ResearchHandler) AddResearchTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolSearch(), h.handleSearch)
	mcpServer.AddTool(h.toolSelect(), h.handleSelect)
}

func (h *ResearchHandler) toolSearch() mcp.Tool {
	return mcp.NewTool(
		"research_search",
		mcp.WithDescription("Semantic search over stored documents, insights, jobs-to-be-done and metrics."),
		mcp.WithTitleAnnotation("Search Research"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("query",
			mcp.Description("Natural language query."),
			mcp.Required(),
		),
		mcp.WithString("types",
			mcp.Description("Optional comma separated content types: document, insight, jtbd, metric."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default 10)."),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum cosine similarity between -1 and 1 (default 0)."),
		),
	)
}

func (h *ResearchHandler) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return nil, err
	}

	req := domain.SearchRequest{
		Query:     query,
		Limit:     request.GetInt("limit", 0),
		Threshold: request.GetFloat("threshold", 0),
	}
	for _, t := range strings.Split(request.GetString("types", ""), ",") {
		if t = strings.TrimSpace(t); t != "" {
			req.Types = append(req.Types, t)
		}
	}

	results, err := h.search.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "\n- [%s %s] %.3f %s", r.ContentType, r.ID, r.Similarity, r.Text)
	}
	return mcp.NewToolResultStructured(results, b.String()), nil
}

func (h *ResearchHandler) toolSelect() mcp.Tool {
	return mcp.NewTool(
		"research_select",
		mcp.WithDescription("Add a stored insight, job-to-be-done or metric to the working context by ID."),
		mcp.WithTitleAnnotation("Select Research Record"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("content_type",
			mcp.Description("One of insight, jtbd, metric."),
			mcp.Enum("insight", "jtbd", "metric"),
			mcp.Required(),
		),
		mcp.WithString("id",
			mcp.Description("Record ID returned by research_search."),
			mcp.Required(),
		),
	)
}

func (h *ResearchHandler) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contentType, err := request.RequireString("content_type")
	if err != nil {
		return nil, err
	}
	id, err := request.RequireString("id")
	if err != nil {
		return nil, err
	}

	result, err := h.search.SelectRecord(ctx, domain.ContentType(contentType), id)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultStructured(result, result.Message), nil
}
