package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/validations"
)

type ContextHandler struct {
	manager domain.IContextManager
}

func InitMcpContext(manager domain.IContextManager) *ContextHandler {
	return &ContextHandler{manager: manager}
}

func (h *ContextHandler) AddContextTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolAddSelection(), h.handleAddSelection)
	mcpServer.AddTool(h.toolRemoveSelection(), h.handleRemoveSelection)
	mcpServer.AddTool(h.toolClearSelection(), h.handleClearSelection)
	mcpServer.AddTool(h.toolSummary(), h.handleSummary)
	mcpServer.AddTool(h.toolBudget(), h.handleBudget)
	mcpServer.AddTool(h.toolTruncate(), h.handleTruncate)
}

func (h *ContextHandler) toolAddSelection() mcp.Tool {
	return mcp.NewTool(
		"context_add_selection",
		mcp.WithDescription("Add an insight, job-to-be-done or metric to the working context if it fits in the token budget."),
		mcp.WithTitleAnnotation("Add Context Selection"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("item_type",
			mcp.Description("One of insight, jtbd, metric."),
			mcp.Enum("insight", "jtbd", "metric"),
			mcp.Required(),
		),
		mcp.WithObject("item",
			mcp.Description("The item. insight: {id, description, context}; jtbd: {id, statement, context, outcome}; metric: {id, name, description, current_value, target_value}."),
			mcp.Required(),
		),
	)
}

func (h *ContextHandler) handleAddSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawType, err := request.RequireString("item_type")
	if err != nil {
		return nil, err
	}
	itemType, err := domain.ParseItemType(rawType)
	if err != nil {
		return nil, err
	}

	rawItem, ok := request.GetArguments()["item"]
	if !ok {
		return nil, pkgError.ValidationError("item is required")
	}
	payload, err := json.Marshal(rawItem)
	if err != nil {
		return nil, fmt.Errorf("encoding item: %w", err)
	}

	item, err := domain.DecodeItem(itemType, payload)
	if err != nil {
		return nil, err
	}
	if err := validations.ValidateContextItem(ctx, item); err != nil {
		return nil, err
	}

	result, err := h.manager.AddSelection(itemType, item)
	if err != nil {
		var budgetErr *pkgError.BudgetExceededError
		if errors.As(err, &budgetErr) {
			res := mcp.NewToolResultStructured(budgetErr, budgetErr.Error()+". "+budgetErr.Suggestion)
			res.IsError = true
			return res, nil
		}
		return nil, err
	}

	return mcp.NewToolResultStructured(result, result.Message), nil
}

func (h *ContextHandler) toolRemoveSelection() mcp.Tool {
	return mcp.NewTool(
		"context_remove_selection",
		mcp.WithDescription("Remove a selected item from the working context."),
		mcp.WithTitleAnnotation("Remove Context Selection"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("item_type",
			mcp.Description("One of insight, jtbd, metric."),
			mcp.Enum("insight", "jtbd", "metric"),
			mcp.Required(),
		),
		mcp.WithString("item_id",
			mcp.Description("ID of the selected item."),
			mcp.Required(),
		),
	)
}

func (h *ContextHandler) handleRemoveSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawType, err := request.RequireString("item_type")
	if err != nil {
		return nil, err
	}
	itemID, err := request.RequireString("item_id")
	if err != nil {
		return nil, err
	}
	itemType, err := domain.ParseItemType(rawType)
	if err != nil {
		return nil, err
	}

	result, err := h.manager.RemoveSelection(itemType, itemID)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultStructured(result, result.Message), nil
}

func (h *ContextHandler) toolClearSelection() mcp.Tool {
	return mcp.NewTool(
		"context_clear_selection",
		mcp.WithDescription("Clear the selected items of one type, or everything when item_type is omitted or \"all\"."),
		mcp.WithTitleAnnotation("Clear Context Selection"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("item_type",
			mcp.Description("Optional: insight, jtbd, metric or all."),
			mcp.Enum("insight", "jtbd", "metric", "all"),
		),
	)
}

func (h *ContextHandler) handleClearSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var itemType domain.ItemType
	if raw := request.GetString("item_type", ""); raw != "" && raw != "all" {
		parsed, err := domain.ParseItemType(raw)
		if err != nil {
			return nil, err
		}
		itemType = parsed
	}

	result, err := h.manager.ClearSelection(itemType)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultStructured(result, result.Message), nil
}

func (h *ContextHandler) toolSummary() mcp.Tool {
	return mcp.NewTool(
		"context_summary",
		mcp.WithDescription("Show what is selected, token usage per type, and the assembled prompt context."),
		mcp.WithTitleAnnotation("Context Summary"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *ContextHandler) handleSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	summary := h.manager.GetContextSummary()
	budget := summary.TokenBudget

	fallback := fmt.Sprintf("%d insights, %d jtbds, %d metrics selected; %d of %d tokens used (%.1f%%)\n\n%s",
		summary.Insights.Count, summary.JTBDs.Count, summary.Metrics.Count,
		budget.TotalUsed, budget.MaxLimit-budget.BufferReserved, budget.PercentageUsed,
		h.manager.BuildPromptContext())
	return mcp.NewToolResultStructured(summary, fallback), nil
}

func (h *ContextHandler) toolBudget() mcp.Tool {
	return mcp.NewTool(
		"context_budget",
		mcp.WithDescription("Check how full the context token budget is and get recommendations."),
		mcp.WithTitleAnnotation("Check Token Budget"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *ContextHandler) handleBudget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	status := h.manager.CheckTokenBudget()
	fallback := fmt.Sprintf("Budget %s: %.1f%% used, %d tokens available", status.Status, status.PercentageUsed, status.TokensAvailable)
	return mcp.NewToolResultStructured(status, fallback), nil
}

func (h *ContextHandler) toolTruncate() mcp.Tool {
	return mcp.NewTool(
		"context_truncate",
		mcp.WithDescription("Drop the most recently added selections until usage is at or below the target percentage. Metrics are dropped first, then insights, then jobs-to-be-done."),
		mcp.WithTitleAnnotation("Truncate Context"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithNumber("target_percent",
			mcp.Description("Target usage percentage of the effective limit (default 75)."),
			mcp.Min(0),
			mcp.Max(100),
		),
	)
}

func (h *ContextHandler) handleTruncate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := request.GetFloat("target_percent", domain.DefaultTruncateTarget)
	if err := validations.ValidateTruncate(ctx, domain.TruncateRequest{TargetPercent: target}); err != nil {
		return nil, err
	}

	result := h.manager.TruncateIfNeeded(target)
	fallback := fmt.Sprintf("Removed %d items; %d -> %d tokens (target %d)",
		result.RemovedTotal(), result.TokensBefore, result.TokensAfter, result.TargetTokens)
	return mcp.NewToolResultStructured(result, fallback), nil
}
