package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-insights/pkg/utils"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/validations"
)

// LimitsStore persists budget overrides across restarts.
type LimitsStore interface {
	SetContextLimits(ctx context.Context, maxTokens, tokenBuffer int) error
}

type Context struct {
	Manager domain.IContextManager
	Limits  LimitsStore
}

func InitRestContext(app fiber.Router, manager domain.IContextManager, limits LimitsStore) Context {
	rest := Context{Manager: manager, Limits: limits}
	app.Get("/context/summary", rest.GetSummary)
	app.Get("/context/budget", rest.CheckBudget)
	app.Get("/context/prompt", rest.BuildPrompt)
	app.Post("/context/selections", rest.AddSelection)
	app.Delete("/context/selections", rest.ClearSelection)
	app.Delete("/context/selections/:type/:id", rest.RemoveSelection)
	app.Post("/context/truncate", rest.Truncate)
	app.Put("/context/limits", rest.UpdateLimits)

	return rest
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
		Status:  fiber.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: err.Error(),
	})
}

func (handler *Context) GetSummary(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Context summary retrieved",
		Results: handler.Manager.GetContextSummary(),
	})
}

func (handler *Context) CheckBudget(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Token budget checked",
		Results: handler.Manager.CheckTokenBudget(),
	})
}

func (handler *Context) BuildPrompt(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Prompt context built",
		Results: fiber.Map{
			"prompt":       handler.Manager.BuildPromptContext(),
			"total_tokens": handler.Manager.GetTotalTokens(),
		},
	})
}

func (handler *Context) AddSelection(c *fiber.Ctx) error {
	var request domain.AddSelectionRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}

	ctx := c.UserContext()
	utils.PanicIfNeeded(validations.ValidateAddSelection(ctx, request))

	itemType, err := domain.ParseItemType(request.ItemType)
	utils.PanicIfNeeded(err)

	item, err := domain.DecodeItem(itemType, request.Item)
	utils.PanicIfNeeded(err)
	utils.PanicIfNeeded(validations.ValidateContextItem(ctx, item))

	result, err := handler.Manager.AddSelection(itemType, item)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}

func (handler *Context) RemoveSelection(c *fiber.Ctx) error {
	itemType, err := domain.ParseItemType(c.Params("type"))
	utils.PanicIfNeeded(err)

	result, err := handler.Manager.RemoveSelection(itemType, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}

// ClearSelection clears one collection when ?type= is given, otherwise all.
func (handler *Context) ClearSelection(c *fiber.Ctx) error {
	var itemType domain.ItemType
	if raw := c.Query("type"); raw != "" && raw != "all" {
		parsed, err := domain.ParseItemType(raw)
		utils.PanicIfNeeded(err)
		itemType = parsed
	}

	result, err := handler.Manager.ClearSelection(itemType)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}

func (handler *Context) Truncate(c *fiber.Ctx) error {
	var request domain.TruncateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return badRequest(c, err)
		}
	}
	utils.PanicIfNeeded(validations.ValidateTruncate(c.UserContext(), request))

	result := handler.Manager.TruncateIfNeeded(request.TargetPercent)

	message := "Context already within target"
	if result.Truncated {
		message = "Context truncated"
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: message,
		Results: result,
	})
}

func (handler *Context) UpdateLimits(c *fiber.Ctx) error {
	var request domain.UpdateLimitsRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}
	utils.PanicIfNeeded(validations.ValidateUpdateLimits(c.UserContext(), request))

	if handler.Limits != nil {
		utils.PanicIfNeeded(handler.Limits.SetContextLimits(c.UserContext(), request.MaxTokens, request.TokenBuffer))
	}
	handler.Manager.SetLimits(request.MaxTokens, request.TokenBuffer)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Context limits updated",
		Results: handler.Manager.CheckTokenBudget(),
	})
}
