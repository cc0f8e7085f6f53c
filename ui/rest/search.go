package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-insights/pkg/utils"
	domain "github.com/AzielCF/az-insights/research/domain"
)

type SearchUsecase interface {
	Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error)
	SelectRecord(ctx context.Context, contentType domain.ContentType, id string) (domain.SelectionResult, error)
}

type Search struct {
	Service SearchUsecase
}

func InitRestSearch(app fiber.Router, service SearchUsecase) Search {
	rest := Search{Service: service}
	app.Post("/search", rest.Search)
	app.Post("/search/select/:type/:id", rest.SelectResult)

	return rest
}

func (handler *Search) Search(c *fiber.Ctx) error {
	var request domain.SearchRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}

	results, err := handler.Service.Search(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Search completed",
		Results: results,
	})
}

func (handler *Search) SelectResult(c *fiber.Ctx) error {
	result, err := handler.Service.SelectRecord(c.UserContext(), domain.ContentType(c.Params("type")), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}
