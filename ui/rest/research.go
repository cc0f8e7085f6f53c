package rest

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	"github.com/AzielCF/az-insights/pkg/utils"
	domain "github.com/AzielCF/az-insights/research/domain"
)

type IngestUsecase interface {
	SubmitDocument(ctx context.Context, request domain.SubmitDocumentRequest) (domain.SubmitResult, error)
	SubmitInsight(ctx context.Context, request domain.SubmitInsightRequest) (domain.SubmitResult, error)
	SubmitJTBD(ctx context.Context, request domain.SubmitJTBDRequest) (domain.SubmitResult, error)
	SubmitMetric(ctx context.Context, request domain.SubmitMetricRequest) (domain.SubmitResult, error)
	Reindex(ctx context.Context, contentType domain.ContentType) (int, error)
	Get(ctx context.Context, contentType domain.ContentType, id string) (domain.Record, error)
	List(ctx context.Context, contentType domain.ContentType, filter domain.ListFilter) ([]domain.Record, error)
	Delete(ctx context.Context, contentType domain.ContentType, id string) error
}

type Research struct {
	Service IngestUsecase
}

func InitRestResearch(app fiber.Router, service IngestUsecase) Research {
	rest := Research{Service: service}
	app.Post("/research/documents", rest.SubmitDocument)
	app.Post("/research/insights", rest.SubmitInsight)
	app.Post("/research/jtbds", rest.SubmitJTBD)
	app.Post("/research/metrics", rest.SubmitMetric)
	app.Get("/research/:type", rest.List)
	app.Post("/research/:type/reindex", rest.Reindex)
	app.Get("/research/:type/:id", rest.Get)
	app.Delete("/research/:type/:id", rest.Delete)

	return rest
}

// contentTypeParam accepts the plural path segments used by the routes.
func contentTypeParam(c *fiber.Ctx) domain.ContentType {
	raw := c.Params("type")
	ct := domain.ContentType(raw)
	if !ct.IsValid() && len(raw) > 1 && raw[len(raw)-1] == 's' {
		ct = domain.ContentType(raw[:len(raw)-1])
	}
	if !ct.IsValid() {
		utils.PanicIfNeeded(pkgError.ValidationError(fmt.Sprintf("invalid content type %q", raw)))
	}
	return ct
}

func submitted(c *fiber.Ctx, result domain.SubmitResult) error {
	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%s stored", result.ContentType),
		Results: result,
	})
}

func (handler *Research) SubmitDocument(c *fiber.Ctx) error {
	var request domain.SubmitDocumentRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}
	result, err := handler.Service.SubmitDocument(c.UserContext(), request)
	utils.PanicIfNeeded(err)
	return submitted(c, result)
}

func (handler *Research) SubmitInsight(c *fiber.Ctx) error {
	var request domain.SubmitInsightRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}
	result, err := handler.Service.SubmitInsight(c.UserContext(), request)
	utils.PanicIfNeeded(err)
	return submitted(c, result)
}

func (handler *Research) SubmitJTBD(c *fiber.Ctx) error {
	var request domain.SubmitJTBDRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}
	result, err := handler.Service.SubmitJTBD(c.UserContext(), request)
	utils.PanicIfNeeded(err)
	return submitted(c, result)
}

func (handler *Research) SubmitMetric(c *fiber.Ctx) error {
	var request domain.SubmitMetricRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, err)
	}
	result, err := handler.Service.SubmitMetric(c.UserContext(), request)
	utils.PanicIfNeeded(err)
	return submitted(c, result)
}

func (handler *Research) List(c *fiber.Ctx) error {
	ct := contentTypeParam(c)
	records, err := handler.Service.List(c.UserContext(), ct, domain.ListFilter{
		DocumentID: c.Query("document_id"),
		Query:      c.Query("q"),
		Limit:      c.QueryInt("limit", 50),
	})
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d %s records", len(records), ct),
		Results: records,
	})
}

func (handler *Research) Get(c *fiber.Ctx) error {
	record, err := handler.Service.Get(c.UserContext(), contentTypeParam(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Record retrieved",
		Results: record,
	})
}

func (handler *Research) Delete(c *fiber.Ctx) error {
	utils.PanicIfNeeded(handler.Service.Delete(c.UserContext(), contentTypeParam(c), c.Params("id")))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Record deleted",
	})
}

func (handler *Research) Reindex(c *fiber.Ctx) error {
	queued, err := handler.Service.Reindex(c.UserContext(), contentTypeParam(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Embedding jobs queued",
		Results: fiber.Map{"queued": queued},
	})
}
