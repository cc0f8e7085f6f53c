package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-insights/pkg/utils"
	domain "github.com/AzielCF/az-insights/research/domain"
)

type EmbeddingCacheUsecase interface {
	CacheStats() domain.EmbeddingCacheStats
	Usage() domain.EmbeddingUsage
	ClearCache(ctx context.Context) (int, error)
	CleanupExpired() int
}

type EmbeddingCache struct {
	Service EmbeddingCacheUsecase
}

func InitRestEmbeddingCache(app fiber.Router, service EmbeddingCacheUsecase) EmbeddingCache {
	rest := EmbeddingCache{Service: service}
	app.Get("/embedding-cache/stats", rest.GetStats)
	app.Post("/embedding-cache/clear", rest.Clear)
	app.Post("/embedding-cache/cleanup", rest.Cleanup)

	return rest
}

func (handler *EmbeddingCache) GetStats(c *fiber.Ctx) error {
	stats := handler.Service.CacheStats()
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Embedding cache stats retrieved",
		Results: fiber.Map{
			"cache":     stats,
			"hit_ratio": stats.HitRatio(),
			"usage":     handler.Service.Usage(),
		},
	})
}

func (handler *EmbeddingCache) Clear(c *fiber.Ctx) error {
	shared, err := handler.Service.ClearCache(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Embedding cache cleared successfully",
		Results: fiber.Map{"shared_deleted": shared},
	})
}

func (handler *EmbeddingCache) Cleanup(c *fiber.Ctx) error {
	removed := handler.Service.CleanupExpired()
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Expired embeddings removed",
		Results: fiber.Map{"removed": removed},
	})
}
