package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-insights/pkg/jobworker"
	"github.com/AzielCF/az-insights/pkg/utils"
)

type PoolStatsProvider interface {
	GetStats() jobworker.PoolStats
}

type System struct {
	Pool     PoolStatsProvider
	Settings map[string]any
}

func InitRestSystem(app fiber.Router, pool PoolStatsProvider, settings map[string]any) System {
	rest := System{Pool: pool, Settings: settings}
	app.Get("/system/worker-pool/stats", rest.GetWorkerPoolStats)
	app.Get("/system/settings", rest.GetSettings)

	return rest
}

// GetWorkerPoolStats returns real-time stats of the ingest worker pool.
func (handler *System) GetWorkerPoolStats(c *fiber.Ctx) error {
	if handler.Pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  fiber.StatusServiceUnavailable,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Ingest worker pool not initialized",
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Worker pool stats retrieved",
		Results: handler.Pool.GetStats(),
	})
}

func (handler *System) GetSettings(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Settings retrieved",
		Results: handler.Settings,
	})
}
