package rest

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AzielCF/az-insights/pkg/utils"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthRecord struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type Health struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

func InitRestHealth(app fiber.Router, checks map[string]HealthCheck) Health {
	handler := Health{Checks: checks, Timeout: 3 * time.Second}
	app.Get("/health/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	records := h.run(c.UserContext())

	healthy := true
	for _, r := range records {
		if r.Status != "ok" {
			healthy = false
			break
		}
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  fiber.StatusServiceUnavailable,
			Code:    "UNHEALTHY",
			Message: "One or more dependencies are unavailable",
			Results: records,
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: records,
	})
}

func (h *Health) run(ctx context.Context) []HealthRecord {
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]HealthRecord, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, h.Timeout)
		start := time.Now()
		err := h.Checks[name](checkCtx)
		cancel()

		record := HealthRecord{Name: name, Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			record.Status = "error"
			record.Error = err.Error()
		}
		records = append(records, record)
	}
	return records
}
