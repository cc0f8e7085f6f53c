package middleware

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	"github.com/AzielCF/az-insights/pkg/utils"
)

// Recovery renders values passed to utils.PanicIfNeeded, and real panics,
// as a ResponseData envelope.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			res := utils.ResponseData{
				Status:  fiber.StatusInternalServerError,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", recovered),
			}

			err, isError := recovered.(error)
			var genericErr pkgError.GenericError
			if isError && errors.As(err, &genericErr) {
				res.Status = genericErr.StatusCode()
				res.Code = genericErr.ErrCode()
				res.Message = err.Error()

				var budgetErr *pkgError.BudgetExceededError
				if errors.As(err, &budgetErr) {
					res.Results = budgetErr
				}
			}

			if res.Status >= fiber.StatusInternalServerError {
				logrus.Errorf("[REST] Panic recovered in %s %s: %v", ctx.Method(), ctx.Path(), recovered)
			} else {
				logrus.Debugf("[REST] %s %s -> %d %s", ctx.Method(), ctx.Path(), res.Status, res.Code)
			}

			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
