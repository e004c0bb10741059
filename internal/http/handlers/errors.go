package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"facturacion/internal/domain"
	applog "facturacion/internal/log"
	"facturacion/internal/validate"
)

const internalMessage = "internal error"

// ErrorHandler is the app-wide fiber error handler. Client errors raised with
// fiber.NewError keep their message; anything else is logged and hidden.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internalMessage})
}

// respondErr maps a service error onto a status code. Unclassified errors go
// back up the chain to ErrorHandler.
func respondErr(c *fiber.Ctx, action string, err error) error {
	var status int
	switch domain.KindOf(err) {
	case domain.KindInvalidArgument:
		applog.Security(c, action+".invalid", map[string]any{"reason": err.Error()})
		status = fiber.StatusBadRequest
	case domain.KindNotFound:
		status = fiber.StatusNotFound
	case domain.KindConflict:
		status = fiber.StatusConflict
	default:
		return err
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, action, msg string) error {
	applog.Security(c, action+".invalid", map[string]any{"reason": msg})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func pathID(c *fiber.Ctx) (int64, bool) {
	return validate.ID(c.Params("id"))
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return errors.New("request body is required")
	}
	if err := c.BodyParser(out); err != nil {
		return errors.New("malformed JSON body")
	}
	return nil
}
