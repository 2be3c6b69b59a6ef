package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nea-sg/rain-radar-camera/internal/registry"
	"github.com/nea-sg/rain-radar-camera/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, reg *registry.Registry, states *store.MemoryStore) {
	v1 := app.Group("/api/v1")

	v1.Get("/camera/:entity_id/image", func(c *fiber.Ctx) error {
		entityID, err := parseEntityParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entity, ok := reg.Get(entityID)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown camera entity")
		}

		img := entity.Image(c.UserContext())
		if img == nil {
			// No image yet is not an error; the camera degrades silently.
			return c.SendStatus(fiber.StatusNoContent)
		}

		c.Set(fiber.HeaderContentType, entity.ContentType())
		return c.Send(img)
	})

	v1.Get("/camera/:entity_id", func(c *fiber.Ctx) error {
		entityID, err := parseEntityParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entity, ok := reg.Get(entityID)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown camera entity")
		}

		state, _, err := states.GetState(entityID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read entity state")
		}

		return c.JSON(fiber.Map{
			"entity_id":          entity.EntityID(),
			"unique_id":          entity.UniqueID(),
			"name":               entity.Name(),
			"state":              state,
			"supported_features": entity.SupportedFeatures(),
			"content_type":       entity.ContentType(),
			"stream_source":      entity.StreamSource(),
			"attributes":         entity.ExtraStateAttributes(),
			"device_info":        entity.DeviceInfo(),
		})
	})

	v1.Get("/camera/:entity_id/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := states.GetRange(req.EntityID, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no state history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch state history")
		}

		return c.JSON(fiber.Map{
			"entity_id": req.EntityID,
			"from":      req.From,
			"to":        req.To,
			"records":   records,
		})
	})
}

// entityParam holds the path parameter identifying an entity.
type entityParam struct {
	EntityID string `validate:"required"`
}

func parseEntityParam(c *fiber.Ctx) (string, error) {
	p := entityParam{EntityID: c.Params("entity_id")}
	if err := validate.Struct(p); err != nil {
		return "", err
	}
	return p.EntityID, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	EntityID string    `validate:"required"`
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	entityID, err := parseEntityParam(c)
	if err != nil {
		return err
	}
	h.EntityID = entityID

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
