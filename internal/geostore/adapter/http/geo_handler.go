// Package http adapts the geo store usecases to a Fiber REST surface.
// Handlers stay thin: parse, delegate, map the shared error taxonomy onto
// status codes.
package http

import (
	"theia-geo/internal/geostore/usecase"
	apperrors "theia-geo/internal/shared/errors"
	"theia-geo/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// KMLContentType is the media type served for KML exports.
const KMLContentType = "application/vnd.google-earth.kml+xml"

// GeoHTTPHandler handles the geo store REST endpoints
type GeoHTTPHandler struct {
	GeoUC usecase.GeoUsecaseInterface
	Log   logger.Logger
}

// NewGeoHTTPHandler creates a handler bound to the given usecase
func NewGeoHTTPHandler(geoUC usecase.GeoUsecaseInterface, log logger.Logger) *GeoHTTPHandler {
	return &GeoHTTPHandler{
		GeoUC: geoUC,
		Log:   log.WithComponent("geo-http"),
	}
}

// RegisterRoutes registers every geo store route on the given router
func (h *GeoHTTPHandler) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api")

	api.Post("/collections", h.IngestGeoJSON)
	api.Post("/collections/kml", h.IngestKML)
	api.Get("/collections", h.ListCollections)
	api.Delete("/collections", h.DeleteAll)
	api.Get("/collections/:id/kml", h.ExportCollectionKML)
	api.Get("/collections/:id", h.GetCollection)
	api.Delete("/collections/:id", h.DeleteCollection)

	api.Get("/features", h.ListFeatures)
	api.Post("/features", h.CreateFeature)
	api.Get("/features/:id", h.GetFeature)
	api.Delete("/features/:id", h.DeleteFeature)

	api.Post("/query/within-circle", h.WithinCircle)
	api.Post("/query/within-polygon", h.WithinPolygon)
}

// respondError maps a usecase error onto the uniform status/message contract
func (h *GeoHTTPHandler) respondError(c *fiber.Ctx, err error) error {
	status := apperrors.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		h.Log.WithContext(c.UserContext()).Errorf("Request failed: %v", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": err.Error(),
	})
}

// IngestGeoJSON accepts a raw GeoJSON feature collection body
func (h *GeoHTTPHandler) IngestGeoJSON(c *fiber.Ctx) error {
	collection, err := h.GeoUC.IngestGeoJSON(c.UserContext(), c.Body())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(collection)
}

// IngestKML accepts a raw KML document body and stores it as GeoJSON
func (h *GeoHTTPHandler) IngestKML(c *fiber.Ctx) error {
	collection, err := h.GeoUC.IngestKML(c.UserContext(), c.Body())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(collection)
}

func (h *GeoHTTPHandler) ListCollections(c *fiber.Ctx) error {
	collections, err := h.GeoUC.ListCollections(c.UserContext(), c.QueryBool("includeFeatures"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(collections)
}

func (h *GeoHTTPHandler) GetCollection(c *fiber.Ctx) error {
	collection, err := h.GeoUC.GetCollection(c.UserContext(), c.Params("id"), c.QueryBool("includeFeatures"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(collection)
}

// ExportCollectionKML renders a stored collection as a KML document
func (h *GeoHTTPHandler) ExportCollectionKML(c *fiber.Ctx) error {
	rendered, err := h.GeoUC.ExportCollectionKML(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, KMLContentType)
	return c.Send(rendered)
}

func (h *GeoHTTPHandler) DeleteCollection(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.GeoUC.DeleteCollection(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "collection deleted",
		"id":      id,
	})
}

// DeleteAll clears both stores. Debug endpoint.
func (h *GeoHTTPHandler) DeleteAll(c *fiber.Ctx) error {
	if err := h.GeoUC.DeleteAll(c.UserContext()); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "all features and collections deleted",
	})
}

// ListFeatures returns every stored feature wrapped in the synthesized
// "All Features" collection
func (h *GeoHTTPHandler) ListFeatures(c *fiber.Ctx) error {
	collection, err := h.GeoUC.ListFeatures(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(collection)
}

func (h *GeoHTTPHandler) GetFeature(c *fiber.Ctx) error {
	feature, err := h.GeoUC.GetFeature(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(feature)
}

// CreateFeature persists one standalone feature. Debug endpoint.
func (h *GeoHTTPHandler) CreateFeature(c *fiber.Ctx) error {
	var req usecase.CreateFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, apperrors.NewValidationError("invalid feature body").WithCause(err))
	}

	feature, err := h.GeoUC.CreateFeature(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(feature)
}

// DeleteFeature removes one feature without touching its owning collection.
// Debug endpoint.
func (h *GeoHTTPHandler) DeleteFeature(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.GeoUC.DeleteFeature(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "feature deleted",
		"id":      id,
	})
}

// WithinCircle returns the features inside a spherical cap as an ephemeral
// collection
func (h *GeoHTTPHandler) WithinCircle(c *fiber.Ctx) error {
	var req usecase.WithinCircleRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, apperrors.NewValidationError("invalid circle query body").WithCause(err))
	}

	collection, err := h.GeoUC.WithinCircle(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(collection)
}

// WithinPolygon returns the features inside a closed ring as an ephemeral
// collection
func (h *GeoHTTPHandler) WithinPolygon(c *fiber.Ctx) error {
	var req usecase.WithinPolygonRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, apperrors.NewValidationError("invalid polygon query body").WithCause(err))
	}

	collection, err := h.GeoUC.WithinPolygon(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(collection)
}
