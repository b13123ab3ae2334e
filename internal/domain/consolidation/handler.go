package consolidation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/platform/fhir"
	"github.com/fhirflow/fhirflow/pkg/pagination"
)

// Handler exposes the consolidation store over HTTP.
type Handler struct {
	store *Store
	log   zerolog.Logger
}

// NewHandler creates a new consolidation handler.
func NewHandler(store *Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   logger.With().Str("component", "consolidation").Logger(),
	}
}

// RegisterRoutes registers the read-side API.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/patients", h.ListPatients)
	e.GET("/api/patients/:id", h.GetPatient)
	e.POST("/api/patients/:id/images/clear", h.ClearImages)
	e.GET("/api/uploads", h.ListUploads)
	e.GET("/api/resources", h.ListResources)
	e.GET("/api/stats", h.GetStats)
	e.GET("/api/activity", h.ListActivity)
}

func (h *Handler) ListPatients(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patients": h.store.List(),
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	record, err := h.store.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, fhir.ErrorBody("patient not found"))
		}
		return c.JSON(http.StatusInternalServerError, fhir.ErrorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) ClearImages(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.ClearImages(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, fhir.ErrorBody("patient not found"))
		}
		return c.JSON(http.StatusInternalServerError, fhir.ErrorBody(err.Error()))
	}
	h.log.Info().Str("patient_id", id).Msg("image history cleared")
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) ListUploads(c echo.Context) error {
	params := pagination.FromContext(c)
	uploads := h.store.Uploads()
	lo, hi := params.Window(len(uploads))
	return c.JSON(http.StatusOK, pagination.NewResponse(uploads[lo:hi], len(uploads), params.Limit, params.Offset))
}

func (h *Handler) ListResources(c echo.Context) error {
	params := pagination.FromContext(c)
	resources := h.store.Resources()
	lo, hi := params.Window(len(resources))
	return c.JSON(http.StatusOK, pagination.NewResponse(resources[lo:hi], len(resources), params.Limit, params.Offset))
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Stats())
}

func (h *Handler) ListActivity(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"activity": h.store.Activity(limit),
	})
}
