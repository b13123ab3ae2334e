package ingestion

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Handler exposes the ingestion stage over HTTP.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new ingestion handler.
func NewHandler(logger zerolog.Logger) *Handler {
	return &Handler{log: logger.With().Str("stage", "ingestion").Logger()}
}

// RegisterRoutes registers the stage endpoint and its liveness check.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/ingest", h.Ingest)
	e.GET("/ingest/health", h.Health)
}

func (h *Handler) Ingest(c echo.Context) error {
	var env Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}

	classified, err := Classify(env)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}

	h.log.Debug().
		Str("document_id", classified.DocumentID).
		Str("doc_type", classified.DocType).
		Msg("document classified")

	return c.JSON(http.StatusOK, classified)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "ingestion"})
}
