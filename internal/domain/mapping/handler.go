package mapping

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/extraction"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Handler exposes the FHIR mapping stage over HTTP.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new mapping handler.
func NewHandler(logger zerolog.Logger) *Handler {
	return &Handler{log: logger.With().Str("stage", "mapping").Logger()}
}

// RegisterRoutes registers the stage endpoint and its liveness check.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/map", h.Map)
	e.GET("/map/health", h.Health)
}

type mapRequest struct {
	DocumentID string                `json:"documentId"`
	Extracted  *extraction.Fields    `json:"extracted"`
	Warnings   []string              `json:"warnings"`
	Trace      []extraction.TraceRef `json:"trace"`
}

func (h *Handler) Map(c echo.Context) error {
	var req mapRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}
	if req.Extracted == nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody("extracted is required"))
	}

	resources := MapResources(*req.Extracted, req.Trace)
	warnings := req.Warnings
	if warnings == nil {
		warnings = make([]string, 0)
	}

	h.log.Debug().
		Str("document_id", req.DocumentID).
		Int("resources", len(resources)).
		Msg("resources mapped")

	return c.JSON(http.StatusOK, Bundle{
		DocumentID:  req.DocumentID,
		FHIRVersion: fhir.Version,
		Warnings:    warnings,
		Resources:   resources,
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "mapping"})
}
