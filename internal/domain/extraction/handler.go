package extraction

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/recognition"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Handler exposes the field-extraction stage over HTTP.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new extraction handler.
func NewHandler(logger zerolog.Logger) *Handler {
	return &Handler{log: logger.With().Str("stage", "extraction").Logger()}
}

// RegisterRoutes registers the stage endpoint and its liveness check.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/extract", h.Extract)
	e.GET("/extract/health", h.Health)
}

type extractRequest struct {
	DocumentID string                `json:"documentId"`
	Segments   []recognition.Segment `json:"textSegments"`
}

type extractResponse struct {
	DocumentID string     `json:"documentId"`
	Extracted  Fields     `json:"extracted"`
	Trace      []TraceRef `json:"trace"`
}

func (h *Handler) Extract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}
	if req.Segments == nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody("textSegments is required"))
	}

	fields, trace := Extract(req.Segments)

	h.log.Debug().
		Str("document_id", req.DocumentID).
		Bool("has_name", fields.PatientName != nil).
		Int("lab_tests", len(fields.LabTests)).
		Msg("fields extracted")

	return c.JSON(http.StatusOK, extractResponse{
		DocumentID: req.DocumentID,
		Extracted:  fields,
		Trace:      trace,
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "extraction"})
}
