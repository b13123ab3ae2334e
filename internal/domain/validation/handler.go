package validation

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/extraction"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Handler exposes the validation stage over HTTP.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new validation handler.
func NewHandler(logger zerolog.Logger) *Handler {
	return &Handler{log: logger.With().Str("stage", "validation").Logger()}
}

// RegisterRoutes registers the stage endpoint and its liveness check.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/validate", h.Validate)
	e.GET("/validate/health", h.Health)
}

type validateRequest struct {
	DocumentID string                `json:"documentId"`
	Extracted  *extraction.Fields    `json:"extracted"`
	Trace      []extraction.TraceRef `json:"trace"`
}

type validateResponse struct {
	DocumentID string                `json:"documentId"`
	Extracted  extraction.Fields     `json:"extracted"`
	Validated  bool                  `json:"validated"`
	Warnings   []string              `json:"warnings"`
	Trace      []extraction.TraceRef `json:"trace"`
}

func (h *Handler) Validate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}
	if req.Extracted == nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody("extracted is required"))
	}

	warnings := Validate(*req.Extracted)
	if len(warnings) > 0 {
		h.log.Warn().
			Str("document_id", req.DocumentID).
			Strs("warnings", warnings).
			Msg("plausibility checks flagged fields")
	}

	return c.JSON(http.StatusOK, validateResponse{
		DocumentID: req.DocumentID,
		Extracted:  *req.Extracted,
		Validated:  true,
		Warnings:   warnings,
		Trace:      req.Trace,
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "validation"})
}
