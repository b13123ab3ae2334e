package recognition

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Handler exposes the recognition stage over HTTP.
type Handler struct {
	recognizer *Recognizer
	log        zerolog.Logger
}

// NewHandler creates a new recognition handler.
func NewHandler(recognizer *Recognizer, logger zerolog.Logger) *Handler {
	return &Handler{
		recognizer: recognizer,
		log:        logger.With().Str("stage", "recognition").Logger(),
	}
}

// RegisterRoutes registers the stage endpoint and its liveness check.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/recognize", h.Recognize)
	e.GET("/recognize/health", h.Health)
}

func (h *Handler) Recognize(c echo.Context) error {
	var env ingestion.Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}

	result, err := h.recognizer.Recognize(c.Request().Context(), env)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			h.log.Error().Err(err).Str("document_id", env.DocumentID).Msg("payload decode failed")
			return c.JSON(http.StatusInternalServerError, fhir.ErrorBody(err.Error()))
		}
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}

	h.log.Debug().
		Str("document_id", result.DocumentID).
		Str("mode", result.Mode).
		Int("segments", len(result.Segments)).
		Msg("text recognized")

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "recognition"})
}
