package gateway

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fhirflow/fhirflow/internal/domain/ingestion"
	"github.com/fhirflow/fhirflow/internal/platform/fhir"
)

// Handler exposes the pipeline entrypoint and the aggregated health view.
type Handler struct {
	orchestrator *Orchestrator
	health       *HealthAggregator
	log          zerolog.Logger
}

// NewHandler creates a new gateway handler.
func NewHandler(orchestrator *Orchestrator, health *HealthAggregator, logger zerolog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		health:       health,
		log:          logger.With().Str("component", "gateway").Logger(),
	}
}

// RegisterRoutes registers the pipeline and health endpoints.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/process", h.Process)
	e.GET("/api/health", h.AggregatedHealth)
	e.GET("/health", h.Health)
}

type processResponse struct {
	Pipeline       string      `json:"pipeline"`
	Output         interface{} `json:"output"`
	PatientProfile interface{} `json:"patientProfile"`
}

func (h *Handler) Process(c echo.Context) error {
	var env ingestion.Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
	}

	bundle, record, err := h.orchestrator.Run(c.Request().Context(), env)
	if err != nil {
		if errors.Is(err, ingestion.ErrMissingContent) {
			return c.JSON(http.StatusBadRequest, fhir.ErrorBody(err.Error()))
		}
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			return c.JSON(stageErr.Status, fhir.ErrorBody(stageErr.Error()))
		}
		return c.JSON(http.StatusInternalServerError, fhir.ErrorBody(err.Error()))
	}

	return c.JSON(http.StatusOK, processResponse{
		Pipeline:       "ok",
		Output:         bundle,
		PatientProfile: record,
	})
}

func (h *Handler) AggregatedHealth(c echo.Context) error {
	services := h.health.Probe(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{"services": services})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "gateway"})
}
