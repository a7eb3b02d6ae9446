package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

// maxGenerateCount caps a single regeneration request.
const maxGenerateCount = 100_000

// DatasetHandler handles dataset regeneration by operators.
type DatasetHandler struct {
	datasets     ports.DatasetService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(
	datasets ports.DatasetService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DatasetHandler {
	return &DatasetHandler{
		datasets:     datasets,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "dataset"),
	}
}

// RegisterRoutes sets up the dataset routes. Callers are expected to wrap
// the router with JWTMiddleware.
func (h *DatasetHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generate", h.HandleGenerate)
}

// --- Request/Response DTOs ---

// GenerateDatasetRequest defines the optional JSON body for regeneration.
// Omitted fields fall back to the reference dataset settings.
type GenerateDatasetRequest struct {
	Count          int      `json:"count"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	ResolutionRate *float64 `json:"resolutionRate"`
	Seed           *uint64  `json:"seed"`
}

// Validate checks the request shape. Semantic checks such as an inverted
// window are left to the generator.
func (r *GenerateDatasetRequest) Validate() error {
	v := validation.NewValidator()

	v.Range("count", r.Count, 0, maxGenerateCount)
	if r.Start != "" {
		_, err := validation.ParseDate(r.Start)
		v.Custom("start", err == nil, "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	if r.End != "" {
		_, err := validation.ParseDate(r.End)
		v.Custom("end", err == nil, "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	if r.ResolutionRate != nil {
		v.FloatRange("resolutionRate", *r.ResolutionRate, 0, 1)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// params converts a validated request into service parameters.
func (r *GenerateDatasetRequest) params() ports.GenerateDatasetParams {
	params := ports.GenerateDatasetParams{
		Count:          r.Count,
		ResolutionRate: r.ResolutionRate,
		Seed:           r.Seed,
	}
	if r.Start != "" {
		params.WindowStart, _ = validation.ParseDate(r.Start)
	}
	if r.End != "" {
		params.WindowEnd, _ = validation.ParseDate(r.End)
	}
	return params
}

// GenerateDatasetResponse describes the stored dataset.
type GenerateDatasetResponse struct {
	Tickets     int    `json:"tickets"`
	Seed        uint64 `json:"seed"`
	Source      string `json:"source"`
	GeneratedAt string `json:"generatedAt"`
}

// --- Handlers ---

// HandleGenerate handles POST /dataset/generate
func (h *DatasetHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[GenerateDatasetRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	// The operator subject is attached by the logger's context handler.
	h.logger.InfoContext(r.Context(), "dataset regeneration requested", "count", req.Count)

	result, err := h.datasets.Generate(r.Context(), req.params())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusCreated, GenerateDatasetResponse{
		Tickets:     result.Tickets,
		Seed:        result.Seed,
		Source:      result.Source,
		GeneratedAt: result.GeneratedAt.UTC().Format(time.RFC3339),
	})
}
