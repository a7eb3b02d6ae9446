package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
	"github.com/lorrc/service-desk-analytics/internal/reportfmt"
)

const (
	defaultTicketsPerPage = 50
	maxTicketsPerPage     = 500
)

// AnalyticsHandler serves the KPI report, the raw ticket view and the
// taxonomy used to populate dashboard filters.
type AnalyticsHandler struct {
	analytics    ports.AnalyticsService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	analytics ports.AnalyticsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:    analytics,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "analytics"),
	}
}

// RegisterRoutes sets up the read-only analytics endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/report", h.HandleGetReport)
	r.Get("/tickets", h.HandleListTickets)
	r.Get("/taxonomy", h.HandleGetTaxonomy)
}

// --- Response DTOs ---

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID             string  `json:"id"`
	Priority       string  `json:"priority"`
	Category       string  `json:"category"`
	Department     string  `json:"department"`
	Assignee       string  `json:"assignee"`
	CreatedAt      string  `json:"createdAt"`
	ResolvedAt     *string `json:"resolvedAt"`
	SLATargetHours float64 `json:"slaTargetHours"`
	Status         string  `json:"status"`
	Breached       bool    `json:"breached"`
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	var resolvedAt *string
	if ticket.ResolvedAt != nil {
		value := ticket.ResolvedAt.UTC().Format(time.RFC3339)
		resolvedAt = &value
	}

	return TicketDTO{
		ID:             ticket.ID,
		Priority:       ticket.Priority,
		Category:       ticket.Category,
		Department:     ticket.Department,
		Assignee:       ticket.Assignee,
		CreatedAt:      ticket.CreatedAt.UTC().Format(time.RFC3339),
		ResolvedAt:     resolvedAt,
		SLATargetHours: ticket.SLATargetHours,
		Status:         string(ticket.Status),
		Breached:       ticket.Breached,
	}
}

func toTicketDTOs(tickets []domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for i := range tickets {
		response = append(response, toTicketDTO(&tickets[i]))
	}
	return response
}

// TaxonomyResponse lists the filter values in report order.
type TaxonomyResponse struct {
	Priorities  []PriorityDTO `json:"priorities"`
	Categories  []string      `json:"categories"`
	Departments []string      `json:"departments"`
	Assignees   []string      `json:"assignees"`
}

// PriorityDTO pairs a priority with its SLA target.
type PriorityDTO struct {
	Name     string  `json:"name"`
	SLAHours float64 `json:"slaHours"`
}

// --- Handlers ---

// HandleGetReport handles GET /analytics/report. The optional format query
// parameter selects json (default), csv or text.
func (h *AnalyticsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	format := reportfmt.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := reportfmt.ParseFormat(raw)
		if err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, err.Error()))
			return
		}
		format = parsed
	}

	filter, err := validation.ParseReportFilter(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	report, err := h.analytics.GetReport(r.Context(), filter)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	// The exported gauges always describe the whole dataset.
	if filter.IsEmpty() {
		metrics.PublishReport(report)
	}

	switch format {
	case reportfmt.FormatJSON:
		WriteJSON(w, http.StatusOK, reportfmt.FromReport(report))
	case reportfmt.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="kpi-report-%s.csv"`, report.GeneratedAt.UTC().Format("20060102T150405Z")))
		h.writeBody(w, r, report, format)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		h.writeBody(w, r, report, format)
	}
}

func (h *AnalyticsHandler) writeBody(w http.ResponseWriter, r *http.Request, report *domain.Report, format reportfmt.Format) {
	w.WriteHeader(http.StatusOK)
	if err := reportfmt.Write(w, report, format); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write report", "format", format, "error", err)
	}
}

// HandleListTickets handles GET /tickets
func (h *AnalyticsHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	filter, err := validation.ParseReportFilter(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	page := validation.ParsePagination(r, defaultTicketsPerPage, maxTicketsPerPage)

	tickets, total, err := h.analytics.ListTickets(r.Context(), ports.ListTicketsParams{
		Filter: filter,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WritePaginated(w, toTicketDTOs(tickets), page.Limit, page.Offset, int64(total))
}

// HandleGetTaxonomy handles GET /taxonomy
func (h *AnalyticsHandler) HandleGetTaxonomy(w http.ResponseWriter, r *http.Request) {
	tx := h.analytics.Taxonomy()

	priorities := make([]PriorityDTO, 0, len(tx.Priorities))
	for _, p := range tx.Priorities {
		priorities = append(priorities, PriorityDTO{Name: p.Name, SLAHours: p.SLAHours})
	}

	WriteJSON(w, http.StatusOK, TaxonomyResponse{
		Priorities:  priorities,
		Categories:  tx.CategoryNames(),
		Departments: tx.DepartmentNames(),
		Assignees:   tx.AssigneeNames(),
	})
}
