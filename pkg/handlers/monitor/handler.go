package monitor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/de-tools/sync-sentinel/pkg/adapters"
	"github.com/de-tools/sync-sentinel/pkg/models/api"
	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/services/triage"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb/audit"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const defaultHistoryLimit = 30

// Handler serves the read-only presentation API over the persisted audit
// trail. It never mutates audit state.
type Handler struct {
	tables  []domain.Table
	store   audit.Store
	triager *triage.Engine
}

func NewHandler(tables []domain.Table, store audit.Store, triager *triage.Engine) *Handler {
	return &Handler{
		tables:  tables,
		store:   store,
		triager: triager,
	}
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	response := make([]api.Table, 0, len(h.tables))
	for _, t := range h.tables {
		response = append(response, api.Table{Name: t.Name})
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode tables")
	}
}

// GetMetrics returns the latest audit run for a table as a flat record.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	table := domain.Table{Name: chi.URLParam(r, "table")}

	run, err := h.store.Latest(ctx, table)
	if err != nil {
		writeStoreError(w, logger, table, err)
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapDomainRunToAPIMetrics(run)); err != nil {
		logger.Error().Err(err).Str("table", table.Name).Msg("failed to encode metrics")
	}
}

// GetHistory returns the run history ordered by run timestamp.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	table := domain.Table{Name: chi.URLParam(r, "table")}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.store.History(ctx, table, limit)
	if err != nil {
		writeStoreError(w, logger, table, err)
		return
	}

	response := api.HistoryResponse{Table: table.Name, Runs: make([]api.MetricsResponse, 0, len(runs))}
	for _, run := range runs {
		response.Runs = append(response.Runs, adapters.MapDomainRunToAPIMetrics(run))
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Str("table", table.Name).Msg("failed to encode history")
	}
}

// GetRecommendations returns triage advisory text keyed by the latest run.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	table := domain.Table{Name: chi.URLParam(r, "table")}

	run, err := h.store.Latest(ctx, table)
	if err != nil {
		writeStoreError(w, logger, table, err)
		return
	}

	analysis := h.triager.Analyze(run.Metrics, run.Severity)
	response := api.TriageResponse{
		Table:           table.Name,
		RunID:           run.RunID,
		Severity:        api.Severity(run.Severity.String()),
		RiskScore:       analysis.RiskScore,
		RootCause:       analysis.RootCause,
		Recommendations: analysis.Recommendations,
		PriorityAction:  analysis.PriorityAction,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Str("table", table.Name).Msg("failed to encode recommendations")
	}
}

// GetQualitySummary exposes the quality_summary view: issue counts per type
// for the latest run.
func (h *Handler) GetQualitySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	table := domain.Table{Name: chi.URLParam(r, "table")}

	summaries, err := h.store.QualitySummary(ctx, table)
	if err != nil {
		writeStoreError(w, logger, table, err)
		return
	}

	response := map[string]int64{}
	for _, s := range summaries {
		response[s.IssueType] = s.IssueCount
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Str("table", table.Name).Msg("failed to encode quality summary")
	}
}

func writeStoreError(w http.ResponseWriter, logger *zerolog.Logger, table domain.Table, err error) {
	if errors.Is(err, domain.ErrTableNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	logger.Error().Err(err).Str("table", table.Name).Msg("audit store read failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
