package analyzer

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"simguard/internal/analyzer/models"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

// Handler serves the analyzer endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/analyze/{cardID}", h.handleAnalyze)
	r.Get("/api/analyze/{cardID}/history", h.handleHistory)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	analysis, err := h.service.Analyze(ctx, cardID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "analysis failed",
				"request_id", requestcontext.RequestID(ctx),
				"card_id", cardID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, analysis)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	analyses, err := h.service.History(ctx, cardID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "history load failed",
				"request_id", requestcontext.RequestID(ctx),
				"card_id", cardID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"analyses": analyses,
		"count":    len(analyses),
	})
}
