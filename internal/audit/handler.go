package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

const defaultActivityLimit = 100

// Handler serves the activity log endpoints.
type Handler struct {
	logger    *slog.Logger
	publisher *Publisher
}

func NewHandler(publisher *Publisher, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, publisher: publisher}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/activity", h.handleList)
	r.Delete("/api/activity/clear", h.handleClear)
}

type listResponse struct {
	Events []Event `json:"events"`
	Count  int     `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.publisher.List(ctx, limit, r.URL.Query().Get("card_id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list activity",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activity"))
		return
	}
	if events == nil {
		events = []Event{}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{Events: events, Count: len(events)})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.publisher.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear activity",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear activity"))
		return
	}

	h.logger.InfoContext(ctx, "activity log cleared",
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
