package reader

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

// Handler serves the reader discovery endpoint.
type Handler struct {
	logger *slog.Logger
	source Source
}

func NewHandler(source Source, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, source: source}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/readers", h.handleList)
}

type listResponse struct {
	Readers []Reader `json:"readers"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	readers, err := h.source.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list readers",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list readers"))
		return
	}
	if readers == nil {
		readers = []Reader{}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{Readers: readers})
}
