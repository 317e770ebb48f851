package clone

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

// Handler serves the clone endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/clone", h.handleClone)
}

type cloneRequest struct {
	SourceCardID string `json:"source_card_id"`
	CopyContacts bool   `json:"copy_contacts"`
	CopySMS      bool   `json:"copy_sms"`
	CopySettings bool   `json:"copy_settings"`

	sourceID domain.CardID
}

func (r *cloneRequest) Validate() error {
	id, err := domain.ParseCardID(r.SourceCardID)
	if err != nil {
		return err
	}
	r.sourceID = id
	return nil
}

func (h *Handler) handleClone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[cloneRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Clone(ctx, req.sourceID, Options{
		CopyContacts: req.CopyContacts,
		CopySMS:      req.CopySMS,
		CopySettings: req.CopySettings,
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "clone failed",
				"request_id", requestID,
				"source_card_id", req.SourceCardID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}
