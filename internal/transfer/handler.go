package transfer

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

// Handler serves the export and import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/export/{cardID}", h.handleExport)
	r.Post("/api/import", h.handleImport)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	format := Format(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatJSON
	}

	result, err := h.service.Export(ctx, cardID, format)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "export failed",
				"request_id", requestcontext.RequestID(ctx),
				"card_id", cardID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

type importRequest struct {
	CardID string         `json:"card_id"`
	Mode   string         `json:"mode"`
	Data   ImportDocument `json:"data"`

	cardID domain.CardID
	mode   Mode
}

func (r *importRequest) Validate() error {
	id, err := domain.ParseCardID(r.CardID)
	if err != nil {
		return err
	}
	r.cardID = id
	r.mode = Mode(r.Mode)
	if r.Mode == "" {
		r.mode = ModeAll
	}
	switch r.mode {
	case ModeAll, ModeContacts, ModeSMS:
	default:
		return dErrors.New(dErrors.CodeValidation, "mode must be all, contacts, or sms")
	}
	return nil
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[importRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.Import(ctx, req.cardID, req.Data, req.mode)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "import failed",
				"request_id", requestID,
				"card_id", req.CardID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
