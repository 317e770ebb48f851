package esim

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"simguard/internal/esim/models"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

// Handler serves the eSIM endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/esim/convert", h.handleConvert)
	r.Get("/api/esim/{cardID}", h.handleProfiles)
}

type convertRequest struct {
	CardID      string `json:"card_id"`
	ProfileName string `json:"profile_name"`
	Carrier     string `json:"carrier"`

	cardID domain.CardID
}

func (r *convertRequest) Validate() error {
	id, err := domain.ParseCardID(r.CardID)
	if err != nil {
		return err
	}
	r.cardID = id
	if strings.TrimSpace(r.ProfileName) == "" {
		return dErrors.New(dErrors.CodeValidation, "profile_name is required")
	}
	if strings.TrimSpace(r.Carrier) == "" {
		return dErrors.New(dErrors.CodeValidation, "carrier is required")
	}
	return nil
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[convertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.Convert(ctx, req.cardID, req.ProfileName, req.Carrier)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "conversion failed",
				"request_id", requestID,
				"card_id", req.CardID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profiles, err := h.service.Profiles(ctx, cardID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "profile list failed",
				"request_id", requestcontext.RequestID(ctx),
				"card_id", cardID.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"profiles": profiles,
		"count":    len(profiles),
	})
}
