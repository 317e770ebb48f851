package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/httputil"
	"simguard/pkg/requestcontext"
)

// Service defines the card operations the HTTP layer needs.
type Service interface {
	ReadCard(ctx context.Context, readerID string) (*models.Card, error)
	GetCard(ctx context.Context, id domain.CardID) (*models.Card, error)
	ListCards(ctx context.Context) ([]*models.Card, error)
	DeleteCard(ctx context.Context, id domain.CardID) error

	CreateContact(ctx context.Context, cardID domain.CardID, name, number, group, email string) (*models.Contact, error)
	UpdateContact(ctx context.Context, id domain.ContactID, patch models.ContactPatch) (*models.Contact, error)
	DeleteContact(ctx context.Context, id domain.ContactID) error
	ListContacts(ctx context.Context, cardID domain.CardID) ([]*models.Contact, error)

	CreateSMS(ctx context.Context, cardID domain.CardID, sender, recipient, message string, status models.SMSStatus) (*models.SMS, error)
	DeleteSMS(ctx context.Context, id domain.SMSID) error
	ListSMS(ctx context.Context, cardID domain.CardID) ([]*models.SMS, error)
}

// Handler serves the card, contact, and SMS endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/cards/read", h.handleReadCard)
	r.Get("/api/cards", h.handleListCards)
	r.Get("/api/cards/{cardID}", h.handleGetCard)
	r.Delete("/api/cards/{cardID}", h.handleDeleteCard)

	r.Get("/api/contacts", h.handleListContacts)
	r.Post("/api/contacts", h.handleCreateContact)
	r.Put("/api/contacts/{contactID}", h.handleUpdateContact)
	r.Delete("/api/contacts/{contactID}", h.handleDeleteContact)

	r.Get("/api/sms", h.handleListSMS)
	r.Post("/api/sms", h.handleCreateSMS)
	r.Delete("/api/sms/{smsID}", h.handleDeleteSMS)
}

func (h *Handler) handleReadCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	readerID := r.URL.Query().Get("reader_id")
	if readerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reader_id is required"))
		return
	}

	card, err := h.service.ReadCard(ctx, readerID)
	if err != nil {
		h.writeServiceError(ctx, w, "read card", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, card)
}

func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cards, err := h.service.ListCards(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "list cards", err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"cards": cards,
		"count": len(cards),
	})
}

func (h *Handler) handleGetCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	card, err := h.service.GetCard(ctx, cardID)
	if err != nil {
		h.writeServiceError(ctx, w, "get card", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, card)
}

func (h *Handler) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCard(ctx, cardID); err != nil {
		h.writeServiceError(ctx, w, "delete card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(r.URL.Query().Get("card_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	contacts, err := h.service.ListContacts(ctx, cardID)
	if err != nil {
		h.writeServiceError(ctx, w, "list contacts", err)
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

func (h *Handler) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contact, err := h.service.CreateContact(ctx, req.cardID, req.Name, req.Number, req.Group, req.Email)
	if err != nil {
		h.writeServiceError(ctx, w, "create contact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, contact)
}

func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contactID, err := domain.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contact, err := h.service.UpdateContact(ctx, contactID, req.ContactPatch)
	if err != nil {
		h.writeServiceError(ctx, w, "update contact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contactID, err := domain.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteContact(ctx, contactID); err != nil {
		h.writeServiceError(ctx, w, "delete contact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := domain.ParseCardID(r.URL.Query().Get("card_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	messages, err := h.service.ListSMS(ctx, cardID)
	if err != nil {
		h.writeServiceError(ctx, w, "list sms", err)
		return
	}
	if messages == nil {
		messages = []*models.SMS{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"sms":   messages,
		"count": len(messages),
	})
}

func (h *Handler) handleCreateSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createSMSRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	msg, err := h.service.CreateSMS(ctx, req.cardID, req.Sender, req.Recipient, req.Message, req.status)
	if err != nil {
		h.writeServiceError(ctx, w, "create sms", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) handleDeleteSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	smsID, err := domain.ParseSMSID(chi.URLParam(r, "smsID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSMS(ctx, smsID); err != nil {
		h.writeServiceError(ctx, w, "delete sms", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs internal failures and writes the shared envelope.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "operation failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", op,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
