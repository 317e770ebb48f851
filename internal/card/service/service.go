package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"simguard/internal/audit"
	"simguard/internal/card/models"
	"simguard/internal/platform/metrics"
	"simguard/internal/reader"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/platform/tx"
	"simguard/pkg/requestcontext"
)

// CardStore persists card aggregates.
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	FindByID(ctx context.Context, id domain.CardID) (*models.Card, error)
	List(ctx context.Context) ([]*models.Card, error)
	Delete(ctx context.Context, id domain.CardID) error
	ICCIDExists(ctx context.Context, iccid string) (bool, error)
}

// ContactStore persists phonebook entries.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id domain.ContactID) (*models.Contact, error)
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, id domain.ContactID) error
	DeleteByCard(ctx context.Context, cardID domain.CardID) error
	NextIndex(ctx context.Context, cardID domain.CardID) (int, error)
}

// SMSStore persists stored messages.
type SMSStore interface {
	Create(ctx context.Context, msg *models.SMS) error
	FindByID(ctx context.Context, id domain.SMSID) (*models.SMS, error)
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.SMS, error)
	Delete(ctx context.Context, id domain.SMSID) error
	DeleteByCard(ctx context.Context, cardID domain.CardID) error
}

// DependentPurger removes records owned by a card. Analysis and profile
// stores implement it so cascade delete covers every entity type.
type DependentPurger interface {
	DeleteByCard(ctx context.Context, cardID domain.CardID) error
}

// AuditPublisher records domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates card lifecycle, contacts, and SMS. Handlers stay
// thin; stores stay transport-free.
type Service struct {
	cards    CardStore
	contacts ContactStore
	sms      SMSStore
	analyses DependentPurger
	profiles DependentPurger
	source   reader.Source
	runner   tx.Runner
	publish  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(
	cards CardStore,
	contacts ContactStore,
	sms SMSStore,
	analyses DependentPurger,
	profiles DependentPurger,
	source reader.Source,
	runner tx.Runner,
	publish AuditPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cards:    cards,
		contacts: contacts,
		sms:      sms,
		analyses: analyses,
		profiles: profiles,
		source:   source,
		runner:   runner,
		publish:  publish,
		logger:   logger,
		metrics:  m,
	}
}

// ReadCard pulls attributes from the named reader, validates them, and
// persists a new card record.
func (s *Service) ReadCard(ctx context.Context, readerID string) (*models.Card, error) {
	attrs, err := s.source.Read(ctx, readerID)
	if err != nil {
		return nil, err
	}

	card, err := models.NewCard(domain.NewCardID(), attrs, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.cards.Create(ctx, card); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("card with iccid %s already exists", card.ICCID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store card")
	}

	s.metrics.IncrementCardsRead()
	s.audit(ctx, audit.Event{
		Action:  audit.ActionCardRead,
		CardID:  card.ID.String(),
		Details: fmt.Sprintf("read card %s from reader %s", card.ICCID, readerID),
	})

	s.logger.InfoContext(ctx, "card read",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", card.ID.String(),
		"reader_id", readerID,
	)
	return card, nil
}

func (s *Service) GetCard(ctx context.Context, id domain.CardID) (*models.Card, error) {
	card, err := s.cards.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}
	return card, nil
}

func (s *Service) ListCards(ctx context.Context) ([]*models.Card, error) {
	cards, err := s.cards.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cards")
	}
	return cards, nil
}

// DeleteCard removes a card and everything it owns in one transactional
// unit. Dependents go first so a mid-unit failure cannot orphan them.
func (s *Service) DeleteCard(ctx context.Context, id domain.CardID) error {
	if _, err := s.GetCard(ctx, id); err != nil {
		return err
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.contacts.DeleteByCard(ctx, id); err != nil {
			return fmt.Errorf("delete contacts: %w", err)
		}
		if err := s.sms.DeleteByCard(ctx, id); err != nil {
			return fmt.Errorf("delete sms: %w", err)
		}
		if err := s.analyses.DeleteByCard(ctx, id); err != nil {
			return fmt.Errorf("delete analyses: %w", err)
		}
		if err := s.profiles.DeleteByCard(ctx, id); err != nil {
			return fmt.Errorf("delete profiles: %w", err)
		}
		return s.cards.Delete(ctx, id)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete card")
	}

	s.metrics.IncrementCardsDeleted()
	s.audit(ctx, audit.Event{
		Action:  audit.ActionCardDelete,
		CardID:  id.String(),
		Details: "card and dependent records deleted",
	})

	s.logger.InfoContext(ctx, "card deleted",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", id.String(),
	)
	return nil
}

// CreateContact stores a new contact on the next free phonebook index.
func (s *Service) CreateContact(ctx context.Context, cardID domain.CardID, name, number, group, email string) (*models.Contact, error) {
	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, err
	}

	index, err := s.contacts.NextIndex(ctx, cardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign contact index")
	}

	contact := &models.Contact{
		ID:     domain.NewContactID(),
		CardID: cardID,
		Index:  index,
		Name:   name,
		Number: number,
		Group:  group,
		Email:  email,
	}
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "contact index already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store contact")
	}

	s.audit(ctx, audit.Event{
		Action:  audit.ActionContactCreate,
		CardID:  cardID.String(),
		Details: fmt.Sprintf("contact %s at index %d", contact.Number, contact.Index),
	})
	return contact, nil
}

func (s *Service) UpdateContact(ctx context.Context, id domain.ContactID, patch models.ContactPatch) (*models.Contact, error) {
	if patch.Empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}

	contact, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
	}

	patch.Apply(contact)
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contact")
	}

	s.audit(ctx, audit.Event{
		Action:  audit.ActionContactUpdate,
		CardID:  contact.CardID.String(),
		Details: fmt.Sprintf("contact at index %d updated", contact.Index),
	})
	return contact, nil
}

func (s *Service) DeleteContact(ctx context.Context, id domain.ContactID) error {
	contact, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
	}

	if err := s.contacts.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete contact")
	}

	s.audit(ctx, audit.Event{
		Action:  audit.ActionContactDelete,
		CardID:  contact.CardID.String(),
		Details: fmt.Sprintf("contact at index %d deleted", contact.Index),
	})
	return nil
}

func (s *Service) ListContacts(ctx context.Context, cardID domain.CardID) ([]*models.Contact, error) {
	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	contacts, err := s.contacts.ListByCard(ctx, cardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts")
	}
	return contacts, nil
}

// CreateSMS stores a message. A blank status defaults to draft.
func (s *Service) CreateSMS(ctx context.Context, cardID domain.CardID, sender, recipient, message string, status models.SMSStatus) (*models.SMS, error) {
	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, err
	}

	if status == "" {
		status = models.SMSStatusDraft
	}
	msg := &models.SMS{
		ID:        domain.NewSMSID(),
		CardID:    cardID,
		Sender:    sender,
		Recipient: recipient,
		Message:   message,
		Status:    status,
		Timestamp: requestcontext.Now(ctx),
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if err := s.sms.Create(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store sms")
	}

	s.audit(ctx, audit.Event{
		Action:  audit.ActionSMSCreate,
		CardID:  cardID.String(),
		Details: fmt.Sprintf("sms to %s (%s)", msg.Recipient, msg.Status),
	})
	return msg, nil
}

func (s *Service) DeleteSMS(ctx context.Context, id domain.SMSID) error {
	msg, err := s.sms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "sms not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sms")
	}

	if err := s.sms.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete sms")
	}

	s.audit(ctx, audit.Event{
		Action:  audit.ActionSMSDelete,
		CardID:  msg.CardID.String(),
		Details: fmt.Sprintf("sms to %s deleted", msg.Recipient),
	})
	return nil
}

func (s *Service) ListSMS(ctx context.Context, cardID domain.CardID) ([]*models.SMS, error) {
	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	messages, err := s.sms.ListByCard(ctx, cardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sms")
	}
	return messages, nil
}

// audit records an event; failures are logged, never surfaced.
func (s *Service) audit(ctx context.Context, event audit.Event) {
	if s.publish == nil {
		return
	}
	if err := s.publish.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err.Error(),
		)
	}
}
