package clone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"simguard/internal/audit"
	"simguard/internal/card/models"
	"simguard/internal/platform/config"
	"simguard/internal/platform/metrics"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/gsm"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/platform/tx"
	"simguard/pkg/requestcontext"
)

// maxICCIDAttempts bounds the search for a serial not already live.
const maxICCIDAttempts = 10

// Options selects what a clone carries over from the source card.
type Options struct {
	CopyContacts bool `json:"copy_contacts"`
	CopySMS      bool `json:"copy_sms"`
	// CopySettings gates Ki/OPc. Key material never moves implicitly.
	CopySettings bool `json:"copy_settings"`
}

// Result summarizes a completed clone.
type Result struct {
	NewCardID      domain.CardID `json:"new_card_id"`
	ContactsCloned int           `json:"contacts_cloned"`
	SMSCloned      int           `json:"sms_cloned"`
}

// CardStore is the card persistence the engine needs.
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	FindByID(ctx context.Context, id domain.CardID) (*models.Card, error)
	Delete(ctx context.Context, id domain.CardID) error
	ICCIDExists(ctx context.Context, iccid string) (bool, error)
}

// ContactStore is the contact persistence the engine needs.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Contact, error)
	DeleteByCard(ctx context.Context, cardID domain.CardID) error
}

// SMSStore is the SMS persistence the engine needs.
type SMSStore interface {
	Create(ctx context.Context, msg *models.SMS) error
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.SMS, error)
	DeleteByCard(ctx context.Context, cardID domain.CardID) error
}

// AuditPublisher records clone events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service duplicates cards atomically. One clone per source card at a time;
// a concurrent request gets a busy error rather than queueing.
type Service struct {
	cards      CardStore
	contacts   ContactStore
	sms        SMSStore
	locker     Locker
	runner     tx.Runner
	imsiPolicy config.CloneIMSIPolicy
	publish    AuditPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(
	cards CardStore,
	contacts ContactStore,
	sms SMSStore,
	locker Locker,
	runner tx.Runner,
	imsiPolicy config.CloneIMSIPolicy,
	publish AuditPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cards:      cards,
		contacts:   contacts,
		sms:        sms,
		locker:     locker,
		runner:     runner,
		imsiPolicy: imsiPolicy,
		publish:    publish,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("simguard/clone"),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Clone duplicates the source card under a fresh identity. All writes land
// in one transactional unit; on failure nothing partial stays visible.
func (s *Service) Clone(ctx context.Context, sourceID domain.CardID, opts Options) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "clone.Clone",
		trace.WithAttributes(attribute.String("card_id", sourceID.String())))
	defer span.End()

	release, err := s.locker.Acquire(ctx, sourceID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			s.metrics.IncrementCloneRejectedBusy()
			return nil, dErrors.New(dErrors.CodeBusy, "a clone of this card is already in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock card")
	}
	defer release()

	source, err := s.cards.FindByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}

	newCard, imsiPreserved, err := s.deriveCard(ctx, source, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{NewCardID: newCard.ID}
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.cards.Create(ctx, newCard); err != nil {
			return fmt.Errorf("create clone: %w", err)
		}
		if opts.CopyContacts {
			n, err := s.copyContacts(ctx, sourceID, newCard.ID)
			if err != nil {
				return err
			}
			result.ContactsCloned = n
		}
		if opts.CopySMS {
			n, err := s.copySMS(ctx, sourceID, newCard.ID)
			if err != nil {
				return err
			}
			result.SMSCloned = n
		}
		return nil
	})
	if err != nil {
		// A SQL runner already rolled everything back; the in-memory
		// runner needs compensating deletes to erase partial writes.
		s.compensate(newCard.ID)
		s.metrics.IncrementCloneFailures()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "clone failed")
	}

	s.metrics.IncrementCardsCloned()
	s.audit(ctx, audit.Event{
		Action: audit.ActionCardClone,
		CardID: sourceID.String(),
		Details: fmt.Sprintf("cloned to %s (%d contacts, %d sms)",
			newCard.ID, result.ContactsCloned, result.SMSCloned),
	})
	if imsiPreserved {
		s.audit(ctx, audit.Event{
			Action:  audit.ActionCardClone,
			CardID:  newCard.ID.String(),
			Details: "imsi preserved verbatim from source card",
			Status:  audit.StatusWarning,
		})
	}

	s.logger.InfoContext(ctx, "card cloned",
		"request_id", requestcontext.RequestID(ctx),
		"source_card_id", sourceID.String(),
		"new_card_id", newCard.ID.String(),
		"contacts_cloned", result.ContactsCloned,
		"sms_cloned", result.SMSCloned,
	)
	return result, nil
}

// deriveCard builds the clone's identity: fresh ICCID under the source
// issuer prefix, IMSI per policy, keys only when asked for.
func (s *Service) deriveCard(ctx context.Context, source *models.Card, opts Options) (*models.Card, bool, error) {
	iccid, err := s.deriveICCID(ctx, source.ICCID)
	if err != nil {
		return nil, false, err
	}

	imsi := source.IMSI
	imsiPreserved := s.imsiPolicy == config.CloneIMSIPreserve
	if !imsiPreserved {
		imsi = s.reissueIMSI(source.IMSI)
	}

	attrs := models.CardAttributes{
		ICCID:          iccid,
		IMSI:           imsi,
		MSISDN:         source.MSISDN,
		MCC:            source.MCC,
		MNC:            source.MNC,
		SPN:            source.SPN,
		ATR:            source.ATR,
		CardType:       source.CardType,
		AuthAlgorithm:  source.AuthAlgorithm,
		EncryptionType: source.EncryptionType,
	}
	if opts.CopySettings {
		attrs.Ki = source.Ki
		attrs.OPc = source.OPc
	}

	card, err := models.NewCard(domain.NewCardID(), attrs, requestcontext.Now(ctx))
	if err != nil {
		return nil, false, err
	}
	return card, imsiPreserved, nil
}

// deriveICCID keeps the source issuer prefix and length, draws a fresh
// serial, and recomputes the check digit. Retries until the result is not a
// live ICCID.
func (s *Service) deriveICCID(ctx context.Context, sourceICCID string) (string, error) {
	prefix := gsm.IssuerPrefix(sourceICCID)
	serialLen := len(sourceICCID) - len(prefix) - 1

	for range maxICCIDAttempts {
		payload := prefix + s.digits(serialLen)
		check, err := gsm.LuhnCheckDigit(payload)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "derive iccid")
		}
		candidate := payload + string(check)
		if candidate == sourceICCID {
			continue
		}
		exists, err := s.cards.ICCIDExists(ctx, candidate)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "derive iccid")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "could not derive a distinct iccid")
}

// reissueIMSI keeps MCC+MNC and draws a fresh subscriber suffix.
func (s *Service) reissueIMSI(sourceIMSI string) string {
	if len(sourceIMSI) <= 5 {
		return sourceIMSI
	}
	return sourceIMSI[:5] + s.digits(len(sourceIMSI)-5)
}

func (s *Service) copyContacts(ctx context.Context, sourceID, newID domain.CardID) (int, error) {
	contacts, err := s.contacts.ListByCard(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("list contacts: %w", err)
	}
	for _, c := range contacts {
		clone := *c
		clone.ID = domain.NewContactID()
		clone.CardID = newID
		if err := s.contacts.Create(ctx, &clone); err != nil {
			return 0, fmt.Errorf("copy contact %d: %w", c.Index, err)
		}
	}
	return len(contacts), nil
}

func (s *Service) copySMS(ctx context.Context, sourceID, newID domain.CardID) (int, error) {
	messages, err := s.sms.ListByCard(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("list sms: %w", err)
	}
	for _, m := range messages {
		clone := *m
		clone.ID = domain.NewSMSID()
		clone.CardID = newID
		if err := s.sms.Create(ctx, &clone); err != nil {
			return 0, fmt.Errorf("copy sms: %w", err)
		}
	}
	return len(messages), nil
}

// compensate erases the clone's records after a failed unit. Harmless when
// the transaction already rolled back; errors are ignored because there is
// nothing left to undo.
func (s *Service) compensate(newID domain.CardID) {
	ctx := context.Background()
	_ = s.contacts.DeleteByCard(ctx, newID)
	_ = s.sms.DeleteByCard(ctx, newID)
	_ = s.cards.Delete(ctx, newID)
}

func (s *Service) digits(n int) string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('0' + s.rng.IntN(10))
	}
	return string(out)
}

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
