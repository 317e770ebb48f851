package esim

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"simguard/internal/audit"
	cardmodels "simguard/internal/card/models"
	"simguard/internal/esim/models"
	"simguard/internal/platform/metrics"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/requestcontext"
)

// CardFinder loads the card being converted.
type CardFinder interface {
	FindByID(ctx context.Context, id domain.CardID) (*cardmodels.Card, error)
}

// Store persists encoded profiles.
type Store interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByActivationCode(ctx context.Context, cardID domain.CardID, code string) (*models.Profile, error)
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Profile, error)
}

// AuditPublisher records conversion events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service turns physical card records into eSIM activation profiles.
type Service struct {
	cards       CardFinder
	store       Store
	smdpAddress string
	publish     AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

func NewService(cards CardFinder, store Store, smdpAddress string, publish AuditPublisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cards:       cards,
		store:       store,
		smdpAddress: smdpAddress,
		publish:     publish,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("simguard/esim"),
	}
}

// Convert encodes an activation profile for the card. Converting the same
// card with the same profile name and carrier returns the existing profile
// rather than minting a duplicate.
func (s *Service) Convert(ctx context.Context, cardID domain.CardID, profileName, carrier string) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "esim.Convert",
		trace.WithAttributes(attribute.String("card_id", cardID.String())))
	defer span.End()

	profileName = strings.TrimSpace(profileName)
	carrier = strings.TrimSpace(carrier)
	if profileName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "profile_name is required")
	}
	if carrier == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "carrier is required")
	}

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}

	matchingID := MatchingID(card.ICCID, card.IMSI, profileName, carrier)
	code := ActivationCode(s.smdpAddress, matchingID)

	existing, err := s.store.FindByActivationCode(ctx, cardID, code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing profile")
	}

	profile := &models.Profile{
		ID:             domain.NewProfileID(),
		CardID:         cardID,
		ProfileName:    profileName,
		Carrier:        carrier,
		QRData:         code,
		ActivationCode: code,
		Status:         models.StatusReady,
		Timestamp:      requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store profile")
	}

	s.metrics.IncrementProfilesEncoded()
	if s.publish != nil {
		if err := s.publish.Emit(ctx, audit.Event{
			Action:  audit.ActionEsimConvert,
			CardID:  cardID.String(),
			Details: "profile " + profileName + " for " + carrier,
		}); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed",
				"request_id", requestcontext.RequestID(ctx),
				"action", audit.ActionEsimConvert,
				"error", err.Error(),
			)
		}
	}

	s.logger.InfoContext(ctx, "esim profile encoded",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", cardID.String(),
		"profile_name", profileName,
	)
	return profile, nil
}

// Profiles lists a card's encoded profiles, newest first.
func (s *Service) Profiles(ctx context.Context, cardID domain.CardID) ([]*models.Profile, error) {
	if _, err := s.cards.FindByID(ctx, cardID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}
	profiles, err := s.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles")
	}
	return profiles, nil
}
