package analyzer

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"simguard/internal/analyzer/models"
	"simguard/internal/audit"
	cardmodels "simguard/internal/card/models"
	"simguard/internal/platform/metrics"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/requestcontext"
)

// CardFinder loads the card under analysis.
type CardFinder interface {
	FindByID(ctx context.Context, id domain.CardID) (*cardmodels.Card, error)
}

// Store persists analysis history.
type Store interface {
	Append(ctx context.Context, analysis *models.Analysis) error
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Analysis, error)
}

// AuditPublisher records analysis events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the rule chain against stored cards and keeps the history.
type Service struct {
	cards   CardFinder
	store   Store
	publish AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewService(cards CardFinder, store Store, publish AuditPublisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cards:   cards,
		store:   store,
		publish: publish,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("simguard/analyzer"),
	}
}

// Analyze evaluates the card and appends the result to its history.
func (s *Service) Analyze(ctx context.Context, cardID domain.CardID) (*models.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.Analyze",
		trace.WithAttributes(attribute.String("card_id", cardID.String())))
	defer span.End()

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}

	c := Evaluate(card)
	analysis := &models.Analysis{
		ID:              domain.NewAnalysisID(),
		CardID:          cardID,
		AuthAlgorithm:   card.AuthAlgorithm,
		EncryptionType:  card.EncryptionType,
		RiskLevel:       c.RiskLevel,
		Vulnerabilities: c.Vulnerabilities,
		Recommendations: c.Recommendations,
		Timestamp:       requestcontext.Now(ctx),
	}

	if err := s.store.Append(ctx, analysis); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store analysis")
	}

	s.metrics.IncrementAnalyses(string(analysis.RiskLevel))
	if s.publish != nil {
		event := audit.Event{
			Action:  audit.ActionAnalysis,
			CardID:  cardID.String(),
			Details: "risk level " + string(analysis.RiskLevel),
		}
		if analysis.RiskLevel == models.RiskCritical {
			event.Status = audit.StatusWarning
		}
		if err := s.publish.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed",
				"request_id", requestcontext.RequestID(ctx),
				"action", event.Action,
				"error", err.Error(),
			)
		}
	}

	s.logger.InfoContext(ctx, "card analyzed",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", cardID.String(),
		"risk_level", string(analysis.RiskLevel),
		"findings", len(analysis.Vulnerabilities),
	)
	return analysis, nil
}

// History returns past analyses, newest first.
func (s *Service) History(ctx context.Context, cardID domain.CardID) ([]*models.Analysis, error) {
	if _, err := s.cards.FindByID(ctx, cardID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}
	analyses, err := s.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list analyses")
	}
	return analyses, nil
}
