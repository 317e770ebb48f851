// Package transfer moves card data in and out of the system as JSON or CSV
// documents.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"simguard/internal/audit"
	"simguard/internal/card/models"
	"simguard/internal/platform/metrics"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/requestcontext"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Mode selects which sections of an import document are applied.
type Mode string

const (
	ModeAll      Mode = "all"
	ModeContacts Mode = "contacts"
	ModeSMS      Mode = "sms"
)

// CardFinder loads the card being transferred.
type CardFinder interface {
	FindByID(ctx context.Context, id domain.CardID) (*models.Card, error)
}

// ContactStore is the contact persistence needed for transfer.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Contact, error)
	NextIndex(ctx context.Context, cardID domain.CardID) (int, error)
}

// SMSStore is the SMS persistence needed for transfer.
type SMSStore interface {
	Create(ctx context.Context, msg *models.SMS) error
	ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.SMS, error)
}

// AuditPublisher records transfer events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service assembles export documents and applies import documents.
type Service struct {
	cards    CardFinder
	contacts ContactStore
	sms      SMSStore
	publish  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(cards CardFinder, contacts ContactStore, sms SMSStore, publish AuditPublisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cards:    cards,
		contacts: contacts,
		sms:      sms,
		publish:  publish,
		logger:   logger,
		metrics:  m,
	}
}

// Document is the JSON export shape, also accepted (minus the card section)
// on import.
type Document struct {
	Card       *models.Card      `json:"card"`
	Contacts   []*models.Contact `json:"contacts"`
	SMS        []*models.SMS     `json:"sms"`
	ExportedAt time.Time         `json:"exported_at"`
	ExportedBy string            `json:"exported_by"`
}

// ExportResult is a rendered export ready to serve.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Export renders the card with its contacts and messages in the requested
// format. The three entity loads run concurrently.
func (s *Service) Export(ctx context.Context, cardID domain.CardID, format Format) (*ExportResult, error) {
	if format != FormatJSON && format != FormatCSV {
		return nil, dErrors.New(dErrors.CodeValidation, "format must be json or csv")
	}

	doc := Document{
		ExportedAt: requestcontext.Now(ctx),
		ExportedBy: "simguard",
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		card, err := s.cards.FindByID(gctx, cardID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "card not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
		}
		doc.Card = card
		return nil
	})
	g.Go(func() error {
		contacts, err := s.contacts.ListByCard(gctx, cardID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contacts")
		}
		doc.Contacts = contacts
		return nil
	})
	g.Go(func() error {
		messages, err := s.sms.ListByCard(gctx, cardID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sms")
		}
		doc.SMS = messages
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
		contentType = "application/json"
	case FormatCSV:
		data, err = renderCSV(&doc)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export")
	}

	s.metrics.IncrementExports(string(format))
	s.audit(ctx, audit.Event{
		Action:  audit.ActionDataExport,
		CardID:  cardID.String(),
		Details: fmt.Sprintf("exported card data in %s format", format),
	})

	return &ExportResult{
		Data:        data,
		ContentType: contentType,
		Filename:    fmt.Sprintf("simguard_export_%s.%s", cardID, format),
	}, nil
}

// ImportDocument is the accepted import payload body.
type ImportDocument struct {
	Contacts []ContactRow `json:"contacts"`
	SMS      []SMSRow     `json:"sms"`
}

// ContactRow is one importable contact. Number is the only required field.
type ContactRow struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Group  string `json:"group"`
	Email  string `json:"email"`
}

// SMSRow is one importable message. Recipient and Message are required; a
// blank status defaults to read, matching how restored messages arrive.
type SMSRow struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Status    string `json:"status"`
}

// Report summarizes an applied import.
type Report struct {
	ContactsImported int `json:"contacts_imported"`
	SMSImported      int `json:"sms_imported"`
	Skipped          int `json:"skipped"`
}

// Import applies the document's sections per mode. A bad row is skipped and
// counted; it never aborts the batch.
func (s *Service) Import(ctx context.Context, cardID domain.CardID, doc ImportDocument, mode Mode) (*Report, error) {
	switch mode {
	case ModeAll, ModeContacts, ModeSMS:
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "mode must be all, contacts, or sms")
	}

	if _, err := s.cards.FindByID(ctx, cardID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}

	report := &Report{}

	if mode == ModeAll || mode == ModeContacts {
		for _, row := range doc.Contacts {
			if err := s.importContact(ctx, cardID, row); err != nil {
				report.Skipped++
				continue
			}
			report.ContactsImported++
		}
	}

	if mode == ModeAll || mode == ModeSMS {
		for _, row := range doc.SMS {
			if err := s.importSMS(ctx, cardID, row); err != nil {
				report.Skipped++
				continue
			}
			report.SMSImported++
		}
	}

	s.metrics.IncrementImports()
	s.audit(ctx, audit.Event{
		Action: audit.ActionDataImport,
		CardID: cardID.String(),
		Details: fmt.Sprintf("imported %d contacts, %d sms (%d skipped)",
			report.ContactsImported, report.SMSImported, report.Skipped),
	})

	s.logger.InfoContext(ctx, "import applied",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", cardID.String(),
		"contacts_imported", report.ContactsImported,
		"sms_imported", report.SMSImported,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (s *Service) importContact(ctx context.Context, cardID domain.CardID, row ContactRow) error {
	index, err := s.contacts.NextIndex(ctx, cardID)
	if err != nil {
		return err
	}
	contact := &models.Contact{
		ID:     domain.NewContactID(),
		CardID: cardID,
		Index:  index,
		Name:   row.Name,
		Number: row.Number,
		Group:  row.Group,
		Email:  row.Email,
	}
	if err := contact.Validate(); err != nil {
		return err
	}
	return s.contacts.Create(ctx, contact)
}

func (s *Service) importSMS(ctx context.Context, cardID domain.CardID, row SMSRow) error {
	status := models.SMSStatus(row.Status)
	if row.Status == "" {
		status = models.SMSStatusRead
	}
	msg := &models.SMS{
		ID:        domain.NewSMSID(),
		CardID:    cardID,
		Sender:    row.Sender,
		Recipient: row.Recipient,
		Message:   row.Message,
		Status:    status,
		Timestamp: requestcontext.Now(ctx),
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return s.sms.Create(ctx, msg)
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
