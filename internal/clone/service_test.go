package clone

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simguard/internal/audit"
	"simguard/internal/card/models"
	cardstore "simguard/internal/card/store/card"
	contactstore "simguard/internal/card/store/contact"
	smsstore "simguard/internal/card/store/sms"
	"simguard/internal/platform/config"
	"simguard/pkg/domain"
	dErrors "simguard/pkg/domain-errors"
	"simguard/pkg/gsm"
	"simguard/pkg/platform/tx"
)

const testICCID = "8901260123456789011" // prefix 8901260, Luhn-valid

type fixture struct {
	service  *Service
	cards    *cardstore.InMemory
	contacts *contactstore.InMemory
	sms      *smsstore.InMemory
	auditLog *audit.InMemoryStore
	source   *models.Card
}

type fixtureOpt func(*fixture)

func withIMSIPolicy(policy config.CloneIMSIPolicy) fixtureOpt {
	return func(f *fixture) {
		f.service.imsiPolicy = policy
	}
}

func withSMSStore(store SMSStore) fixtureOpt {
	return func(f *fixture) {
		f.service.sms = store
	}
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()

	f := &fixture{
		cards:    cardstore.NewInMemory(),
		contacts: contactstore.NewInMemory(),
		sms:      smsstore.NewInMemory(),
		auditLog: audit.NewInMemoryStore(),
	}
	pub := audit.NewPublisher(f.auditLog)
	t.Cleanup(pub.Close)

	f.service = NewService(
		f.cards, f.contacts, f.sms,
		NewInMemoryLocker(), tx.Nop{},
		config.CloneIMSIReissue, pub, slog.Default(), nil,
	)
	for _, opt := range opts {
		opt(f)
	}

	card, err := models.NewCard(domain.NewCardID(), models.CardAttributes{
		ICCID:          testICCID,
		IMSI:           "310260123456789",
		MSISDN:         "+15551234567",
		MCC:            "310",
		MNC:            "26",
		SPN:            "LegacyCell",
		CardType:       models.CardTypeNano,
		AuthAlgorithm:  "COMP128v1",
		EncryptionType: "A5/1",
		Ki:             "465B5CE8B199B49FAA5F0A2EE238A6BC",
		OPc:            "E8ED289DEBA952E4283B54E88E6183CA",
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.cards.Create(context.Background(), card))
	f.source = card

	return f
}

func (f *fixture) addContact(t *testing.T, index int, name, number string) {
	t.Helper()
	require.NoError(t, f.contacts.Create(context.Background(), &models.Contact{
		ID:     domain.NewContactID(),
		CardID: f.source.ID,
		Index:  index,
		Name:   name,
		Number: number,
	}))
}

func (f *fixture) addSMS(t *testing.T, recipient string, status models.SMSStatus, ts time.Time) {
	t.Helper()
	require.NoError(t, f.sms.Create(context.Background(), &models.SMS{
		ID:        domain.NewSMSID(),
		CardID:    f.source.ID,
		Recipient: recipient,
		Message:   "msg to " + recipient,
		Status:    status,
		Timestamp: ts,
	}))
}

func TestClone_DerivesFreshIdentity(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)
	require.False(t, result.NewCardID.IsZero())
	assert.NotEqual(t, f.source.ID, result.NewCardID)

	clone, err := f.cards.FindByID(context.Background(), result.NewCardID)
	require.NoError(t, err)

	// Same issuer, new serial, valid check digit.
	assert.NotEqual(t, f.source.ICCID, clone.ICCID)
	assert.Equal(t, gsm.IssuerPrefix(f.source.ICCID), gsm.IssuerPrefix(clone.ICCID))
	assert.Len(t, clone.ICCID, len(f.source.ICCID))
	require.NoError(t, gsm.ValidateICCID(clone.ICCID))

	// Reissued IMSI keeps the network prefix only.
	assert.NotEqual(t, f.source.IMSI, clone.IMSI)
	assert.Equal(t, f.source.IMSI[:5], clone.IMSI[:5])
	assert.Len(t, clone.IMSI, len(f.source.IMSI))

	// Operator attributes carry over.
	assert.Equal(t, f.source.SPN, clone.SPN)
	assert.Equal(t, f.source.CardType, clone.CardType)
	assert.Equal(t, f.source.AuthAlgorithm, clone.AuthAlgorithm)
	assert.Equal(t, f.source.EncryptionType, clone.EncryptionType)
}

func TestClone_KeysRequireCopySettings(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)
	clone, err := f.cards.FindByID(context.Background(), result.NewCardID)
	require.NoError(t, err)
	assert.Empty(t, clone.Ki)
	assert.Empty(t, clone.OPc)

	result, err = f.service.Clone(context.Background(), f.source.ID, Options{CopySettings: true})
	require.NoError(t, err)
	clone, err = f.cards.FindByID(context.Background(), result.NewCardID)
	require.NoError(t, err)
	assert.Equal(t, f.source.Ki, clone.Ki)
	assert.Equal(t, f.source.OPc, clone.OPc)
}

func TestClone_CopiesContactsPreservingIndexes(t *testing.T) {
	f := newFixture(t)
	f.addContact(t, 1, "Alice", "+1555000001")
	f.addContact(t, 3, "Carol", "+1555000003")

	result, err := f.service.Clone(context.Background(), f.source.ID, Options{CopyContacts: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ContactsCloned)

	cloned, err := f.contacts.ListByCard(context.Background(), result.NewCardID)
	require.NoError(t, err)
	require.Len(t, cloned, 2)
	assert.Equal(t, 1, cloned[0].Index)
	assert.Equal(t, "Alice", cloned[0].Name)
	assert.Equal(t, 3, cloned[1].Index)
	assert.Equal(t, "Carol", cloned[1].Name)

	originals, err := f.contacts.ListByCard(context.Background(), f.source.ID)
	require.NoError(t, err)
	for i, c := range cloned {
		assert.NotEqual(t, originals[i].ID, c.ID)
	}
}

func TestClone_CopiesSMSPreservingTimestampAndStatus(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.addSMS(t, "+1555000009", models.SMSStatusRead, ts)

	result, err := f.service.Clone(context.Background(), f.source.ID, Options{CopySMS: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SMSCloned)

	cloned, err := f.sms.ListByCard(context.Background(), result.NewCardID)
	require.NoError(t, err)
	require.Len(t, cloned, 1)
	assert.Equal(t, ts, cloned[0].Timestamp)
	assert.Equal(t, models.SMSStatusRead, cloned[0].Status)
}

func TestClone_OptionsOffCopiesNothing(t *testing.T) {
	f := newFixture(t)
	f.addContact(t, 1, "Alice", "+1555000001")
	f.addSMS(t, "+1555000009", models.SMSStatusSent, time.Now().UTC())

	result, err := f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)
	assert.Zero(t, result.ContactsCloned)
	assert.Zero(t, result.SMSCloned)

	contacts, err := f.contacts.ListByCard(context.Background(), result.NewCardID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestClone_SourceNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Clone(context.Background(), domain.NewCardID(), Options{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestClone_BusyWhileLocked(t *testing.T) {
	f := newFixture(t)

	release, err := f.service.locker.Acquire(context.Background(), f.source.ID.String())
	require.NoError(t, err)
	defer release()

	_, err = f.service.Clone(context.Background(), f.source.ID, Options{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBusy))
}

func TestClone_LockReleasedAfterClone(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)

	_, err = f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)
}

type failingSMSStore struct {
	SMSStore
}

func (failingSMSStore) Create(context.Context, *models.SMS) error {
	return errors.New("disk full")
}

func TestClone_FailureLeavesNothingPartial(t *testing.T) {
	f := newFixture(t)
	f.addContact(t, 1, "Alice", "+1555000001")
	f.addSMS(t, "+1555000009", models.SMSStatusSent, time.Now().UTC())

	f2 := newFixture(t)
	f2.service.sms = failingSMSStore{SMSStore: f2.sms}
	f2.addContact(t, 1, "Alice", "+1555000001")
	f2.addSMS(t, "+1555000009", models.SMSStatusSent, time.Now().UTC())

	_, err := f2.service.Clone(context.Background(), f2.source.ID, Options{CopyContacts: true, CopySMS: true})
	require.Error(t, err)

	// Only the source card remains; the failed clone left no card and no
	// contacts behind.
	cards, err := f2.cards.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, f2.source.ID, cards[0].ID)
}

func TestClone_IMSIPreservePolicyEmitsWarning(t *testing.T) {
	f := newFixture(t, withIMSIPolicy(config.CloneIMSIPreserve))

	result, err := f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)

	clone, err := f.cards.FindByID(context.Background(), result.NewCardID)
	require.NoError(t, err)
	assert.Equal(t, f.source.IMSI, clone.IMSI)

	events, err := f.auditLog.List(context.Background(), 0, result.NewCardID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.StatusWarning, events[0].Status)
}

func TestClone_EmitsAuditEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Clone(context.Background(), f.source.ID, Options{})
	require.NoError(t, err)

	events, err := f.auditLog.List(context.Background(), 0, f.source.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCardClone, events[0].Action)
	assert.Equal(t, audit.StatusSuccess, events[0].Status)
}

func TestClone_RepeatedClonesStayDistinct(t *testing.T) {
	f := newFixture(t)

	seen := map[string]bool{f.source.ICCID: true}
	for range 20 {
		result, err := f.service.Clone(context.Background(), f.source.ID, Options{})
		require.NoError(t, err)
		clone, err := f.cards.FindByID(context.Background(), result.NewCardID)
		require.NoError(t, err)
		assert.False(t, seen[clone.ICCID], "iccid %s repeated", clone.ICCID)
		seen[clone.ICCID] = true
	}
}
