//go:build integration

package contact_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"simguard/internal/card/models"
	cardstore "simguard/internal/card/store/card"
	"simguard/internal/card/store/contact"
	"simguard/pkg/domain"
	"simguard/pkg/gsm"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	cards    *cardstore.Postgres
	store    *contact.Postgres
	cardID   domain.CardID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.cards = cardstore.NewPostgres(s.postgres.DB)
	s.store = contact.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "contacts", "cards")
	s.Require().NoError(err)
	s.cardID = s.createCard(1)
}

// createCard inserts a parent card so contact rows satisfy the foreign key.
func (s *PostgresStoreSuite) createCard(serial int) domain.CardID {
	payload := fmt.Sprintf("890141000000%06d", serial)
	check, err := gsm.LuhnCheckDigit(payload)
	s.Require().NoError(err)

	card := &models.Card{
		ID:        domain.NewCardID(),
		ICCID:     payload + string(check),
		IMSI:      fmt.Sprintf("31017000000%04d", serial),
		CardType:  models.CardTypeNano,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.cards.Create(context.Background(), card))
	return card.ID
}

func (s *PostgresStoreSuite) newContact(cardID domain.CardID, index int) *models.Contact {
	return &models.Contact{
		ID:     domain.NewContactID(),
		CardID: cardID,
		Index:  index,
		Name:   fmt.Sprintf("Contact %d", index),
		Number: fmt.Sprintf("+1555000%04d", index),
		Group:  "work",
		Email:  fmt.Sprintf("c%d@example.test", index),
	}
}

// TestRoundTrip verifies a created contact comes back field for field.
func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	want := s.newContact(s.cardID, 1)
	s.Require().NoError(s.store.Create(ctx, want))

	got, err := s.store.FindByID(ctx, want.ID)
	s.Require().NoError(err)
	s.Equal(want.CardID, got.CardID)
	s.Equal(want.Index, got.Index)
	s.Equal(want.Number, got.Number)
	s.Equal(want.Group, got.Group)
	s.Equal(want.Email, got.Email)
}

// TestIndexUniqueness verifies the (card_id, idx) constraint.
func (s *PostgresStoreSuite) TestIndexUniqueness() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 1)))

	err := s.store.Create(ctx, s.newContact(s.cardID, 1))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	other := s.createCard(2)
	s.Require().NoError(s.store.Create(ctx, s.newContact(other, 1)))
}

// TestNextIndex verifies index assignment follows the highest live index.
func (s *PostgresStoreSuite) TestNextIndex() {
	ctx := context.Background()

	next, err := s.store.NextIndex(ctx, s.cardID)
	s.Require().NoError(err)
	s.Equal(1, next)

	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 1)))
	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 3)))

	next, err = s.store.NextIndex(ctx, s.cardID)
	s.Require().NoError(err)
	s.Equal(4, next)
}

// TestListByCard verifies index ordering and card scoping.
func (s *PostgresStoreSuite) TestListByCard() {
	ctx := context.Background()
	other := s.createCard(3)

	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 2)))
	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 1)))
	s.Require().NoError(s.store.Create(ctx, s.newContact(other, 1)))

	contacts, err := s.store.ListByCard(ctx, s.cardID)
	s.Require().NoError(err)
	s.Require().Len(contacts, 2)
	s.Equal(1, contacts[0].Index)
	s.Equal(2, contacts[1].Index)
}

// TestUpdateAndDelete verifies edits, removal, and sentinel translation.
func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()

	c := s.newContact(s.cardID, 1)
	s.Require().NoError(s.store.Create(ctx, c))

	c.Name = "Renamed"
	c.Number = "+15559999999"
	s.Require().NoError(s.store.Update(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
	s.Equal("+15559999999", got.Number)

	s.Require().NoError(s.store.Delete(ctx, c.ID))
	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, c.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, c), sentinel.ErrNotFound)
}

// TestDeleteByCard verifies the cascade removal hook.
func (s *PostgresStoreSuite) TestDeleteByCard() {
	ctx := context.Background()
	other := s.createCard(4)

	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 1)))
	s.Require().NoError(s.store.Create(ctx, s.newContact(s.cardID, 2)))
	s.Require().NoError(s.store.Create(ctx, s.newContact(other, 1)))

	s.Require().NoError(s.store.DeleteByCard(ctx, s.cardID))

	mine, err := s.store.ListByCard(ctx, s.cardID)
	s.Require().NoError(err)
	s.Empty(mine)

	theirs, err := s.store.ListByCard(ctx, other)
	s.Require().NoError(err)
	s.Len(theirs, 1)
}
