package card

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	"simguard/pkg/gsm"
	"simguard/pkg/platform/sentinel"
)

type CardStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CardStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCardStoreSuite(t *testing.T) {
	suite.Run(t, new(CardStoreSuite))
}

func (s *CardStoreSuite) newCard(serial int) *models.Card {
	payload := fmt.Sprintf("890141000000%06d", serial)
	check, err := gsm.LuhnCheckDigit(payload)
	s.Require().NoError(err)

	return &models.Card{
		ID:        domain.NewCardID(),
		ICCID:     payload + string(check),
		IMSI:      fmt.Sprintf("31017000000%04d", serial),
		MCC:       "310",
		MNC:       "170",
		SPN:       "TestNet Mobile",
		CardType:  models.CardTypeNano,
		CreatedAt: time.Now().UTC(),
	}
}

// TestCreationAndLookups verifies the store correctly creates and
// retrieves cards.
func (s *CardStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds card by ID", func() {
		card := s.newCard(1)
		s.Require().NoError(s.store.Create(s.ctx, card))

		found, err := s.store.FindByID(s.ctx, card.ID)
		s.Require().NoError(err)
		s.Equal(card.ICCID, found.ICCID)
		s.Equal(card.IMSI, found.IMSI)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewCardID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned card is a copy", func() {
		card := s.newCard(2)
		s.Require().NoError(s.store.Create(s.ctx, card))

		found, err := s.store.FindByID(s.ctx, card.ID)
		s.Require().NoError(err)
		found.SPN = "mutated"

		again, err := s.store.FindByID(s.ctx, card.ID)
		s.Require().NoError(err)
		s.Equal("TestNet Mobile", again.SPN)
	})
}

// TestICCIDUniqueness verifies the live-ICCID uniqueness invariant.
func (s *CardStoreSuite) TestICCIDUniqueness() {
	s.Run("rejects duplicate ICCID", func() {
		first := s.newCard(10)
		second := s.newCard(10)

		s.Require().NoError(s.store.Create(s.ctx, first))

		err := s.store.Create(s.ctx, second)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("ICCIDExists reflects live cards only", func() {
		card := s.newCard(11)
		s.Require().NoError(s.store.Create(s.ctx, card))

		exists, err := s.store.ICCIDExists(s.ctx, card.ICCID)
		s.Require().NoError(err)
		s.True(exists)

		s.Require().NoError(s.store.Delete(s.ctx, card.ID))

		exists, err = s.store.ICCIDExists(s.ctx, card.ICCID)
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("ICCID is reusable after deletion", func() {
		card := s.newCard(12)
		s.Require().NoError(s.store.Create(s.ctx, card))
		s.Require().NoError(s.store.Delete(s.ctx, card.ID))

		replacement := s.newCard(12)
		s.Require().NoError(s.store.Create(s.ctx, replacement))
	})
}

// TestListOrdering verifies List returns cards newest first.
func (s *CardStoreSuite) TestListOrdering() {
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		card := s.newCard(20 + i)
		card.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Create(s.ctx, card))
	}

	cards, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cards, 3)
	s.True(cards[0].CreatedAt.After(cards[1].CreatedAt))
	s.True(cards[1].CreatedAt.After(cards[2].CreatedAt))
}

// TestDeletion verifies delete semantics.
func (s *CardStoreSuite) TestDeletion() {
	s.Run("removes the card", func() {
		card := s.newCard(30)
		s.Require().NoError(s.store.Create(s.ctx, card))
		s.Require().NoError(s.store.Delete(s.ctx, card.ID))

		_, err := s.store.FindByID(s.ctx, card.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		err := s.store.Delete(s.ctx, domain.NewCardID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
