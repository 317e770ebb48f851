package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"simguard/internal/esim/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
)

type ProfileStoreSuite struct {
	suite.Suite
	store  *InMemory
	ctx    context.Context
	cardID domain.CardID
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.cardID = domain.NewCardID()
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) newProfile(cardID domain.CardID, code string, ts time.Time) *models.Profile {
	return &models.Profile{
		ID:             domain.NewProfileID(),
		CardID:         cardID,
		ProfileName:    "Primary",
		Carrier:        "TestNet Mobile",
		QRData:         code,
		ActivationCode: code,
		Status:         models.StatusReady,
		Timestamp:      ts,
	}
}

// TestCreateAndFind verifies the activation-code lookup used for
// idempotent conversion.
func (s *ProfileStoreSuite) TestCreateAndFind() {
	code := "LPA:1$rsp.test.local$ABCDEFGH12345678"

	s.Run("finds profile by card and activation code", func() {
		profile := s.newProfile(s.cardID, code, time.Now().UTC())
		s.Require().NoError(s.store.Create(s.ctx, profile))

		found, err := s.store.FindByActivationCode(s.ctx, s.cardID, code)
		s.Require().NoError(err)
		s.Equal(profile.ID, found.ID)
	})

	s.Run("returns ErrNotFound for a different card", func() {
		_, err := s.store.FindByActivationCode(s.ctx, domain.NewCardID(), code)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for an unknown code", func() {
		_, err := s.store.FindByActivationCode(s.ctx, s.cardID, "LPA:1$other$X")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestListByCard verifies ordering and card scoping.
func (s *ProfileStoreSuite) TestListByCard() {
	base := time.Now().UTC()
	other := domain.NewCardID()

	for i := 0; i < 2; i++ {
		code := fmt.Sprintf("LPA:1$rsp.test.local$CODE%d", i)
		s.Require().NoError(s.store.Create(s.ctx,
			s.newProfile(s.cardID, code, base.Add(time.Duration(i)*time.Minute))))
	}
	s.Require().NoError(s.store.Create(s.ctx,
		s.newProfile(other, "LPA:1$rsp.test.local$OTHER", base)))

	profiles, err := s.store.ListByCard(s.ctx, s.cardID)
	s.Require().NoError(err)
	s.Require().Len(profiles, 2)
	s.True(profiles[0].Timestamp.After(profiles[1].Timestamp))
}

// TestDeleteByCard verifies the cascade removal hook.
func (s *ProfileStoreSuite) TestDeleteByCard() {
	other := domain.NewCardID()
	now := time.Now().UTC()
	s.Require().NoError(s.store.Create(s.ctx, s.newProfile(s.cardID, "LPA:1$a$B", now)))
	s.Require().NoError(s.store.Create(s.ctx, s.newProfile(other, "LPA:1$a$C", now)))

	s.Require().NoError(s.store.DeleteByCard(s.ctx, s.cardID))

	mine, err := s.store.ListByCard(s.ctx, s.cardID)
	s.Require().NoError(err)
	s.Empty(mine)

	theirs, err := s.store.ListByCard(s.ctx, other)
	s.Require().NoError(err)
	s.Len(theirs, 1)
}
