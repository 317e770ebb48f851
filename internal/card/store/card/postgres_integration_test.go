//go:build integration

package card_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"simguard/internal/card/models"
	"simguard/internal/card/store/card"
	"simguard/pkg/domain"
	"simguard/pkg/gsm"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/platform/tx"
	"simguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *card.Postgres
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
	s.store = card.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "cards")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newCard(serial int) *models.Card {
	payload := fmt.Sprintf("890141000000%06d", serial)
	check, err := gsm.LuhnCheckDigit(payload)
	s.Require().NoError(err)

	return &models.Card{
		ID:             domain.NewCardID(),
		ICCID:          payload + string(check),
		IMSI:           fmt.Sprintf("31017000000%04d", serial),
		MCC:            "310",
		MNC:            "170",
		SPN:            "TestNet Mobile",
		CardType:       models.CardTypeNano,
		AuthAlgorithm:  "MILENAGE",
		EncryptionType: "A5/3",
		CreatedAt:      time.Now().UTC(),
	}
}

// TestRoundTrip verifies a created card comes back field for field.
func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	want := s.newCard(1)
	want.Ki = "0123456789abcdef0123456789abcdef"
	want.OPc = "fedcba9876543210fedcba9876543210"
	s.Require().NoError(s.store.Create(ctx, want))

	got, err := s.store.FindByID(ctx, want.ID)
	s.Require().NoError(err)
	s.Equal(want.ICCID, got.ICCID)
	s.Equal(want.IMSI, got.IMSI)
	s.Equal(want.CardType, got.CardType)
	s.Equal(want.Ki, got.Ki)
	s.Equal(want.OPc, got.OPc)
	s.WithinDuration(want.CreatedAt, got.CreatedAt, time.Second)
}

// TestConcurrentDuplicateICCID verifies the unique constraint yields exactly
// one winner under contention.
func (s *PostgresStoreSuite) TestConcurrentDuplicateICCID() {
	ctx := context.Background()
	const goroutines = 20

	template := s.newCard(2)

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c := *template
			c.ID = domain.NewCardID()
			err := s.store.Create(ctx, &c)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should win")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should see the conflict")
}

// TestICCIDReuseAfterDelete verifies uniqueness applies to live cards only.
func (s *PostgresStoreSuite) TestICCIDReuseAfterDelete() {
	ctx := context.Background()

	first := s.newCard(3)
	s.Require().NoError(s.store.Create(ctx, first))

	exists, err := s.store.ICCIDExists(ctx, first.ICCID)
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.store.Delete(ctx, first.ID))

	exists, err = s.store.ICCIDExists(ctx, first.ICCID)
	s.Require().NoError(err)
	s.False(exists)

	replacement := s.newCard(3)
	s.Require().NoError(s.store.Create(ctx, replacement))
}

// TestListNewestFirst verifies List ordering.
func (s *PostgresStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		c := s.newCard(10 + i)
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Create(ctx, c))
	}

	cards, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(cards, 3)
	s.True(cards[0].CreatedAt.After(cards[1].CreatedAt))
	s.True(cards[1].CreatedAt.After(cards[2].CreatedAt))
}

// TestTransactionRollback verifies a failed unit of work leaves no card
// behind.
func (s *PostgresStoreSuite) TestTransactionRollback() {
	ctx := context.Background()
	runner := &tx.SQLRunner{DB: s.postgres.DB}

	c := s.newCard(20)
	wantErr := errors.New("boom")

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, c); err != nil {
			return err
		}
		return wantErr
	})
	s.Require().ErrorIs(err, wantErr)

	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestNotFound verifies sentinel translation for missing rows.
func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, domain.NewCardID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(ctx, domain.NewCardID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
