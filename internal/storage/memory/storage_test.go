package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mcoot/mobaserver/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// Registration tests

func (s *StorageSuite) TestSaveAndGetRegistration() {
	reg := &model.Registration{
		ConnectionID: "conn-1",
		Username:     "alice",
		HeroID:       model.HeroSukuna,
		RegisteredAt: s.now,
	}

	err := s.storage.SaveRegistration(s.ctx, reg)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRegistration(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Equal(*reg, *retrieved)
}

func (s *StorageSuite) TestSaveRegistrationOverwrites() {
	_ = s.storage.SaveRegistration(s.ctx, &model.Registration{ConnectionID: "conn-1", Username: "alice"})
	_ = s.storage.SaveRegistration(s.ctx, &model.Registration{ConnectionID: "conn-1", Username: "bob", HeroID: model.HeroDenji})

	retrieved, err := s.storage.GetRegistration(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Equal("bob", retrieved.Username)
	s.Equal(model.HeroDenji, retrieved.HeroID)
}

func (s *StorageSuite) TestGetRegistrationNotFound() {
	_, err := s.storage.GetRegistration(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRegistrationNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *StorageSuite) TestDeleteRegistration() {
	_ = s.storage.SaveRegistration(s.ctx, &model.Registration{ConnectionID: "conn-1", Username: "alice"})

	err := s.storage.DeleteRegistration(s.ctx, "conn-1")
	s.Require().NoError(err)

	_, err = s.storage.GetRegistration(s.ctx, "conn-1")
	s.ErrorIs(err, model.ErrRegistrationNotFound)
}

func (s *StorageSuite) TestReturnedRegistrationIsACopy() {
	_ = s.storage.SaveRegistration(s.ctx, &model.Registration{ConnectionID: "conn-1", Username: "alice"})

	retrieved, _ := s.storage.GetRegistration(s.ctx, "conn-1")
	retrieved.Username = "mallory"

	again, _ := s.storage.GetRegistration(s.ctx, "conn-1")
	s.Equal("alice", again.Username)
}

// Match history tests

func (s *StorageSuite) summary(id string, endOffset time.Duration) *model.MatchSummary {
	return &model.MatchSummary{
		MatchID:    model.MatchID(id),
		StartTime:  s.now,
		EndTime:    s.now.Add(endOffset),
		Team1Score: 3,
		Team2Score: 1,
		Players: []model.PlayerSummary{
			{ConnectionID: "a", Username: "alice", TeamID: model.Team1, Kills: 3},
			{ConnectionID: "b", Username: "bob", TeamID: model.Team2, Deaths: 3},
		},
	}
}

func (s *StorageSuite) TestListMatchSummariesNewestFirst() {
	for i := 1; i <= 3; i++ {
		err := s.storage.SaveMatchSummary(s.ctx, s.summary(fmt.Sprintf("match-%d", i), time.Duration(i)*time.Minute))
		s.Require().NoError(err)
	}

	summaries, err := s.storage.ListMatchSummaries(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(summaries, 3)
	s.Equal(model.MatchID("match-3"), summaries[0].MatchID)
	s.Equal(model.MatchID("match-2"), summaries[1].MatchID)
	s.Equal(model.MatchID("match-1"), summaries[2].MatchID)
	s.Len(summaries[0].Players, 2)
}

func (s *StorageSuite) TestListMatchSummariesRespectsLimit() {
	for i := 1; i <= 5; i++ {
		_ = s.storage.SaveMatchSummary(s.ctx, s.summary(fmt.Sprintf("match-%d", i), time.Duration(i)*time.Minute))
	}

	summaries, err := s.storage.ListMatchSummaries(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)
	s.Equal(model.MatchID("match-5"), summaries[0].MatchID)
	s.Equal(model.MatchID("match-4"), summaries[1].MatchID)
}

func (s *StorageSuite) TestListMatchSummariesEmpty() {
	summaries, err := s.storage.ListMatchSummaries(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(summaries)
}
