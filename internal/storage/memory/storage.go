package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	registrations map[model.ConnectionID]*model.Registration
	summaries     map[model.MatchID]*model.MatchSummary
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		registrations: make(map[model.ConnectionID]*model.Registration),
		summaries:     make(map[model.MatchID]*model.MatchSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Registration operations

func (s *Storage) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *reg
	s.registrations[reg.ConnectionID] = &r
	return nil
}

func (s *Storage) GetRegistration(ctx context.Context, id model.ConnectionID) (*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[id]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	r := *reg
	return &r, nil
}

func (s *Storage) DeleteRegistration(ctx context.Context, id model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, id)
	return nil
}

// Match history operations

func (s *Storage) SaveMatchSummary(ctx context.Context, summary *model.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.MatchID] = copySummary(summary)
	return nil
}

func (s *Storage) ListMatchSummaries(ctx context.Context, limit int) ([]*model.MatchSummary, error) {
	s.mu.RLock()
	summaries := make([]*model.MatchSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		summaries = append(summaries, copySummary(summary))
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].EndTime.Equal(summaries[j].EndTime) {
			return summaries[i].MatchID < summaries[j].MatchID
		}
		return summaries[i].EndTime.After(summaries[j].EndTime)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func copySummary(summary *model.MatchSummary) *model.MatchSummary {
	c := *summary
	c.Players = append([]model.PlayerSummary(nil), summary.Players...)
	return &c
}
