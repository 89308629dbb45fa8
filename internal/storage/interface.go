package storage

import (
	"context"

	"github.com/mcoot/mobaserver/internal/model"
)

// Storage defines the interface for data persistence.
// Live match state is never stored here; the registry owns it.
type Storage interface {
	// Registration operations
	SaveRegistration(ctx context.Context, reg *model.Registration) error
	GetRegistration(ctx context.Context, id model.ConnectionID) (*model.Registration, error)
	DeleteRegistration(ctx context.Context, id model.ConnectionID) error

	// Match history operations
	SaveMatchSummary(ctx context.Context, summary *model.MatchSummary) error
	// ListMatchSummaries returns up to limit summaries, most recently ended first.
	// A limit of zero or less returns all of them.
	ListMatchSummaries(ctx context.Context, limit int) ([]*model.MatchSummary, error)
}
