package testutil

import (
	"context"
	"sync"

	"github.com/mcoot/mobaserver/internal/model"
)

// RecordingPublisher is a model.Publisher that records everything it is given
type RecordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
	groups map[model.MatchID]map[model.ConnectionID]bool
}

// NewRecordingPublisher creates an empty RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{
		groups: make(map[model.MatchID]map[model.ConnectionID]bool),
	}
}

var _ model.Publisher = (*RecordingPublisher)(nil)

func (p *RecordingPublisher) Publish(_ context.Context, event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *RecordingPublisher) JoinGroup(matchID model.MatchID, id model.ConnectionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.groups[matchID] == nil {
		p.groups[matchID] = make(map[model.ConnectionID]bool)
	}
	p.groups[matchID][id] = true
}

func (p *RecordingPublisher) LeaveGroup(matchID model.MatchID, id model.ConnectionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.groups[matchID], id)
	if len(p.groups[matchID]) == 0 {
		delete(p.groups, matchID)
	}
}

// Events returns a copy of every recorded event
func (p *RecordingPublisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// EventsOfType returns recorded events with the given type
func (p *RecordingPublisher) EventsOfType(t model.EventType) []model.Event {
	var out []model.Event
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// InGroup reports whether a connection is currently in a match group
func (p *RecordingPublisher) InGroup(matchID model.MatchID, id model.ConnectionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.groups[matchID][id]
}

// Reset clears recorded events
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
