package respawn

import (
	"time"

	"github.com/mcoot/mobaserver/internal/model"
)

// key identifies the single pending respawn a player may have
type key struct {
	matchID  model.MatchID
	playerID model.ConnectionID
}

// event is a pending respawn
type event struct {
	key
	due         time.Time
	scheduledAt time.Time
	seq         uint64 // insertion order, breaks due-time ties
	index       int    // position in the heap, maintained by the heap methods
}

// eventQueue is a min-heap of events ordered by due time
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*q = old[:n-1]
	return ev
}

// peek returns the earliest event without removing it
func (q eventQueue) peek() *event {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
