package redis

import (
	"fmt"

	"github.com/mcoot/mobaserver/internal/model"
)

// Key prefix for all server data
const keyPrefix = "moba"

// registrationKey returns the Redis key for a connection's Registration
func registrationKey(id model.ConnectionID) string {
	return fmt.Sprintf("%s:registration:%s", keyPrefix, id)
}

// summaryKey returns the Redis key for a MatchSummary
func summaryKey(id model.MatchID) string {
	return fmt.Sprintf("%s:summary:%s", keyPrefix, id)
}

// summaryIndexKey returns the Redis key for the ZSET of match ids scored by end time
func summaryIndexKey() string {
	return fmt.Sprintf("%s:idx:summaries", keyPrefix)
}
