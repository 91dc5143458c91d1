package models

import "time"

// QueueEntry is an ephemeral, process-local matchmaking entry. It exists
// in at most one queue; created on join, destroyed on match or leave.
type QueueEntry struct {
	PlayerID      string    `json:"playerId"`
	Username      string    `json:"username"`
	Rating        int       `json:"rating"`
	RankTier      RankTier  `json:"rankTier"`
	MatchType     string    `json:"matchType"`
	QueuedAt      time.Time `json:"queuedAt"`
	ToleranceBase int       `json:"eloToleranceBase"`
	MaxWait       time.Duration `json:"-"`
}

// Window returns the acceptable opponent rating distance after waiting
// for elapsed: the base tolerance widened by widenPerSec per second.
func (e *QueueEntry) Window(elapsed time.Duration, widenPerSec int) int {
	return e.ToleranceBase + int(elapsed.Seconds())*widenPerSec
}

// QueueStatus is the read-only view of one player's queue position.
type QueueStatus struct {
	PlayerID      string        `json:"playerId"`
	MatchType     string        `json:"matchType"`
	Position      int           `json:"position"`
	QueueDepth    int           `json:"queueDepth"`
	Waited        time.Duration `json:"-"`
	WaitedSeconds int           `json:"waitedSeconds"`
	CurrentWindow int           `json:"currentWindow"`
	EstimatedWait int           `json:"estimatedWaitSeconds"`
}
