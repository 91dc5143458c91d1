package models

import "time"

// MatchType describes one queueable game configuration.
type MatchType struct {
	Name      string         `json:"name"`
	BoardSize int            `json:"boardSize"`
	TimeLimit *time.Duration `json:"-"`
}

// TimeLimitMs is the wire form of the per-player clock, nil when untimed.
func (m MatchType) TimeLimitMs() *int64 {
	if m.TimeLimit == nil {
		return nil
	}
	ms := m.TimeLimit.Milliseconds()
	return &ms
}

var blitzLimit = 5 * time.Minute

// MatchTypes is the catalog of queueable match types. Queues are
// independent per type; unknown types are rejected at the boundary.
var MatchTypes = map[string]MatchType{
	"standard": {Name: "standard", BoardSize: 8},
	"blitz":    {Name: "blitz", BoardSize: 8, TimeLimit: &blitzLimit},
	"mini":     {Name: "mini", BoardSize: 6},
}
