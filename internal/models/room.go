package models

import "time"

type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"
	RoomStatusReady      RoomStatus = "ready"
	RoomStatusInProgress RoomStatus = "in-progress"
	RoomStatusFinished   RoomStatus = "finished"
	RoomStatusAbandoned  RoomStatus = "abandoned"
)

// Terminal reports whether no further transitions are possible.
func (s RoomStatus) Terminal() bool {
	return s == RoomStatusFinished || s == RoomStatusAbandoned
}

type FinishReason string

const (
	FinishCompletion    FinishReason = "completion"
	FinishResignation   FinishReason = "resignation"
	FinishTime          FinishReason = "time"
	FinishDrawAgreement FinishReason = "draw-agreement"
	FinishDisconnect    FinishReason = "disconnect"
)

// MoveRecord is one accepted queen placement in the ordered move log.
type MoveRecord struct {
	Seq      int       `json:"seq"`
	PlayerID string    `json:"playerId"`
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	PlayedAt time.Time `json:"playedAt"`
}

// ChatMessage is one entry of the bounded per-room chat log.
type ChatMessage struct {
	PlayerID    string    `json:"playerId"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	IsSpectator bool      `json:"isSpectator"`
	SentAt      time.Time `json:"sentAt"`
}

const ChatLogSize = 100

// PlayerSlotDoc is the persisted form of a room's player slot.
type PlayerSlotDoc struct {
	PlayerID           string     `json:"playerId"`
	Username           string     `json:"username"`
	RatingAtMatchStart int        `json:"ratingAtMatchStart"`
	IsReady            bool       `json:"isReady"`
	IsConnected        bool       `json:"isConnected"`
	Board              [][]bool   `json:"board"`
	QueensPlaced       int        `json:"queensPlaced"`
	MovesCount         int        `json:"movesCount"`
	TimeRemaining      *int64     `json:"timeRemainingMs,omitempty"`
	LastMoveAt         *time.Time `json:"lastMoveAt,omitempty"`
}

// RoomDoc is the persisted room document: one per match, immutable once
// finished except for the rematch back-pointer.
type RoomDoc struct {
	ID              string        `json:"id"`
	MatchType       string        `json:"matchType"`
	BoardSize       int           `json:"boardSize"`
	TimeLimit       *int64        `json:"timeLimitMs,omitempty"`
	Status          RoomStatus    `json:"status"`
	Players         [2]PlayerSlotDoc `json:"players"`
	Moves           []MoveRecord  `json:"moves"`
	Spectators      []string      `json:"spectators"`
	Chat            []ChatMessage `json:"chat"`
	AllowSpectators bool          `json:"allowSpectators"`
	WinnerID        *string       `json:"winnerId,omitempty"`
	Reason          *FinishReason `json:"reason,omitempty"`
	RematchRoomID   *string       `json:"rematchRoomId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	FinishedAt      *time.Time    `json:"finishedAt,omitempty"`
}

// Duration returns the match length, zero until finished.
func (d *RoomDoc) Duration() time.Duration {
	if d.StartedAt == nil || d.FinishedAt == nil {
		return 0
	}
	return d.FinishedAt.Sub(*d.StartedAt)
}
