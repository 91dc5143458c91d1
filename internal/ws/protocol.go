// Package ws defines the websocket wire protocol: a closed set of client
// and server event kinds with fixed payload shapes, validated before any
// of them reach the room state machine.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client event kinds.
const (
	EvJoinQueue      = "join_queue"
	EvLeaveQueue     = "leave_queue"
	EvJoinRoom       = "join_room"
	EvReady          = "ready"
	EvMakeMove       = "make_move"
	EvResign         = "resign"
	EvOfferDraw      = "offer_draw"
	EvAcceptDraw     = "accept_draw"
	EvRejectDraw     = "reject_draw"
	EvSendMessage    = "send_message"
	EvJoinSpectate   = "join_spectate"
	EvLeaveSpectate  = "leave_spectate"
	EvRequestRematch = "request_rematch"
	EvAcceptRematch  = "accept_rematch"
	EvRejectRematch  = "reject_rematch"
	EvReconnectRoom  = "reconnect_room"
)

// Server event kinds.
const (
	EvQueueJoined        = "queue_joined"
	EvQueueLeft          = "queue_left"
	EvMatchFound         = "match_found"
	EvRoomJoined         = "room_joined"
	EvPlayerReady        = "player_ready"
	EvGameStarted        = "game_started"
	EvMoveMade           = "move_made"
	EvInvalidMove        = "invalid_move"
	EvGameFinished       = "game_finished"
	EvChatMessage        = "chat_message"
	EvSpectateJoined     = "spectate_joined"
	EvSpectatorJoined    = "spectator_joined"
	EvSpectatorLeft      = "spectator_left"
	EvDrawOffered        = "draw_offered"
	EvDrawRejected       = "draw_rejected"
	EvRematchRequested   = "rematch_requested"
	EvRematchRejected    = "rematch_rejected"
	EvRematchAccepted    = "rematch_accepted"
	EvPlayerDisconnected = "player_disconnected"
	EvPlayerReconnected  = "player_reconnected"
	EvReconnected        = "reconnected"
	EvError              = "error"
)

var (
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrInvalidPayload = errors.New("invalid event payload")
)

// Envelope is the raw wire frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinQueuePayload asks to enter a matchmaking queue.
type JoinQueuePayload struct {
	MatchType string `json:"matchType"`
}

// RoomPayload addresses a room-scoped action that needs no other fields
// (ready, resign, draw and rematch signals, spectate, reconnect).
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// MovePayload places a queen on the sender's own board.
type MovePayload struct {
	RoomID string `json:"roomId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// ChatPayload sends a chat message to a room.
type ChatPayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// ClientEvent is a decoded, validated inbound frame. Exactly one payload
// pointer is set, matching Type.
type ClientEvent struct {
	Type      string
	JoinQueue *JoinQueuePayload
	Room      *RoomPayload
	Move      *MovePayload
	Chat      *ChatPayload
}

// DecodeClientEvent parses and validates one inbound frame.
func DecodeClientEvent(data []byte) (*ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	ev := &ClientEvent{Type: env.Type}

	switch env.Type {
	case EvJoinQueue:
		var p JoinQueuePayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.MatchType == "" {
			return nil, fmt.Errorf("%w: matchType required", ErrInvalidPayload)
		}
		ev.JoinQueue = &p

	case EvLeaveQueue:
		// No payload.

	case EvMakeMove:
		var p MovePayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" {
			return nil, fmt.Errorf("%w: roomId required", ErrInvalidPayload)
		}
		if p.Row < 0 || p.Col < 0 {
			return nil, fmt.Errorf("%w: negative coordinates", ErrInvalidPayload)
		}
		ev.Move = &p

	case EvSendMessage:
		var p ChatPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" || p.Text == "" {
			return nil, fmt.Errorf("%w: roomId and text required", ErrInvalidPayload)
		}
		ev.Chat = &p

	case EvJoinRoom, EvReady, EvResign, EvOfferDraw, EvAcceptDraw, EvRejectDraw,
		EvJoinSpectate, EvLeaveSpectate, EvRequestRematch, EvAcceptRematch,
		EvRejectRematch, EvReconnectRoom:
		var p RoomPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" {
			return nil, fmt.Errorf("%w: roomId required", ErrInvalidPayload)
		}
		ev.Room = &p

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	return ev, nil
}

func unmarshalPayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: payload required", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// ServerEvent is one outbound frame.
type ServerEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewEvent builds an outbound frame.
func NewEvent(eventType string, payload interface{}) *ServerEvent {
	return &ServerEvent{Type: eventType, Payload: payload}
}

// ErrorPayload is the payload of an "error" frame, delivered only to the
// originating connection.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error frame.
func NewErrorEvent(code, message string) *ServerEvent {
	return &ServerEvent{
		Type:    EvError,
		Payload: ErrorPayload{Code: code, Message: message},
	}
}
