package ws

import (
	"errors"
	"testing"
)

func TestDecodeClientEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		check   func(t *testing.T, ev *ClientEvent)
	}{
		{
			name: "join queue",
			data: `{"type":"join_queue","payload":{"matchType":"standard"}}`,
			check: func(t *testing.T, ev *ClientEvent) {
				if ev.JoinQueue == nil || ev.JoinQueue.MatchType != "standard" {
					t.Errorf("expected join_queue payload, got %+v", ev)
				}
			},
		},
		{
			name:    "join queue without match type",
			data:    `{"type":"join_queue","payload":{}}`,
			wantErr: ErrInvalidPayload,
		},
		{
			name: "leave queue has no payload",
			data: `{"type":"leave_queue"}`,
			check: func(t *testing.T, ev *ClientEvent) {
				if ev.Type != EvLeaveQueue {
					t.Errorf("expected leave_queue, got %s", ev.Type)
				}
			},
		},
		{
			name: "make move",
			data: `{"type":"make_move","payload":{"roomId":"r1","row":3,"col":5}}`,
			check: func(t *testing.T, ev *ClientEvent) {
				if ev.Move == nil || ev.Move.Row != 3 || ev.Move.Col != 5 {
					t.Errorf("expected move payload, got %+v", ev.Move)
				}
			},
		},
		{
			name:    "make move with negative coordinates",
			data:    `{"type":"make_move","payload":{"roomId":"r1","row":-1,"col":0}}`,
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "make move without room",
			data:    `{"type":"make_move","payload":{"row":1,"col":2}}`,
			wantErr: ErrInvalidPayload,
		},
		{
			name: "resign is room scoped",
			data: `{"type":"resign","payload":{"roomId":"r1"}}`,
			check: func(t *testing.T, ev *ClientEvent) {
				if ev.Room == nil || ev.Room.RoomID != "r1" {
					t.Errorf("expected room payload, got %+v", ev.Room)
				}
			},
		},
		{
			name:    "chat requires text",
			data:    `{"type":"send_message","payload":{"roomId":"r1","text":""}}`,
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "unknown kind rejected",
			data:    `{"type":"format_disk","payload":{}}`,
			wantErr: ErrUnknownEvent,
		},
		{
			name:    "garbage frame",
			data:    `{{{`,
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeClientEvent([]byte(tt.data))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}
