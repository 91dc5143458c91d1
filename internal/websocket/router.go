package websocket

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/game"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/service"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/ws"
)

// EventRouter maps validated inbound events onto queue and room
// operations. Rejections go back to the originating connection only;
// accepted mutations are broadcast by the room itself.
type EventRouter struct {
	queue   *service.QueueService
	manager *game.Manager
	logger  *zap.Logger
}

func NewEventRouter(queue *service.QueueService, manager *game.Manager, logger *zap.Logger) *EventRouter {
	return &EventRouter{
		queue:   queue,
		manager: manager,
		logger:  logger,
	}
}

func (rt *EventRouter) HandleEvent(client *Client, event *ws.ClientEvent) {
	switch event.Type {
	case ws.EvJoinQueue:
		status, err := rt.queue.Enqueue(client.PlayerID(), client.Username(), event.JoinQueue.MatchType)
		if err != nil {
			rt.reject(client, err)
			return
		}
		client.Send(ws.NewEvent(ws.EvQueueJoined, status))

	case ws.EvLeaveQueue:
		if err := rt.queue.Dequeue(client.PlayerID()); err != nil {
			rt.reject(client, err)
			return
		}
		client.Send(ws.NewEvent(ws.EvQueueLeft, nil))

	case ws.EvJoinRoom:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			doc, err := room.Join(client.PlayerID())
			if err != nil {
				return err
			}
			client.Send(ws.NewEvent(ws.EvRoomJoined, doc))
			return nil
		})

	case ws.EvReady:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.Ready(client.PlayerID())
		})

	case ws.EvMakeMove:
		rt.withRoom(client, event.Move.RoomID, func(room *game.Room) error {
			err := room.MakeMove(client.PlayerID(), event.Move.Row, event.Move.Col)
			var placement *game.PlacementError
			if errors.As(err, &placement) {
				// Invalid placements are private; the opponent sees
				// nothing.
				client.Send(ws.NewEvent(ws.EvInvalidMove, map[string]interface{}{
					"row":    placement.Row,
					"col":    placement.Col,
					"reason": placement.Reason,
				}))
				return nil
			}
			return err
		})

	case ws.EvResign:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.Resign(client.PlayerID())
		})

	case ws.EvOfferDraw:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.OfferDraw(client.PlayerID())
		})

	case ws.EvAcceptDraw:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.AcceptDraw(client.PlayerID())
		})

	case ws.EvRejectDraw:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.RejectDraw(client.PlayerID())
		})

	case ws.EvSendMessage:
		rt.withRoom(client, event.Chat.RoomID, func(room *game.Room) error {
			return room.SendChat(client.PlayerID(), client.Username(), event.Chat.Text)
		})

	case ws.EvJoinSpectate:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			doc, err := room.AddSpectator(client.PlayerID())
			if err != nil {
				return err
			}
			client.Send(ws.NewEvent(ws.EvSpectateJoined, doc))
			return nil
		})

	case ws.EvLeaveSpectate:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			room.RemoveSpectator(client.PlayerID())
			return nil
		})

	case ws.EvRequestRematch, ws.EvAcceptRematch:
		// Accepting is just the second request of the handshake.
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.RequestRematch(client.PlayerID())
		})

	case ws.EvRejectRematch:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			return room.RejectRematch(client.PlayerID())
		})

	case ws.EvReconnectRoom:
		rt.withRoom(client, event.Room.RoomID, func(room *game.Room) error {
			doc, err := room.Resume(client.PlayerID())
			if err != nil {
				return err
			}
			client.Send(ws.NewEvent(ws.EvReconnected, doc))
			return nil
		})

	default:
		client.Send(ws.NewErrorEvent("unknown_event", "unsupported event type"))
	}
}

func (rt *EventRouter) withRoom(client *Client, roomID string, fn func(room *game.Room) error) {
	room, err := rt.manager.Room(roomID)
	if err != nil {
		rt.reject(client, err)
		return
	}
	if err := fn(room); err != nil {
		rt.reject(client, err)
	}
}

func (rt *EventRouter) reject(client *Client, err error) {
	client.Send(ws.NewErrorEvent(errorCode(err), err.Error()))
}

// errorCode maps domain errors onto stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrAlreadyQueued):
		return "already_queued"
	case errors.Is(err, service.ErrNotInQueue):
		return "not_in_queue"
	case errors.Is(err, service.ErrUnknownMatchType):
		return "unknown_match_type"
	case errors.Is(err, game.ErrAlreadyInRoom):
		return "already_in_room"
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrNotInProgress):
		return "not_in_progress"
	case errors.Is(err, game.ErrNotASlotOwner):
		return "not_a_participant"
	case errors.Is(err, game.ErrSpectatingDisabled):
		return "spectating_disabled"
	case errors.Is(err, game.ErrReconnectionDenied):
		return "reconnection_denied"
	case errors.Is(err, game.ErrNoDrawOffer):
		return "no_draw_offer"
	case errors.Is(err, game.ErrNotFinished):
		return "not_finished"
	default:
		return "internal_error"
	}
}
