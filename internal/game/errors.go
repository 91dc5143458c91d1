package game

import "errors"

// Room lifecycle and gameplay errors. These surface on the websocket as
// error frames to the originating connection only.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotInProgress      = errors.New("match is not in progress")
	ErrNotASlotOwner      = errors.New("identity does not own a slot in this room")
	ErrAlreadyInRoom      = errors.New("already in an active room")
	ErrSpectatingDisabled = errors.New("spectating is disabled for this room")
	ErrReconnectionDenied = errors.New("reconnection denied")
	ErrNoDrawOffer        = errors.New("no pending draw offer")
	ErrNotFinished        = errors.New("match is not finished")
)
