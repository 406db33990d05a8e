package session

import "errors"

// Expected failure modes, matched with errors.Is at the boundary.
// Validation failures are plain errors constructed at the rejection site.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomStarted    = errors.New("game already started")
	ErrNameTaken      = errors.New("name already taken")
	ErrWrongStatus    = errors.New("operation not valid in current status")
	ErrQuotaReached   = errors.New("prompt quota already reached")
)
