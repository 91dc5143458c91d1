package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
)

// Matchmaking queue errors
var (
	ErrAlreadyQueued    = errors.New("already queued")
	ErrNotInQueue       = errors.New("not in queue")
	ErrUnknownMatchType = errors.New("unknown match type")
)

// Rating engine errors
var (
	ErrRatingNotFound     = errors.New("rating record not found")
	ErrRatingUpdateFailed = errors.New("rating update failed")
)
