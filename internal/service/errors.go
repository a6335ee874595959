package service

import "errors"

// Business-rule errors surfaced to the web layer, which maps them onto
// user-facing messages.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrGameNotFound       = errors.New("game not found")

	ErrAlreadyScheduled    = errors.New("tournament has already been started")
	ErrInsufficientPlayers = errors.New("need at least 2 players to start tournament")
	ErrInvalidScore        = errors.New("scores must not be negative")

	ErrTournamentStarted  = errors.New("tournament has already started and cannot be deleted")
	ErrTournamentFull     = errors.New("tournament is full")
	ErrRegistrationClosed = errors.New("tournament has started, registration is closed")
	ErrAlreadyRegistered  = errors.New("player is already registered for this tournament")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("password reset link is invalid or has expired")
)
