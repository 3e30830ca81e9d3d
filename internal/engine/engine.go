// Package engine owns the canonical quiz game state and its transition
// rules. Validation and reduction are split so the reducer stays total:
// by the time Reduce runs, the command is known to be legal.
package engine

import "errors"

var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrRoleNotAllowed = errors.New("role not allowed")
var ErrBadName = errors.New("invalid player name")
var ErrBadColor = errors.New("invalid team color")
var ErrColorTaken = errors.New("color already taken")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrUnknownQuestion = errors.New("unknown question")
var ErrQuestionActive = errors.New("another question is active")
var ErrNoActiveQuestion = errors.New("no active question")
var ErrAlreadyAnswered = errors.New("question already answered")
var ErrAlreadyBuzzed = errors.New("player already buzzed")
var ErrGameInactive = errors.New("game is not active")

// Apply validates cmd against s and, if legal, returns the next state.
// On rejection the original state comes back untouched alongside the
// reason; callers drop the command without echoing the error to clients.
func Apply(s State, cmd Command) (State, error) {
	if err := Validate(s, cmd); err != nil {
		return s, err
	}
	return Reduce(s, cmd), nil
}
