package wager

import "errors"

var (
	ErrUnknownBetType      = errors.New("unknown bet type")
	ErrInvalidHorse        = errors.New("invalid horse number")
	ErrSlotOutOfRange      = errors.New("slot out of range")
	ErrRaceCount           = errors.New("wrong number of races for bet type")
	ErrInvalidUnits        = errors.New("units must be at least 1")
	ErrIncompleteSelection = errors.New("incomplete selection")
	ErrInfeasibleSelection = errors.New("infeasible selection")
)

// SelectionError bloqueia a confirmação de uma aposta.
// Message é exibida ao usuário sem alteração.
type SelectionError struct {
	Kind    error // ErrIncompleteSelection | ErrInfeasibleSelection
	Message string
}

func (e *SelectionError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *SelectionError) Unwrap() error { return e.Kind }
