package errs

import "errors"

var (
	// ErrEmptyInput: blank text and no attachment. The turn is dropped.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidOrderFormat: an order number was expected but the text has none.
	ErrInvalidOrderFormat = errors.New("invalid order number format")
	ErrOrderNotFound      = errors.New("order not found")
	// ErrNoAgentAvailable: the agent directory has no available agent.
	ErrNoAgentAvailable = errors.New("no agent available")
	ErrSessionNotFound  = errors.New("session not found")
	ErrProductNotFound  = errors.New("product not found")
	// ErrTurnSuperseded: a newer turn (or a reset) cancelled the pending response.
	ErrTurnSuperseded = errors.New("turn superseded by a newer turn")
	ErrUnknownStore   = errors.New("unknown session store")
)
