package wallet

import "errors"

// Service errors
var (
	ErrAlreadyInWallet = errors.New("user already has this card")
	ErrNotInWallet     = errors.New("card not found in user wallet")
	ErrMissingCardID   = errors.New("missing card_id")
	ErrUnknownField    = errors.New("unknown field")
	ErrImmutableField  = errors.New("field cannot be modified")
	ErrEmptyUpdate     = errors.New("no fields to update")
)
