package catalog

import "errors"

// Service errors
var (
	ErrCardExists        = errors.New("card ID already exists")
	ErrCardNotFound      = errors.New("card not found")
	ErrMissingField      = errors.New("missing required field")
	ErrUnknownField      = errors.New("unknown field")
	ErrImmutableField    = errors.New("field cannot be modified")
	ErrEmptyUpdate       = errors.New("no fields to update")
	ErrNoCardForCategory = errors.New("no card offers cashback for this category")
)
