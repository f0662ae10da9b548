package pkcs15

import "errors"

var (
	// ErrWrongCard is returned by an emulator when the card is not the kind it
	// emulates. Bind moves on to the next emulator.
	ErrWrongCard = errors.New("pkcs15: wrong card")

	// ErrInternal is returned when a recognized card holds content that cannot
	// be processed.
	ErrInternal = errors.New("pkcs15: internal error")

	ErrEmptyID            = errors.New("pkcs15: object id is empty")
	ErrDuplicateID        = errors.New("pkcs15: duplicate object id")
	ErrAuthObjectNotFound = errors.New("pkcs15: auth object not found")
	ErrObjectNotFound     = errors.New("pkcs15: object not found")
	ErrUnknownEmulator    = errors.New("pkcs15: unknown emulator")
	ErrUnknownFileSize    = errors.New("pkcs15: file size unknown")
	ErrUnknownFormat      = errors.New("pkcs15: unknown snapshot format")
)
