package domain

import "github.com/cockroachdb/errors"

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidInput         = errors.New("invalid input")

	// ErrQuotaExceeded classifies every rejection caused by a derived quantity
	// (available stock, points balance) being smaller than the request.
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrInsufficientStock  = errors.Mark(errors.New("requested quantity exceeds available stock"), ErrQuotaExceeded)
	ErrInsufficientPoints = errors.Mark(errors.New("insufficient points balance"), ErrQuotaExceeded)

	// ErrInvalidTransition is returned when a state change is attempted from a
	// state that does not allow it. Nothing is written in that case.
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrConfirmationRequired = errors.New("transfer of a booking that is not checked in requires confirmation")
	ErrSlotStarted          = errors.Mark(errors.New("session slot has already started"), ErrInvalidTransition)
	ErrOverSelection        = errors.Mark(errors.New("selected tickets exceed guest count"), ErrInvalidInput)
	ErrProductOffShelf      = errors.Mark(errors.New("product is not on shelf"), ErrInvalidInput)
)
