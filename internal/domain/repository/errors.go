package repository

import "errors"

var (
	// ErrSlotTaken is returned when a write would overlap a blocking appointment.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrInvalidTransition is returned when an appointment exists but is not in a source status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicate is returned on a unique-key violation outside the appointment slot index.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotReferenced is returned when a write points at a row that does not exist.
	ErrNotReferenced = errors.New("referenced record does not exist")
)
