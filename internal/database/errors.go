package database

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrNotAvailable           = errors.New("product is already booked for these dates")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrPastDate               = errors.New("start date is in the past")
	ErrDateTooFar             = errors.New("start date is too far in the future")
	ErrRangeTooLong           = errors.New("booking range is too long")
	ErrInvalidRange           = errors.New("end date must be after start date")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrAlreadyExists          = errors.New("already exists")
)
