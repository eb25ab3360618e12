package service

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrStudentNotFound = errors.New("student not found")

	// no approved monthly/daily pass backing the request
	ErrNoActiveBooking = errors.New("no active monthly booking found")

	ErrSlotClosed               = errors.New("time slot is closed for booking")
	ErrCancellationWindowClosed = errors.New("cannot cancel within 30 minutes of the time slot")
	ErrSeatConflict             = errors.New("seat is already booked")
	ErrSeatRestricted           = errors.New("seat is not available for this passenger")
	ErrInvalidSeat              = errors.New("seat number out of range")
	ErrQuotaExceeded            = errors.New("all alternative route tries used for this month")
	ErrInvoiceExpired           = errors.New("invoice has expired")
	ErrInvalidStateTransition   = errors.New("operation not allowed in the current status")
	ErrActiveIntentExists       = errors.New("an active booking of this type already exists")
)
