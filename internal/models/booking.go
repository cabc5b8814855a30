package models

import "time"

// BookingStatus enumerates the booking lifecycle states.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// Booking is one reserved session between a student and a tutor. TutorID
// references tutor_profiles.id, not the tutor's user id. Price is computed at
// creation and immutable afterwards.
type Booking struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	TutorID   string        `db:"tutor_id" json:"tutor_id"`
	Subject   string        `db:"subject" json:"subject"`
	Notes     *string       `db:"notes" json:"notes,omitempty"`
	StartAt   time.Time     `db:"start_at" json:"start_at"`
	EndAt     time.Time     `db:"end_at" json:"end_at"`
	Price     float64       `db:"price" json:"price"`
	Status    BookingStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingFilter captures listing criteria for a caller's bookings.
type BookingFilter struct {
	StudentID string
	TutorID   string
	Status    *BookingStatus
}

// BookingWindow is the local-time projection of a booking interval used for
// the availability coverage check.
type BookingWindow struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}
