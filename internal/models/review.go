package models

import "time"

// Review is a post-session rating tied 1:1 to a completed booking. Reviews
// are immutable once created.
type Review struct {
	ID        string    `db:"id" json:"id"`
	BookingID string    `db:"booking_id" json:"booking_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	Rating    float64   `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
