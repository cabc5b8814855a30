package models

import "time"

// AvailabilitySlot is one recurring weekly open-hours interval for a tutor.
// Times are zero-padded 24h wall-clock strings ("HH:MM") in the tutor's
// declared time zone; lexicographic order matches chronological order.
type AvailabilitySlot struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
