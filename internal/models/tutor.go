package models

import "time"

// TutorProfile is the teaching-side account record. Rating and TotalReviews
// are derived aggregates owned by the review pipeline and are always written
// as a full recomputation over the reviews table.
type TutorProfile struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Bio          *string    `db:"bio" json:"bio,omitempty"`
	Education    string     `db:"education" json:"education"`
	HourlyRate   *float64   `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Timezone     string     `db:"timezone" json:"timezone"`
	Rating       float64    `db:"rating" json:"rating"`
	TotalReviews int        `db:"total_reviews" json:"total_reviews"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	Categories   []Category `db:"-" json:"categories,omitempty"`
}

// Category is a subject area tutors can attach to their profile.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TutorPublicView is the read model served to browsing students.
type TutorPublicView struct {
	Profile      TutorProfile       `json:"profile"`
	User         UserInfo           `json:"user"`
	Availability []AvailabilitySlot `json:"availability"`
}
