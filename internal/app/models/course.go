package models

// Course represents a catalog course record. All fields except the
// store-assigned ID are nullable.
type Course struct {
	ID          int64   `json:"id" db:"id"`
	Title       *string `json:"title,omitempty" db:"title"`
	Topic       *string `json:"topic,omitempty" db:"topic"`
	ReleaseDate *Date   `json:"releaseDate,omitempty" db:"release_date"`
}

// CourseChanges holds the mutable fields of a course for an update. The ID is
// never part of a change set.
type CourseChanges struct {
	Title       *string
	Topic       *string
	ReleaseDate *Date
}
