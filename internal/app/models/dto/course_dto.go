package dto

// CreateCourseRequest is the payload for creating a course. All fields are
// optional; the release date arrives as a "2006-01-02" string and is parsed
// by the service layer.
type CreateCourseRequest struct {
	Title       *string `json:"title"`
	Topic       *string `json:"topic"`
	ReleaseDate *string `json:"releaseDate"`
}

// UpdateCourseRequest is the payload for updating a course's mutable fields.
type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Topic       *string `json:"topic"`
	ReleaseDate *string `json:"releaseDate"`
}
