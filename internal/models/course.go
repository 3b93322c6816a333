package models

import "time"

// Course represents a course authored by an instructor
type Course struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID *int      `json:"instructorId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CourseListItem is a course row together with its instructor's name
type CourseListItem struct {
	Course
	InstructorName  string `json:"instructorName,omitempty"`
	InstructorEmail string `json:"instructorEmail,omitempty"`
}

// CourseDetail is a course with its ordered contents
type CourseDetail struct {
	CourseListItem
	Contents []Content `json:"contents"`
}

// CreateCourseRequest represents a course creation request
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
}
