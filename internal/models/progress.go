package models

import "time"

// CompletionThreshold is the percentage at which a content counts as completed
const CompletionThreshold = 100

// Progress is the completion state of one content within one enrollment
type Progress struct {
	ID              int       `json:"id"`
	EnrollmentID    int       `json:"enrollmentId"`
	ContentID       int       `json:"contentId"`
	PercentComplete int       `json:"percentComplete"`
	Completed       bool      `json:"completed"`
	LastAccessedAt  time.Time `json:"lastAccessedAt"`
}

// IsCompleted reports whether a percentage counts as completed
func IsCompleted(percent int) bool {
	return percent >= CompletionThreshold
}

// UpdateProgressRequest represents a progress update
type UpdateProgressRequest struct {
	CourseID        int  `json:"courseId" validate:"required,gt=0"`
	ContentID       int  `json:"contentId" validate:"required,gt=0"`
	PercentComplete *int `json:"percentComplete" validate:"required,min=0,max=100"`
}

// RecomputeResponse reports a recomputed enrollment percentage
type RecomputeResponse struct {
	EnrollmentID       int     `json:"enrollmentId"`
	ProgressPercentage float64 `json:"progressPercentage"`
}
