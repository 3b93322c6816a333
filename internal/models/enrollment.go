package models

import (
	"fmt"
	"strings"
	"time"
)

// EnrollmentStatus is the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// ParseEnrollmentStatus validates a status name
func ParseEnrollmentStatus(s string) (EnrollmentStatus, error) {
	status := EnrollmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("invalid enrollment status %q: %w", s, ErrValidation)
}

// Enrollment is a student's registration in one course.
// ProgressPercentage is a cache written only by the enrollment aggregator.
type Enrollment struct {
	ID                 int              `json:"id"`
	StudentID          int              `json:"studentId"`
	CourseID           int              `json:"courseId"`
	Status             EnrollmentStatus `json:"status"`
	EnrolledAt         time.Time        `json:"enrolledAt"`
	ProgressPercentage float64          `json:"progressPercentage"`
}

// EnrollmentListItem is an enrollment with student and course names
type EnrollmentListItem struct {
	Enrollment
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
	CourseTitle  string `json:"courseTitle"`
}

// EnrollRequest represents an enrollment request
type EnrollRequest struct {
	CourseID int `json:"courseId" validate:"required,gt=0"`
}

// UpdateEnrollmentStatusRequest represents an admin status change
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
