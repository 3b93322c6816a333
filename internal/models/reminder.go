package models

// TypeEnrollmentReminder is the asynq task type of a daily reminder
const TypeEnrollmentReminder = "reminder:enrollment"

// ReminderTarget is an active enrollment that should receive a reminder
type ReminderTarget struct {
	EnrollmentID       int     `json:"enrollmentId"`
	StudentName        string  `json:"studentName"`
	StudentEmail       string  `json:"studentEmail"`
	CourseTitle        string  `json:"courseTitle"`
	ProgressPercentage float64 `json:"progressPercentage"`
}
