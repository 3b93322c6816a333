package models

import "time"

// Content is one addressable unit of course material
type Content struct {
	ID          int       `json:"id"`
	CourseID    int       `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"fileUrl"`
	StorageKey  string    `json:"storageKey"`
	ContentType string    `json:"contentType,omitempty"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddContentRequest registers a content hosted at an external URL.
// It carries no storage key, so deleting the content never touches stored files.
type AddContentRequest struct {
	CourseID    int    `json:"courseId" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	FileURL     string `json:"fileUrl" validate:"required,url"`
	ContentType string `json:"contentType" validate:"max=100"`
	OrderIndex  int    `json:"orderIndex" validate:"gte=0"`
}

// UploadContentRequest carries the form fields of a content upload
type UploadContentRequest struct {
	CourseID    int    `validate:"required,gt=0"`
	Title       string `validate:"required,max=255"`
	Description string `validate:"max=5000"`
	ContentType string `validate:"max=100"`
	OrderIndex  int    `validate:"gte=0"`
}
