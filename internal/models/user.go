package models

import (
	"fmt"
	"strings"
	"time"
)

// Role represents a user's role
type Role int

const (
	RoleStudent Role = iota + 1
	RoleTeacher
	RoleAdmin
)

// String returns the lowercase role name
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a role name into a Role
func ParseRole(name string) (Role, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "ROLE_")) {
	case "student":
		return RoleStudent, nil
	case "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q: %w", name, ErrValidation)
	}
}

// User represents a user of the platform
type User struct {
	ID           int       `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Role         Role      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        int       `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts a user into its public view
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	FullName  string `json:"fullName" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Bio       string `json:"bio" validate:"max=2000"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
	Role      string `json:"role" validate:"omitempty,oneof=student teacher STUDENT TEACHER"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	User        UserResponse `json:"user"`
}

// AssignRoleRequest represents an admin role change
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
