package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{input: "student", expected: RoleStudent},
		{input: "TEACHER", expected: RoleTeacher},
		{input: "ROLE_ADMIN", expected: RoleAdmin},
		{input: " admin ", expected: RoleAdmin},
		{input: "guest", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, role)
			assert.Equal(t, role, mustParse(t, role.String()))
		})
	}
}

func mustParse(t *testing.T, name string) Role {
	t.Helper()
	role, err := ParseRole(name)
	assert.NoError(t, err)
	return role
}

func TestParseEnrollmentStatus(t *testing.T) {
	status, err := ParseEnrollmentStatus("completed")
	assert.NoError(t, err)
	assert.Equal(t, EnrollmentStatusCompleted, status)

	_, err = ParseEnrollmentStatus("PAUSED")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestIsCompleted(t *testing.T) {
	for percent := 0; percent <= 100; percent++ {
		assert.Equal(t, percent == 100, IsCompleted(percent), "percent %d", percent)
	}
}
