package services

import (
	"context"
	"fmt"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// AdminUserRepository is the interface that wraps methods for user management
type AdminUserRepository interface {
	// Method GetAll retrieves every user ordered by ID.
	//
	// If some error occurs, the error will be returned together with "nil" value.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method UpdateRole changes the role of a user.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	UpdateRole(ctx context.Context, id int, role models.Role) error
	// Method Delete removes a user together with their enrollments. Courses they taught keep existing without an instructor.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// adminService implements AdminService
type adminService struct {
	userRepo AdminUserRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo AdminUserRepository, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// ListUsers returns all users
func (s *adminService) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]models.UserResponse, 0, len(users))
	for i := range users {
		response = append(response, users[i].ToResponse())
	}
	return response, nil
}

// AssignRole changes a user's role and returns the updated user
func (s *adminService) AssignRole(ctx context.Context, userID int, req *models.AssignRoleRequest) (*models.UserResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", zap.Int("user_id", userID), zap.String("role", role.String()))
	response := user.ToResponse()
	return &response, nil
}

// DeleteUser removes a user. Admins cannot delete their own account.
func (s *adminService) DeleteUser(ctx context.Context, userID, actorID int) error {
	if userID == actorID {
		return fmt.Errorf("%w: cannot delete your own account", models.ErrValidation)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int("user_id", userID), zap.Int("actor_id", actorID))
	return nil
}
