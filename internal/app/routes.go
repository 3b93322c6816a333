// Package app wires repositories, services and handlers into the HTTP API
package app

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/handlers"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/internal/repositories"
	"github.com/lmsplatform/backend/internal/services"
	"github.com/lmsplatform/backend/internal/storage"
	"github.com/lmsplatform/backend/libs/auth/middleware"
	"github.com/lmsplatform/backend/libs/auth/service"
	"github.com/lmsplatform/backend/libs/config"
	"go.uber.org/zap"
)

// APIPrefix is where the versioned API is mounted
const APIPrefix = "/api/v1"

// Mount registers /uploads and every APIPrefix route on r.
// Global middleware (request id, logging, CORS, rate limits) is left to the caller.
func Mount(r chi.Router, db *sql.DB, cfg *config.Config, logger *zap.Logger) {
	tokens := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	local, files := newFileStorage(cfg, logger)

	// Repositories
	transactor := repositories.NewTransactor(db, logger)
	userRepo := repositories.NewUserRepository(db, logger)
	courseRepo := repositories.NewCourseRepository(db, logger)
	contentRepo := repositories.NewContentRepository(db, logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger)
	progressRepo := repositories.NewProgressRepository(db, logger)

	// Services
	courseService := services.NewCourseService(courseRepo, contentRepo, files, logger)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, logger)
	aggregator := services.NewEnrollmentAggregator(enrollmentRepo, contentRepo, progressRepo, transactor, logger)
	progressService := services.NewProgressService(courseRepo, enrollmentRepo, contentRepo, progressRepo, aggregator, transactor, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(services.NewAuthService(userRepo, tokens, logger), logger, cfg.JWT.AccessTokenExpiry)
	adminHandler := handlers.NewAdminHandler(services.NewAdminService(userRepo, logger), courseService, enrollmentService, aggregator, logger)
	courseHandler := handlers.NewCourseHandler(courseService, logger)
	contentHandler := handlers.NewContentHandler(services.NewContentService(contentRepo, courseRepo, files, logger), logger, cfg.Storage.MaxUploadSize)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger)
	fileHandler := handlers.NewFileHandler(local, logger)

	fileHandler.RegisterRoutes(r)

	r.Route(APIPrefix, func(r chi.Router) {
		authHandler.RegisterRoutes(r, middleware.AuthMiddleware(tokens))
		courseHandler.RegisterRoutes(r, roles(tokens, models.RoleTeacher, models.RoleAdmin))
		contentHandler.RegisterRoutes(r, roles(tokens, models.RoleTeacher, models.RoleAdmin))
		enrollmentHandler.RegisterRoutes(r, roles(tokens, models.RoleStudent))
		progressHandler.RegisterRoutes(r, roles(tokens, models.RoleStudent))
		r.Group(func(r chi.Router) {
			r.Use(roles(tokens, models.RoleAdmin))
			adminHandler.RegisterRoutes(r)
		})
	})
}

// newFileStorage returns the local store (served under /uploads) and the manager that
// prefers the object store when OSS credentials are configured
func newFileStorage(cfg *config.Config, logger *zap.Logger) (handlers.FileOpener, *storage.Manager) {
	local := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)

	// primary stays a nil interface unless OSS is usable
	var primary storage.FileStore
	if cfg.Storage.OSS.Enabled() {
		oss, err := storage.NewOSSStorage(cfg.Storage.OSS)
		if err != nil {
			logger.Warn("Object store unavailable, uploads go to local disk", zap.Error(err))
		} else {
			primary = oss
			logger.Info("Object store enabled", zap.String("bucket", cfg.Storage.OSS.Bucket))
		}
	}

	return local, storage.NewManager(primary, local, logger)
}

func roles(tokens *service.TokenGenerator, allowed ...models.Role) func(http.Handler) http.Handler {
	ids := make([]int, len(allowed))
	for i, role := range allowed {
		ids[i] = int(role)
	}
	return middleware.RoleMiddleware(tokens, ids...)
}
