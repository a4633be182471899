package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type userRepo interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Username         string          `json:"username" validate:"required,min=3,max=50"`
	Password         string          `json:"password" validate:"required,min=8"`
	Role             models.UserRole `json:"role" validate:"required,oneof=ADMIN SUPERVISOR STUDENT"`
	FullName         string          `json:"full_name" validate:"required"`
	Email            string          `json:"email" validate:"required,email"`
	Phone            *string         `json:"phone,omitempty"`
	Address          *string         `json:"address,omitempty"`
	StudentNumber    *string         `json:"student_number,omitempty"`
	Major            *string         `json:"major,omitempty"`
	Semester         *int            `json:"semester,omitempty"`
	EmergencyContact *string         `json:"emergency_contact,omitempty"`
}

// UpdateProfileRequest updates mutable profile fields.
type UpdateProfileRequest struct {
	FullName         *string `json:"full_name,omitempty"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty"`
	Address          *string `json:"address,omitempty"`
	Major            *string `json:"major,omitempty"`
	Semester         *int    `json:"semester,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
	Active           *bool   `json:"active,omitempty"`
}

// ChangePasswordRequest rotates a user's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UserService manages accounts and profiles.
type UserService struct {
	users     userRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users userRepo, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// Create registers a new account. Student accounts need a student number.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if req.Role == models.RoleStudent && (req.StudentNumber == nil || *req.StudentNumber == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student accounts require a student number")
	}
	existing, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Username:         req.Username,
		PasswordHash:     string(hash),
		Role:             req.Role,
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		StudentNumber:    req.StudentNumber,
		Major:            req.Major,
		Semester:         req.Semester,
		EmergencyContact: req.EmergencyContact,
		Active:           true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies profile changes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Major != nil {
		user.Major = req.Major
	}
	if req.Semester != nil {
		user.Semester = req.Semester
	}
	if req.EmergencyContact != nil {
		user.EmergencyContact = req.EmergencyContact
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// ChangePassword verifies the current password then stores the new hash.
func (s *UserService) ChangePassword(ctx context.Context, id string, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, id, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	s.logger.Info("password changed", zap.String("user_id", id))
	return nil
}
