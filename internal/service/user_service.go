package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/models"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	SetStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdateNotificationSettings(ctx context.Context, id string, settings models.NotificationSettings) error
	ReplaceOOOBlocks(ctx context.Context, userID string, blocks []models.OOOBlock) error
	ListOOOBlocks(ctx context.Context, userID string) ([]models.OOOBlock, error)
}

// UserService provides user administration and self-service use cases.
type UserService struct {
	repo      userStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Create provisions a new user with the given role. New accounts start with
// all notification preferences enabled.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:              req.Email,
		PasswordHash:       string(hash),
		FullName:           req.FullName,
		Role:               req.Role,
		Status:             models.UserStatusActive,
		EmailOnAssigned:    true,
		EmailOnRemoved:     true,
		EmailOnCancelled:   true,
		EmailOnTimeChanged: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// List returns users matching the filter plus pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
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

// Get loads a user's profile including OOO blocks.
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	blocks, err := s.repo.ListOOOBlocks(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ooo blocks")
	}
	return &dto.UserProfileResponse{User: *user, OOOBlocks: blocks}, nil
}

// Update applies mutable profile fields.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		if existing, err := s.repo.FindByEmail(ctx, *req.Email); err == nil && existing != nil && existing.ID != id {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// SetStatus enables or disables an account. Disabled users keep their data
// but can neither sign in nor be assigned as hosts.
func (s *UserService) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set user status")
	}
	s.logger.Info("user status changed", zap.String("user_id", id), zap.String("status", string(status)))
	return nil
}

// SetOutOfOffice replaces the user's unavailability intervals wholesale.
func (s *UserService) SetOutOfOffice(ctx context.Context, userID string, req dto.SetOutOfOfficeRequest) ([]models.OOOBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid out-of-office payload")
	}

	blocks := make([]models.OOOBlock, 0, len(req.Blocks))
	for _, input := range req.Blocks {
		if input.EndUTC <= input.StartUTC {
			return nil, appErrors.Clone(appErrors.ErrValidation, "out-of-office interval must end after it starts")
		}
		blocks = append(blocks, models.OOOBlock{UserID: userID, StartUTC: input.StartUTC, EndUTC: input.EndUTC})
	}

	if err := s.repo.ReplaceOOOBlocks(ctx, userID, blocks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store ooo blocks")
	}
	return s.repo.ListOOOBlocks(ctx, userID)
}

// UpdateNotificationSettings toggles the caller's email preferences. Nil
// fields keep their current value.
func (s *UserService) UpdateNotificationSettings(ctx context.Context, userID string, req dto.UpdateNotificationSettingsRequest) (*models.NotificationSettings, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	settings := models.NotificationSettings{
		EmailOnAssigned:    user.EmailOnAssigned,
		EmailOnRemoved:     user.EmailOnRemoved,
		EmailOnCancelled:   user.EmailOnCancelled,
		EmailOnTimeChanged: user.EmailOnTimeChanged,
	}
	if req.EmailOnAssigned != nil {
		settings.EmailOnAssigned = *req.EmailOnAssigned
	}
	if req.EmailOnRemoved != nil {
		settings.EmailOnRemoved = *req.EmailOnRemoved
	}
	if req.EmailOnCancelled != nil {
		settings.EmailOnCancelled = *req.EmailOnCancelled
	}
	if req.EmailOnTimeChanged != nil {
		settings.EmailOnTimeChanged = *req.EmailOnTimeChanged
	}

	if err := s.repo.UpdateNotificationSettings(ctx, userID, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification settings")
	}
	return &settings, nil
}
