package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/auth"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrDuplicateEmail           = apierrors.New(apierrors.KindDuplicateEmail, "User already exists with this email")
	ErrEmailInUse               = apierrors.Validation("Email is already in use")
	ErrInvalidCredentials       = apierrors.New(apierrors.KindInvalidCredentials, "Invalid email or password")
	ErrCurrentPasswordIncorrect = apierrors.New(apierrors.KindInvalidCredentials, "Current password is incorrect")
	ErrUserNotFound             = apierrors.New(apierrors.KindNotFound, "User not found")
	ErrInvalidToken             = apierrors.New(apierrors.KindUnauthorized, "Invalid or expired token")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	activity *ActivityRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	activity *ActivityRecorder,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		activity: activity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// ProfilePatch lists the profile fields a user may change. Nil fields are
// left untouched.
type ProfilePatch struct {
	Name  *string
	Email *string
}

// ChangePasswordInput carries the old and the new password.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// Register creates a new account and signs the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(input.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
	}
	user.SetName(input.Name)

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration won the unique index.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Uint64("user_id", user.ID))
	s.activity.Record(ctx, models.Activity{
		UserID:      user.ID,
		Action:      models.ActivityCreated,
		ActionType:  models.ActivityTypeUser,
		TargetID:    user.ID,
		Description: "Registered account",
	})

	return s.signIn(user)
}

// Login verifies credentials, stamps lastLogin and issues a token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, models.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.DummyVerify(input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	s.activity.Record(ctx, models.Activity{
		UserID:      user.ID,
		Action:      models.ActivityLoggedIn,
		ActionType:  models.ActivityTypeUser,
		TargetID:    user.ID,
		Description: "Logged in",
	})

	return s.signIn(user)
}

// GetProfile returns the user behind userID.
func (s *AuthService) GetProfile(ctx context.Context, userID uint64) (*models.User, error) {
	return s.findUser(ctx, userID)
}

// UpdateProfile applies the name and email changes in patch.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, patch ProfilePatch) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed, err := applyUserPatch(user, patch.Name, patch.Email)
	if err != nil {
		return nil, err
	}
	if !changed {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.activity.Record(ctx, models.Activity{
		UserID:      user.ID,
		Action:      models.ActivityUpdated,
		ActionType:  models.ActivityTypeUser,
		TargetID:    user.ID,
		Description: "Updated profile",
	})
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, input ChangePasswordInput) error {
	if input.CurrentPassword == "" {
		return apierrors.Validation("Current password is required")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return ErrCurrentPasswordIncorrect
	}

	hashedPassword, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.activity.Record(ctx, models.Activity{
		UserID:      user.ID,
		Action:      models.ActivityPasswordChanged,
		ActionType:  models.ActivityTypeUser,
		TargetID:    user.ID,
		Description: "Changed password",
	})
	return nil
}

// VerifyToken resolves a bearer token to an existing user.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindUnauthorized, ErrInvalidToken.Message, err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.Wrap(apierrors.KindUnauthorized, ErrInvalidToken.Message, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	return user, nil
}

func (s *AuthService) signIn(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) findUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// applyUserPatch validates and applies name and email changes, reporting
// whether anything changed.
func applyUserPatch(user *models.User, name, email *string) (bool, error) {
	changed := false
	if name != nil {
		if err := validateName(*name); err != nil {
			return false, err
		}
		if trimmed := strings.TrimSpace(*name); trimmed != user.Name {
			user.SetName(trimmed)
			changed = true
		}
	}
	if email != nil {
		if err := validateEmail(*email); err != nil {
			return false, err
		}
		if normalized := models.NormalizeEmail(*email); normalized != user.Email {
			user.Email = normalized
			changed = true
		}
	}
	return changed, nil
}
