package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/validation"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// AuthRepository describes the storage needed by AuthService.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
}

// AuthService encapsulates registration and authentication.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// RegisterInput carries signup data.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     string
	Region   string
	Zone     string
	Woreda   string
	Kebele   string
}

// AuthResult is the outcome of registration or login.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService creates the authentication service.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Register creates a new user. Administrators must carry a jurisdiction
// assignment down to the granularity of their tier; farmers a full chain.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("full name", in.FullName, validation.MinFullNameLength, validation.MaxFullNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	role := in.Role
	if role == "" {
		role = workflow.RoleFarmer
	}
	if !validRole(role) {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown role: "+role)
	}

	if err := validateAssignment(role, in); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, strings.ToLower(in.Email)); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(in.Email),
		FullName:     in.FullName,
		PasswordHash: string(passHash),
		Role:         role,
		Region:       in.Region,
		Zone:         in.Zone,
		Woreda:       in.Woreda,
		Kebele:       in.Kebele,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot issue tokens")
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		return nil, err
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot issue tokens")
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Refresh tokens
// are stateless: validity rests on the signature and expiry alone.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh token is invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh token subject is invalid")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is deactivated")
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot issue tokens")
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// GetProfile returns a user by identifier.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func validRole(role string) bool {
	for _, r := range workflow.ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// validateAssignment checks that the jurisdiction chain is filled down to
// the granularity the role requires.
func validateAssignment(role string, in RegisterInput) error {
	required := []struct {
		name  string
		value string
	}{}

	level, isAdmin := workflow.LevelForRole(role)
	switch {
	case role == workflow.RoleFarmer:
		required = append(required,
			struct{ name, value string }{"region", in.Region},
			struct{ name, value string }{"zone", in.Zone},
			struct{ name, value string }{"woreda", in.Woreda},
			struct{ name, value string }{"kebele", in.Kebele},
		)
	case isAdmin && level == workflow.LevelFederal:
		// federal administrators carry no assignment
	case isAdmin:
		required = append(required, struct{ name, value string }{"region", in.Region})
		if level <= workflow.LevelZone {
			required = append(required, struct{ name, value string }{"zone", in.Zone})
		}
		if level <= workflow.LevelWoreda {
			required = append(required, struct{ name, value string }{"woreda", in.Woreda})
		}
		if level == workflow.LevelKebele {
			required = append(required, struct{ name, value string }{"kebele", in.Kebele})
		}
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperror.New(apperror.ErrCodeValidation, f.name+" is required for role "+role)
		}
	}
	return nil
}
