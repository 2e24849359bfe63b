package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// mockAuthRepository implements AuthRepository for tests.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if user, ok := m.usersByID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		Email:    "abebe@example.com",
		Password: "Password123",
		FullName: "Abebe Kebede",
		Role:     workflow.RoleFarmer,
		Region:   "Oromia",
		Zone:     "Arsi",
		Woreda:   "Hetosa",
		Kebele:   "Boru",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if res.User.ID == uuid.Nil {
		t.Fatalf("user ID must be set")
	}
	if res.TokenPair.AccessToken == "" || res.TokenPair.RefreshToken == "" {
		t.Fatalf("both tokens must be issued")
	}

	loginRes, err := service.Login(ctx, "abebe@example.com", "Password123")
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if loginRes.TokenPair.AccessToken == "" {
		t.Fatalf("expected an access token")
	}
	if loginRes.User.LastLoginAt == nil {
		t.Fatalf("login must record the timestamp")
	}

	if _, err := service.Login(ctx, "abebe@example.com", "wrong-password"); err == nil {
		t.Fatalf("wrong password must be rejected")
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	in := RegisterInput{
		Email:    "tigist@example.com",
		Password: "Password123",
		FullName: "Tigist Alemu",
		Role:     workflow.RoleFederalAdmin,
	}
	if _, err := service.Register(ctx, in); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, err := service.Register(ctx, in)
	if !apperror.IsConflict(err) {
		t.Fatalf("duplicate email must be a conflict, got %v", err)
	}
}

func TestAuthService_RegisterAssignmentGranularity(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)
	ctx := context.Background()

	// a woreda administrator without a woreda is rejected
	_, err := service.Register(ctx, RegisterInput{
		Email:    "woreda@example.com",
		Password: "Password123",
		FullName: "Woreda Admin",
		Role:     workflow.RoleWoredaAdmin,
		Region:   "Oromia",
		Zone:     "Arsi",
	})
	if !apperror.IsValidation(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}

	// a farmer needs the full chain
	_, err = service.Register(ctx, RegisterInput{
		Email:    "farmer@example.com",
		Password: "Password123",
		FullName: "Some Farmer",
		Role:     workflow.RoleFarmer,
		Region:   "Oromia",
	})
	if !apperror.IsValidation(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}

	// a federal administrator carries no assignment at all
	if _, err := service.Register(ctx, RegisterInput{
		Email:    "federal@example.com",
		Password: "Password123",
		FullName: "Federal Admin",
		Role:     workflow.RoleFederalAdmin,
	}); err != nil {
		t.Fatalf("federal registration returned error: %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: string(hash),
		Role:         workflow.RoleFarmer,
		IsActive:     true,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	pair, err := tokenManager.GeneratePair(user)
	if err != nil {
		t.Fatalf("could not generate tokens: %v", err)
	}

	res, err := service.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if res.TokenPair.AccessToken == "" {
		t.Fatalf("expected a fresh access token")
	}

	// an access token is not accepted in place of a refresh token
	if _, err := service.Refresh(ctx, pair.AccessToken); err == nil {
		t.Fatalf("access token must not pass refresh validation")
	}

	user.IsActive = false
	if _, err := service.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("deactivated account must not refresh")
	}
}
