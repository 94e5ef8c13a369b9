package service

import (
	"context"
	"errors"
	"os"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

// LoginRequest carries the role-dependent credential: clients present a
// phone (auto-registered on first login), cashiers a PIN, admins a
// username/password pair.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Password string `json:"password"`
	Pin      string `json:"pin"`
	Name     string `json:"name"` // optional display name for new clients
}

type LoginResponse struct {
	Token string          `json:"token"`
	User  ProfileResponse `json:"user"`
}

type ProfileResponse struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	Phone         string `json:"phone,omitempty"`
	Username      string `json:"username,omitempty"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

// --- Interface ---

// AuthService realizes the identity capability the rest of the core
// consumes: a presented credential becomes a verified {userId, role} token.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Profile(ctx context.Context, userID string) (*ProfileResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// --- Implementation ---

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var user *model.User
	var err error

	switch {
	case req.Username != "":
		user, err = s.loginAdmin(ctx, req.Username, req.Password)
	case req.Pin != "":
		user, err = s.loginCashier(ctx, req.Pin)
	case req.Phone != "":
		user, err = s.loginClient(ctx, req.Phone, req.Name)
	default:
		return nil, validationErr("phone, pin or username/password is required")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, conflictErr("account is deactivated")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := signToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, User: toProfile(user)}, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*ProfileResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, validationErr("invalid user id: %s", userID)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("user not found")
		}
		return nil, err
	}
	profile := toProfile(user)
	return &profile, nil
}

func (s *authService) loginAdmin(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil || user.Password == nil {
		return nil, conflictErr("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(password)); err != nil {
		return nil, conflictErr("invalid username or password")
	}
	return user, nil
}

func (s *authService) loginCashier(ctx context.Context, pin string) (*model.User, error) {
	user, err := s.userRepo.FindCashierByPin(ctx, pin)
	if err != nil {
		return nil, conflictErr("invalid PIN")
	}
	return user, nil
}

// loginClient upserts: a new phone becomes a new CLIENT account on first
// login, matching the original platform's walk-in registration.
func (s *authService) loginClient(ctx context.Context, phone, name string) (*model.User, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &model.User{
		Phone:    &phone,
		Role:     model.RoleClient,
		IsActive: true,
	}
	if name != "" {
		user.Username = &name
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func signToken(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return token.SignedString([]byte(secret))
}

func toProfile(user *model.User) ProfileResponse {
	profile := ProfileResponse{
		ID:            user.ID.String(),
		Role:          user.Role,
		LoyaltyPoints: user.LoyaltyPoints,
	}
	if user.Phone != nil {
		profile.Phone = *user.Phone
	}
	if user.Username != nil {
		profile.Username = *user.Username
	}
	return profile
}
