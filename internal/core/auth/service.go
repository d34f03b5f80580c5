package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// WelcomeNotifier sends the welcome message after registration.
type WelcomeNotifier interface {
	SendWelcomeEmail(ctx context.Context, to, name string) error
}

type Service struct {
	repo       *Repository
	jwtService *JWTService
	notifier   WelcomeNotifier
}

func NewService(db *gorm.DB, jwtService *JWTService) *Service {
	return &Service{
		repo:       NewRepository(db),
		jwtService: jwtService,
	}
}

// WithWelcomeNotifier enables the welcome email on registration.
func (s *Service) WithWelcomeNotifier(n WelcomeNotifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) Repository() *Repository {
	return s.repo
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperr.BadRequest("Email already registered")
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("✅ User registered")

	if s.notifier != nil {
		if err := s.notifier.SendWelcomeEmail(ctx, user.Email, user.FullName); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("welcome email not sent")
		}
	}

	return s.generateAuthResponse(ctx, user)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Incorrect email or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthorized("Incorrect email or password")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	}

	return s.generateAuthResponse(ctx, user)
}

// RefreshToken rotates the refresh token and issues a new access token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := s.repo.GetUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Refresh token not found or expired")
	}
	if user.ID.String() != userID {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	return s.generateAuthResponse(ctx, user)
}

func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.RevokeRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	user, err := s.repo.UpdateUser(ctx, userID, req.Changes())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(accessToken string) (*TokenClaims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}

func (s *Service) generateAuthResponse(ctx context.Context, user *User) (*AuthResponse, error) {
	accessToken, expiresIn, err := s.jwtService.GenerateAccessToken(&TokenClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		User:         user,
	}, nil
}
