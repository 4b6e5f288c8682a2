package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"storefront/internal/entity"
	"storefront/internal/repository"
	"storefront/internal/validation"
	"strings"
	"time"
)

type AuthService struct {
	users            repository.UserRepository
	sessions         SessionStore
	secret           []byte
	ttl              time.Duration
	allowAdminSignup bool
	now              func() time.Time
}

func NewAuthService(users repository.UserRepository, sessions SessionStore, secret string, ttl time.Duration, allowAdminSignup bool) *AuthService {
	return &AuthService{
		users:            users,
		sessions:         sessions,
		secret:           []byte(secret),
		ttl:              ttl,
		allowAdminSignup: allowAdminSignup,
		now:              time.Now,
	}
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

// Secret is the HS256 key tokens are signed with.
func (s *AuthService) Secret() []byte { return s.secret }

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req validation.Register) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = entity.RoleCustomer
	}
	if req.Role == entity.RoleAdmin && !s.allowAdminSignup {
		return nil, fmt.Errorf("admin signup disabled: %w", ErrForbidden)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("email already registered: %w", repository.ErrDuplicate)
		}
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}
	logger.Info().Msgf("Registered user %d as %s", user.ID, user.Role)

	return s.startSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req validation.Login) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error getting user by email")
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *entity.User) (*AuthResult, error) {
	now := s.now()
	expiration := now.Add(s.ttl)
	claims := &entity.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, claims.ID, user.ID, s.ttl); err != nil {
		logger.Error().Err(err).Msgf("Error storing session for user %d", user.ID)
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiration, User: user}, nil
}

// ParseToken verifies an HS256 token and returns its claims.
func (s *AuthService) ParseToken(token string) (*entity.Claims, error) {
	claims := &entity.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// Authenticate checks that a verified token still has a live session.
func (s *AuthService) Authenticate(ctx context.Context, claims *entity.Claims) (Actor, error) {
	if claims == nil || claims.ID == "" {
		return Actor{}, ErrUnauthorized
	}
	ok, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking session")
		return Actor{}, err
	}
	if !ok {
		return Actor{}, fmt.Errorf("session ended: %w", ErrUnauthorized)
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *entity.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

func (s *AuthService) Me(ctx context.Context, actor Actor) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
