package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/corkboard/corkboard/internal/config"
	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/port/database"
)

// AuthService handles registration, login and session-token validation.
// Tokens are HMAC-SHA256 signed claims; no external identity provider.
type AuthService struct {
	store  database.Store
	cfg    *config.Auth
	secret []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(store database.Store, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.TokenSecret),
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Admin:        req.Admin,
		Enabled:      true,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login authenticates a user and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !u.Enabled {
		return nil, errors.New("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.sign(u.ID, time.Now().Add(s.cfg.TokenExpiry))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &user.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.cfg.TokenExpiry.Seconds()),
		User:      *u,
	}, nil
}

// ResetPassword sets a new password for the user with the given email.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdateUserPassword(ctx, u.ID, string(hash))
}

// ValidateToken verifies a session token and returns its user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*user.User, error) {
	userID, err := s.verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.Enabled {
		return nil, errors.New("account is disabled")
	}
	return u, nil
}

// claims is the signed token payload.
type claims struct {
	UserID    string `json:"uid"`
	ExpiresAt int64  `json:"exp"`
}

func (s *AuthService) sign(userID string, expiresAt time.Time) (string, error) {
	payload, err := json.Marshal(claims{UserID: userID, ExpiresAt: expiresAt.Unix()})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return body + "." + sig, nil
}

func (s *AuthService) verify(token string) (string, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", errors.New("malformed token")
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return "", errors.New("invalid token signature")
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", errors.New("malformed token payload")
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", errors.New("malformed token payload")
	}
	if time.Now().Unix() >= c.ExpiresAt {
		return "", errors.New("token expired")
	}
	return c.UserID, nil
}
