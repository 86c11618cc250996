package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"coffeeshop/internal/authz"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

const minPasswordLength = 6

type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// IsAdminEmail decides the role handed out at registration.
	IsAdminEmail func(email string) bool
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Principal is the authenticated caller carried through a request.
type Principal struct {
	UserID primitive.ObjectID
	Email  string
	Role   models.Role
}

type accessClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthService struct {
	users  store.UserRepository
	tokens store.RefreshTokenRepository
	cfg    AuthConfig
	now    func() time.Time
	log    *zap.Logger
}

func NewAuthService(users store.UserRepository, tokens store.RefreshTokenRepository, cfg AuthConfig) *AuthService {
	if cfg.IsAdminEmail == nil {
		cfg.IsAdminEmail = func(string) bool { return false }
	}
	return &AuthService{users: users, tokens: tokens, cfg: cfg, now: time.Now, log: logger.Named("auth")}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, Tokens, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		return nil, Tokens{}, ValidationError{Message: "name, email and password are required"}
	}
	if len(input.Password) < minPasswordLength {
		return nil, Tokens{}, ValidationError{Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         authz.RoleFor(s.cfg.IsAdminEmail(email)),
		Loyalty:      models.Loyalty{Points: 0, Orders: []string{}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Tokens{}, ErrEmailTaken
		}
		return nil, Tokens{}, err
	}

	tokens, err := s.issue(ctx, user)
	if err != nil {
		return nil, Tokens{}, err
	}
	s.log.Info("user registered", zap.String("email", email), zap.String("role", string(user.Role)))
	return user, tokens, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, Tokens{}, ValidationError{Message: "email and password are required"}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Tokens{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("login rejected", zap.String("email", email))
		return nil, Tokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, user)
	if err != nil {
		return nil, Tokens{}, err
	}
	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented one is revoked and linked
// to its replacement.
func (s *AuthService) Refresh(ctx context.Context, plain string) (*models.User, Tokens, error) {
	token, err := s.lookupRefresh(ctx, plain)
	if err != nil {
		return nil, Tokens{}, err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Tokens{}, ErrInvalidToken
	}
	if err != nil {
		return nil, Tokens{}, err
	}

	tokens, replacement, err := s.issueWithID(ctx, user)
	if err != nil {
		return nil, Tokens{}, err
	}
	if err := s.tokens.Revoke(ctx, token.ID, &replacement); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, Tokens{}, ErrInvalidToken
		}
		return nil, Tokens{}, err
	}
	return user, tokens, nil
}

func (s *AuthService) Logout(ctx context.Context, plain string) error {
	token, err := s.lookupRefresh(ctx, plain)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, token.ID, nil); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

func (s *AuthService) lookupRefresh(ctx context.Context, plain string) (*models.RefreshToken, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, ErrInvalidToken
	}

	token, err := s.tokens.GetByHash(ctx, hashToken(plain))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if token.Revoked {
		return nil, ErrInvalidToken
	}
	if s.now().After(token.ExpiresAt) {
		_ = s.tokens.Revoke(ctx, token.ID, nil)
		return nil, ErrTokenExpired
	}
	return token, nil
}

// ParseAccessToken verifies an HS256 access token and returns its principal.
func (s *AuthService) ParseAccessToken(raw string) (Principal, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update store.ProfileUpdate) (*models.User, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, ValidationError{Message: "name cannot be empty"}
	}
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (Tokens, error) {
	tokens, _, err := s.issueWithID(ctx, user)
	return tokens, err
}

func (s *AuthService) issueWithID(ctx context.Context, user *models.User) (Tokens, primitive.ObjectID, error) {
	now := s.now()
	claims := accessClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Tokens{}, primitive.NilObjectID, fmt.Errorf("sign access token: %w", err)
	}

	plain, err := generateRefreshString()
	if err != nil {
		return Tokens{}, primitive.NilObjectID, err
	}
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return Tokens{}, primitive.NilObjectID, fmt.Errorf("store refresh token: %w", err)
	}

	return Tokens{
		AccessToken:  access,
		RefreshToken: plain,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, refresh.ID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
