package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"eshop/internal/entity"
)

const minBcryptCost = 10

// Claims is the payload of a session token.
type Claims struct {
	ID      int  `json:"id"`
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

type AuthService struct {
	users  UserRepository
	rates  *RateTable
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewAuthService creates a new instance of AuthService. Bcrypt costs below 10
// are raised to 10.
func NewAuthService(users UserRepository, rates *RateTable, cfg AuthConfig) *AuthService {
	cost := cfg.BcryptCost
	if cost < minBcryptCost {
		cost = minBcryptCost
	}
	return &AuthService{
		users:  users,
		rates:  rates,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		cost:   cost,
		now:    time.Now,
	}
}

// Register stores a new non-admin user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, password, email, currency string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" || email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", entity.ErrValidation)
	}

	currency, err := s.rates.Resolve(strings.TrimSpace(currency))
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password is too long", entity.ErrValidation)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error hashing password")
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, &entity.User{
		Username: username,
		Password: string(hash),
		Email:    email,
		Currency: currency,
	})
	if errors.Is(err, entity.ErrConflict) {
		return nil, fmt.Errorf("%w: username already exists", entity.ErrConflict)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	logger.Info().Msgf("Registered user %d", user.ID)
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, entity.ErrNotFound) {
		return "", fmt.Errorf("%w: Invalid credentials", entity.ErrAuth)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error loading user for login")
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: Invalid credentials", entity.ErrAuth)
	}

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *entity.User) (string, error) {
	now := s.now()
	claims := &Claims{
		ID:      user.ID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return t, nil
}

// Authenticate verifies a session token and returns the identity it carries.
func (s *AuthService) Authenticate(ctx context.Context, token string) (entity.Identity, error) {
	if token == "" {
		return entity.Identity{}, fmt.Errorf("%w: No token", entity.ErrAuth)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.ID <= 0 {
		return entity.Identity{}, fmt.Errorf("%w: Unauthorized", entity.ErrAuth)
	}

	return entity.Identity{UserID: claims.ID, IsAdmin: claims.IsAdmin}, nil
}
