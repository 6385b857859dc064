package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/world-service/internal/config"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/Dan9191/world-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	welcomeTimeout    = 30 * time.Second
)

// Notifier delivers messages to newly registered users
type Notifier interface {
	SendWelcome(ctx context.Context, user *models.User) error
}

// Identity is the authenticated caller extracted from a verified token
type Identity struct {
	UserID string
	Email  string
}

// Claims are the JWT claims issued by AuthService
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles registration, login and token verification
type AuthService struct {
	users    repository.UserStore
	log      *logrus.Logger
	secret   []byte
	expiry   time.Duration
	notifier Notifier
	now      func() time.Time

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

// NewAuthService initializes a new auth service
func NewAuthService(users repository.UserStore, log *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		log:    log,
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTExpiry,
		now:    time.Now,

		notifyTimeout: welcomeTimeout,
	}
}

// WithNotifier sets the notifier used after successful registration
func (s *AuthService) WithNotifier(n Notifier) *AuthService {
	s.notifier = n
	return s
}

// Wait blocks until welcome messages already dispatched have finished
func (s *AuthService) Wait() {
	s.pending.Wait()
}

// Register creates a new user with hashed password and returns a token for it
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if email == "" || username == "" || password == "" {
		return nil, invalid("Email, username and password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, invalid("Email address is invalid")
	}
	if len(password) < minPasswordLength {
		return nil, invalid(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email})
	logCtx.Info("User registered")

	s.welcome(logCtx, user)

	return &AuthResult{Token: token, User: user}, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.WithField("email", email).Warn("Login failed: unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("user_id", user.ID).Warn("Login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return &AuthResult{Token: token, User: user}, nil
}

// VerifyToken checks signature and expiry and returns the caller identity
func (s *AuthService) VerifyToken(tokenString string) (*Identity, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// welcome notifies the new user in the background. The request does not wait
// for delivery, and delivery is bounded by notifyTimeout.
func (s *AuthService) welcome(logCtx *logrus.Entry, user *models.User) {
	if s.notifier == nil {
		return
	}
	u := *user
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.SendWelcome(ctx, &u); err != nil {
			logCtx.WithError(err).Warn("Failed to send welcome email")
		}
	}()
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
