// Package auth provides account registration, login and token verification.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
)

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

// Session is returned by a successful login.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Service manages accounts.
type Service struct {
	users  store.UserStore
	tokens *Tokens
	logger *zap.Logger

	bcryptCost int
	allowAdmin bool
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBcryptCost overrides the bcrypt work factor.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithAdminRegistration lets callers pick the admin role at registration.
// Without it every new account is a customer.
func WithAdminRegistration(allow bool) Option {
	return func(s *Service) {
		s.allowAdmin = allow
	}
}

func NewService(users store.UserStore, tokens *Tokens, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Register creates an account. Emails are compared case-insensitively.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.Invalid("email and password are required")
	}

	role := domain.RoleCustomer
	if in.Role == domain.RoleAdmin && s.allowAdmin {
		role = domain.RoleAdmin
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, domain.Invalid("password cannot be hashed")
	}

	user, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, domain.ErrUserExists
	}
	if err != nil {
		s.logger.Error("user store failure", zap.String("op", "user.create"), zap.Error(err))
		return nil, domain.StoreFailure(err, "user.create")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return user, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("user store failure", zap.String("op", "user.find"), zap.Error(err))
		return nil, domain.StoreFailure(err, "user.find")
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Profile returns the account for userID.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.StoreFailure(err, "user.find")
	}
	return user, nil
}
