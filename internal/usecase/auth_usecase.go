package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

const minPasswordLength = 8

// AuthUseCase регистрирует пользователей и выдаёт токены доступа.
type AuthUseCase struct {
	userRepo UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   logger.Logger
}

func NewAuthUC(userRepo UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register создаёт покупателя и сразу выдаёт ему токен.
func (a *AuthUseCase) Register(ctx context.Context, req *RegisterReq) (*AuthRes, error) {
	const op = "AuthUseCase.Register"

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, e.Wrap(op, fmt.Errorf("%w: name is required", e.ErrValidation))
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(req.Password) < minPasswordLength {
		return nil, e.Wrap(op, e.ErrPasswordTooShort)
	}

	existing, err := a.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, e.ErrUserNotFound) {
		return nil, e.Wrap(op, err)
	}
	if existing != nil {
		return nil, e.Wrap(op, e.ErrEmailTaken)
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := a.userRepo.Create(ctx, domain.NewUser(name, email, hash, domain.RoleCustomer))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return a.issue(op, user)
}

// Login проверяет пароль. Неизвестный email и неверный пароль неразличимы для клиента.
func (a *AuthUseCase) Login(ctx context.Context, req *LoginReq) (*AuthRes, error) {
	const op = "AuthUseCase.Login"

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	user, err := a.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if err := a.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	return a.issue(op, user)
}

// Refresh выдаёт новый токен по ещё действующему.
func (a *AuthUseCase) Refresh(ctx context.Context, token string) (*AuthRes, error) {
	const op = "AuthUseCase.Refresh"

	user, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return a.issue(op, user)
}

// Authenticate возвращает владельца токена.
func (a *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	const op = "AuthUseCase.Authenticate"

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, e.Wrap(op, e.ErrUnauthorized)
	}

	user, err := a.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			return nil, e.Wrap(op, e.ErrUnauthorized)
		}
		return nil, e.Wrap(op, err)
	}

	return user, nil
}

func (a *AuthUseCase) issue(op string, user *domain.User) (*AuthRes, error) {
	token, err := a.tokens.Issue(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &AuthRes{User: user, Token: token}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", e.ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
