// Package auth содержит логику бизнес-уровня для работы с учётными записями и аутентификацией.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jarrod640-svg/pdfswift/internal/lib/jwt"
	"github.com/jarrod640-svg/pdfswift/internal/lib/password"
	"github.com/jarrod640-svg/pdfswift/internal/models"
	"github.com/jarrod640-svg/pdfswift/internal/storage/repository"
)

// ErrInvalidCredentials неверная пара email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountRepository описывает контракт для работы с учётными записями в базе данных.
type AccountRepository interface {
	// CreateAccount сохраняет новую учётную запись и возвращает её UID.
	CreateAccount(ctx context.Context, account models.Account) (string, error)

	// GetAccountByEmail возвращает учётную запись по email или ошибку, если не найдена.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetAccount возвращает учётную запись по UID.
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	accounts AccountRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(accounts AccountRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		accounts: accounts,
		jwtMaker: jwtMaker,
	}
}

// Register создает новую учётную запись на бесплатном тарифе и возвращает
// JWT вместе с созданной записью. Email приводится к нижнему регистру.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (string, *models.Account, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, err
	}
	account := models.Account{
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hashed,
		Tier:         models.TierFree,
		Status:       models.StatusActive,
	}
	uid, err := s.accounts.CreateAccount(ctx, account)
	if err != nil {
		return "", nil, err
	}
	account.UID = uid

	token, err := s.jwtMaker.GenerateToken(uid, account.Email)
	if err != nil {
		return "", nil, err
	}
	return token, &account, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(account.UID, account.Email)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// ValidateToken проверяет JWT и возвращает uid и email учётной записи.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

// Profile возвращает учётную запись по UID.
func (s *AuthService) Profile(ctx context.Context, uid string) (*models.Account, error) {
	return s.accounts.GetAccount(ctx, uid)
}
