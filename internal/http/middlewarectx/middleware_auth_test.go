package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jarrod640-svg/pdfswift/internal/http/middlewarectx"
	"github.com/jarrod640-svg/pdfswift/internal/lib/jwt"
)

// AuthServiceMock реализует интерфейс middlewarectx.Service
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	authMock := new(AuthServiceMock)
	logger := newNoopLogger()

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		assert.Equal(t, "uid-1", r.Context().Value(middlewarectx.AccountUID))
		assert.Equal(t, "user@example.com", r.Context().Value(middlewarectx.Email))
		w.WriteHeader(http.StatusOK)
	})

	authMock.On("ValidateToken", mock.Anything, "good-token").
		Return(&jwt.CustomClaims{AccountUID: "uid-1", Email: "user@example.com"}, nil)

	mw := middlewarectx.JWTMiddleware(authMock, logger)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	mw.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		setupMock  func(*AuthServiceMock)
	}{
		{
			name:       "отсутствует заголовок",
			authHeader: "",
			setupMock:  func(_ *AuthServiceMock) {},
		},
		{
			name:       "заголовок без схемы Bearer",
			authHeader: "Token abc",
			setupMock:  func(_ *AuthServiceMock) {},
		},
		{
			name:       "просроченный токен",
			authHeader: "Bearer expired",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "expired").
					Return(nil, errors.New("token is expired"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			tt.setupMock(authMock)

			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			})
			mw := middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestOptionalJWTMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		setupMock   func(*AuthServiceMock)
		expectedUID any
	}{
		{
			name:        "без токена запрос проходит анонимно",
			authHeader:  "",
			setupMock:   func(_ *AuthServiceMock) {},
			expectedUID: nil,
		},
		{
			name:       "невалидный токен не отклоняет запрос",
			authHeader: "Bearer bad",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "bad").
					Return(nil, errors.New("invalid token"))
			},
			expectedUID: nil,
		},
		{
			name:       "валидный токен добавляет учётную запись в контекст",
			authHeader: "Bearer good",
			setupMock: func(m *AuthServiceMock) {
				m.On("ValidateToken", mock.Anything, "good").
					Return(&jwt.CustomClaims{AccountUID: "uid-1", Email: "user@example.com"}, nil)
			},
			expectedUID: "uid-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			tt.setupMock(authMock)

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				assert.Equal(t, tt.expectedUID, r.Context().Value(middlewarectx.AccountUID))
				w.WriteHeader(http.StatusOK)
			})
			mw := middlewarectx.OptionalJWTMiddleware(authMock, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			assert.True(t, handlerCalled)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
