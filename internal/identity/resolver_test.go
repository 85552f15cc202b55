package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarrod640-svg/pdfswift/internal/http/middlewarectx"
	"github.com/jarrod640-svg/pdfswift/internal/identity"
	"github.com/jarrod640-svg/pdfswift/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		setupReq func(*http.Request) *http.Request
		expected models.Principal
	}{
		{
			name: "авторизованный запрос даёт субъекта-учётную запись",
			setupReq: func(r *http.Request) *http.Request {
				ctx := context.WithValue(r.Context(), middlewarectx.AccountUID, "uid-1")
				return r.WithContext(ctx)
			},
			expected: models.AccountPrincipal("uid-1"),
		},
		{
			name: "анонимный запрос с заголовком сессии",
			setupReq: func(r *http.Request) *http.Request {
				r.Header.Set(identity.SessionHeader, "sess-42")
				return r
			},
			expected: models.SessionPrincipal("sess-42"),
		},
		{
			name: "заголовок сессии важнее только при отсутствии учётной записи",
			setupReq: func(r *http.Request) *http.Request {
				r.Header.Set(identity.SessionHeader, "sess-42")
				ctx := context.WithValue(r.Context(), middlewarectx.AccountUID, "uid-1")
				return r.WithContext(ctx)
			},
			expected: models.AccountPrincipal("uid-1"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			w := httptest.NewRecorder()
			p := identity.Resolve(w, tt.setupReq(r))
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestResolve_GeneratesSessionID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	p := identity.Resolve(w, r)
	require.Equal(t, models.PrincipalSession, p.Kind)
	assert.NotEmpty(t, p.ID)
	// сгенерированный идентификатор возвращается клиенту для последующих запросов
	assert.Equal(t, p.ID, w.Header().Get(identity.SessionHeader))
}
