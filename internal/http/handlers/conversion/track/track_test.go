package track

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jarrod640-svg/pdfswift/internal/identity"
	"github.com/jarrod640-svg/pdfswift/internal/models"
	"github.com/jarrod640-svg/pdfswift/internal/services/metering"
)

// MockService реализует интерфейс track.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Track(ctx context.Context, p models.Principal, req models.TrackRequest, ipAddress string) (*models.TrackResult, error) {
	args := m.Called(ctx, p, req, ipAddress)
	if res := args.Get(0); res != nil {
		return res.(*models.TrackResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestTrackHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "конвертация разрешена",
			body: `{"conversion_type":"merge-pdf","file_size_mb":2}`,
			setupMock: func(m *MockService) {
				m.On("Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(&models.TrackResult{Allowed: true, Count: 1, Limit: 3}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":true`,
		},
		{
			name: "дневная квота исчерпана",
			body: `{"conversion_type":"merge-pdf","file_size_mb":2}`,
			setupMock: func(m *MockService) {
				m.On("Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(&models.TrackResult{Allowed: false, Reason: "daily_limit_reached", Count: 3, Limit: 3}, nil)
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `"reason":"daily_limit_reached"`,
		},
		{
			name: "премиум-функция недоступна на бесплатном тарифе",
			body: `{"conversion_type":"pdf-to-word","file_size_mb":2}`,
			setupMock: func(m *MockService) {
				m.On("Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(&models.TrackResult{Allowed: false, Reason: "upgrade_required", Limit: 3}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"reason":"upgrade_required"`,
		},
		{
			name:           "некорректный JSON",
			body:           `not json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "отсутствует тип конвертации",
			body:           `{"file_size_mb":2}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `required field`,
		},
		{
			name: "хранилище недоступно",
			body: `{"conversion_type":"merge-pdf","file_size_mb":2}`,
			setupMock: func(m *MockService) {
				m.On("Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, metering.ErrStorageUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"error":"service temporarily unavailable"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/conversions/track", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestTrackHandler_AnonymousSessionEcho(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockService := new(MockService)
	mockService.On("Track", mock.Anything, models.SessionPrincipal("sess-1"), mock.Anything, mock.Anything).
		Return(&models.TrackResult{Allowed: true, Count: 1, Limit: 3}, nil)

	handler := New(logger, mockService)

	req := httptest.NewRequest(http.MethodPost, "/conversions/track",
		strings.NewReader(`{"conversion_type":"merge-pdf","file_size_mb":2}`))
	req.Header.Set(identity.SessionHeader, "sess-1")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", w.Header().Get(identity.SessionHeader))
	mockService.AssertExpectations(t)
}
