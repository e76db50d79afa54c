package register_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/auth/register"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	args := m.Called(ctx, email, username, rawPassword)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(s *ServiceMock)
		wantStatus int
		wantInBody string
	}{
		{
			name: "successful registration",
			body: `{"email": "test@example.com", "username": "testuser", "password": "password123"}`,
			setupMocks: func(s *ServiceMock) {
				s.On("Register", mock.Anything, "test@example.com", "testuser", "password123").
					Return("some-uuid-string", nil).Once()
			},
			wantStatus: http.StatusOK,
			wantInBody: "some-uuid-string",
		},
		{
			name:       "invalid json",
			body:       `{email}`,
			setupMocks: func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short password",
			body:       `{"email": "test@example.com", "username": "testuser", "password": "123"}`,
			setupMocks: func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "repository error",
			body: `{"email": "test@example.com", "username": "testuser", "password": "password123"}`,
			setupMocks: func(s *ServiceMock) {
				s.On("Register", mock.Anything, "test@example.com", "testuser", "password123").
					Return("", errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)

			handler := register.New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantInBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantInBody)
			}
			service.AssertExpectations(t)
		})
	}
}
