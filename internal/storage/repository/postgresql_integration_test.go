package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekunemmanuel/blog-saas/internal/models"
)

func testSubscription() *models.Subscription {
	return &models.Subscription{
		Status:           models.StatusActive,
		Amount:           5000,
		SubscriptionCode: "SUB_1",
		Token:            "TKN",
		CustomerCode:     "CUS_1",
		Plan: models.Plan{
			Name:     "Pro",
			Code:     "PLN_1",
			Amount:   5000,
			Interval: "monthly",
		},
		NextPaymentDate: "Jan 1, 2025, 12:00:00 AM",
	}
}

func TestStorage_GetUserByEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipping in short mode")
	}

	tests := []struct {
		name    string
		email   string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name:  "пользователь существует",
			email: "writer@blog.dev",
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "writer@blog.dev", "writer", "hashedpassword", "user")
			},
		},
		{
			name:    "пользователь не найден",
			email:   "nobody@blog.dev",
			wantErr: ErrUserNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.GetUserByEmail(context.Background(), tt.email)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, got.Email)
			assert.Nil(t, got.Subscription)
		})
	}
}

func TestStorage_UpdateUserSubscription_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipping in short mode")
	}

	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUser(t, "writer@blog.dev", "writer", "hashedpassword", "user")

	sub := testSubscription()
	require.NoError(t, storage.UpdateUserSubscription(context.Background(), uid, sub))

	got, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, got.Subscription)
	assert.Equal(t, sub, got.Subscription)
	assert.Equal(t, "CUS_1", got.CustomerCode)

	// повторная запись того же объекта не меняет результат
	require.NoError(t, storage.UpdateUserSubscription(context.Background(), uid, sub))
	again, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, got.Subscription, again.Subscription)
}

func TestStorage_UpdateUserSubscription_OverwritesWhole(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipping in short mode")
	}

	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUserWithSubscription(t, "writer@blog.dev", "writer", testSubscription())

	cancelled := testSubscription()
	cancelled.Status = models.StatusCancelled
	cancelled.NextPaymentDate = ""

	require.NoError(t, storage.UpdateUserSubscription(context.Background(), uid, cancelled))

	got, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, got.Subscription)
	assert.Equal(t, models.StatusCancelled, got.Subscription.Status)
	assert.Empty(t, got.Subscription.NextPaymentDate)
}

func TestStorage_UpdateUserSubscription_UserVanished(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipping in short mode")
	}

	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	err := storage.UpdateUserSubscription(context.Background(),
		uuid.NewString(), testSubscription())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_RegisterUser(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipping in short mode")
	}

	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	uid, err := storage.RegisterUser(context.Background(), models.User{
		Email:        "new@blog.dev",
		Username:     "newuser",
		PasswordHash: "hashedpassword",
		Role:         "user",
	})
	require.NoError(t, err)
	_, err = uuid.Parse(uid)
	require.NoError(t, err)

	got, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "new@blog.dev", got.Email)
	assert.Equal(t, "user", got.Role)
}
