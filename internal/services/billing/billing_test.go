package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekunemmanuel/blog-saas/internal/config"
	"github.com/ekunemmanuel/blog-saas/internal/models"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
	"github.com/ekunemmanuel/blog-saas/internal/storage/repository"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) UpdateUserSubscription(ctx context.Context, userUID string, sub *models.Subscription) error {
	return m.Called(ctx, userUID, sub).Error(0)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) InitializeTransaction(ctx context.Context, reqParams paystack.InitializeTransactionRequest) (*paystack.InitializeTransactionResponse, error) {
	args := m.Called(ctx, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.InitializeTransactionResponse), args.Error(1)
}
func (m *ProviderMock) VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyTransactionResponse, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.VerifyTransactionResponse), args.Error(1)
}
func (m *ProviderMock) DisableSubscription(ctx context.Context, code, token string) (*paystack.DisableSubscriptionResponse, error) {
	args := m.Called(ctx, code, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.DisableSubscriptionResponse), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(receipt models.ReceiptInfo) error {
	return m.Called(receipt).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(u *UsersMock, p *ProviderMock, c *CacheMock, pub *PublisherMock) *BillingService {
	plans := []config.PlanEntry{
		{Type: "Premium", Amount: 50, Interval: "monthly", Code: "PLN_premium"},
	}
	return New(u, p, c, pub, plans, newNoopLogger())
}

func testUser() *models.User {
	return &models.User{
		UID:      "3f1f8a2e-0000-0000-0000-000000000001",
		Email:    "reader@example.com",
		Username: "reader",
	}
}

func subscriptionCreateEvent() *paystack.Event {
	return &paystack.Event{
		Type: paystack.EventSubscriptionCreate,
		Subscription: &paystack.SubscriptionData{
			Status:           "active",
			SubscriptionCode: "SUB_abc",
			EmailToken:       "tok_123",
			Amount:           500000,
			NextPaymentDate:  "2025-02-01T00:00:00.000Z",
			Customer: paystack.Customer{
				Email:        "reader@example.com",
				CustomerCode: "CUS_xyz",
			},
			Plan: paystack.PlanData{
				Name:     "Premium",
				PlanCode: "PLN_premium",
				Amount:   500000,
				Interval: "monthly",
			},
		},
	}
}

func TestProcessEvent_SubscriptionCreate(t *testing.T) {
	tests := []struct {
		name        string
		event       *paystack.Event
		setupMocks  func(u *UsersMock, c *CacheMock, pub *PublisherMock)
		wantOutcome Outcome
		wantErr     error
		checkSub    func(t *testing.T, sub *models.Subscription)
	}{
		{
			name:  "success applies snapshot with major units",
			event: subscriptionCreateEvent(),
			setupMocks: func(u *UsersMock, c *CacheMock, pub *PublisherMock) {
				u.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
				u.On("UpdateUserSubscription", mock.Anything, testUser().UID, mock.Anything).Return(nil).Once()
				c.On("Invalidate", "subscription:"+testUser().UID).Return(nil).Once()
				pub.On("Publish", mock.Anything).Return(nil).Once()
			},
			wantOutcome: OutcomeApplied,
			checkSub: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, models.StatusActive, sub.Status)
				assert.InDelta(t, 5000.0, sub.Amount, 0.001)
				assert.InDelta(t, 5000.0, sub.Plan.Amount, 0.001)
				assert.Equal(t, "SUB_abc", sub.SubscriptionCode)
				assert.Equal(t, "tok_123", sub.Token)
				assert.Equal(t, "CUS_xyz", sub.CustomerCode)
				assert.Equal(t, "Feb 1, 2025, 12:00:00 AM", sub.NextPaymentDate)
			},
		},
		{
			name: "attention status leaves document untouched",
			event: func() *paystack.Event {
				ev := subscriptionCreateEvent()
				ev.Subscription.Status = "attention"
				return ev
			}(),
			setupMocks: func(u *UsersMock, _ *CacheMock, _ *PublisherMock) {
				u.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
			},
			wantOutcome: OutcomeAttention,
		},
		{
			name:  "no matching customer is a soft skip",
			event: subscriptionCreateEvent(),
			setupMocks: func(u *UsersMock, _ *CacheMock, _ *PublisherMock) {
				u.On("GetUserByEmail", mock.Anything, "reader@example.com").
					Return(nil, repository.ErrUserNotFound).Once()
			},
			wantOutcome: OutcomeNoCustomer,
		},
		{
			name:  "storage lookup failure is retryable",
			event: subscriptionCreateEvent(),
			setupMocks: func(u *UsersMock, _ *CacheMock, _ *PublisherMock) {
				u.On("GetUserByEmail", mock.Anything, "reader@example.com").
					Return(nil, errors.New("connection refused")).Once()
			},
			wantErr: errors.New("connection refused"),
		},
		{
			name:  "user vanished before write",
			event: subscriptionCreateEvent(),
			setupMocks: func(u *UsersMock, _ *CacheMock, _ *PublisherMock) {
				u.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
				u.On("UpdateUserSubscription", mock.Anything, testUser().UID, mock.Anything).
					Return(repository.ErrUserNotFound).Once()
			},
			wantErr: ErrUserVanished,
		},
		{
			name: "disable overwrites whole snapshot",
			event: func() *paystack.Event {
				ev := subscriptionCreateEvent()
				ev.Type = paystack.EventSubscriptionDisable
				ev.Subscription.Status = "cancelled"
				ev.Subscription.NextPaymentDate = ""
				return ev
			}(),
			setupMocks: func(u *UsersMock, c *CacheMock, pub *PublisherMock) {
				u.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
				u.On("UpdateUserSubscription", mock.Anything, testUser().UID, mock.Anything).Return(nil).Once()
				c.On("Invalidate", mock.Anything).Return(nil).Once()
				pub.On("Publish", mock.Anything).Return(nil).Once()
			},
			wantOutcome: OutcomeApplied,
			checkSub: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, models.StatusCancelled, sub.Status)
				assert.Empty(t, sub.NextPaymentDate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			provider := new(ProviderMock)
			cache := new(CacheMock)
			publisher := new(PublisherMock)
			tt.setupMocks(users, cache, publisher)

			svc := newTestService(users, provider, cache, publisher)
			res, err := svc.ProcessEvent(context.Background(), tt.event)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOutcome, res.Outcome)
				if tt.checkSub != nil {
					require.NotNil(t, res.Subscription)
					tt.checkSub(t, res.Subscription)
				}
			}
			users.AssertExpectations(t)
			cache.AssertExpectations(t)
			publisher.AssertExpectations(t)
			provider.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessEvent_Replay(t *testing.T) {
	users := new(UsersMock)
	provider := new(ProviderMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	var written []*models.Subscription
	users.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Twice()
	users.On("UpdateUserSubscription", mock.Anything, testUser().UID, mock.Anything).
		Run(func(args mock.Arguments) {
			written = append(written, args.Get(2).(*models.Subscription))
		}).Return(nil).Twice()
	cache.On("Invalidate", mock.Anything).Return(nil).Twice()
	publisher.On("Publish", mock.Anything).Return(nil).Twice()

	svc := newTestService(users, provider, cache, publisher)
	for range 2 {
		_, err := svc.ProcessEvent(context.Background(), subscriptionCreateEvent())
		require.NoError(t, err)
	}

	require.Len(t, written, 2)
	assert.Equal(t, written[0], written[1])
}

func invoiceCreateEvent() *paystack.Event {
	return &paystack.Event{
		Type: paystack.EventInvoiceCreate,
		Invoice: &paystack.InvoiceData{
			Status: "success",
			Paid:   true,
			Amount: 999999, // значению из тела доверять нельзя
			Customer: paystack.Customer{
				Email:        "reader@example.com",
				CustomerCode: "CUS_xyz",
			},
			Subscription: paystack.InvoiceSubscription{
				Status:           "active",
				SubscriptionCode: "SUB_abc",
				EmailToken:       "tok_123",
			},
			Transaction: paystack.Transaction{Reference: "ref_42"},
		},
	}
}

func verifiedResponse() *paystack.VerifyTransactionResponse {
	return &paystack.VerifyTransactionResponse{
		Status: true,
		Data: paystack.VerifiedTransaction{
			Status:    "success",
			Reference: "ref_42",
			Amount:    500000,
			PaidAt:    "2025-01-01T00:00:00.000Z",
			Customer: paystack.Customer{
				Email:        "reader@example.com",
				CustomerCode: "CUS_verified",
			},
			PlanObject: paystack.PlanData{
				Name:     "Premium",
				PlanCode: "PLN_premium",
				Amount:   500000,
				Interval: "monthly",
			},
		},
	}
}

func TestProcessEvent_InvoiceCreate(t *testing.T) {
	t.Run("paid invoice uses only verified values", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		users.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
		provider.On("VerifyTransaction", mock.Anything, "ref_42").Return(verifiedResponse(), nil).Once()
		users.On("UpdateUserSubscription", mock.Anything, testUser().UID, mock.Anything).Return(nil).Once()
		cache.On("Invalidate", mock.Anything).Return(nil).Once()
		publisher.On("Publish", mock.Anything).Return(nil).Once()

		svc := newTestService(users, provider, cache, publisher)
		res, err := svc.ProcessEvent(context.Background(), invoiceCreateEvent())

		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, res.Outcome)
		require.NotNil(t, res.Subscription)
		assert.Equal(t, models.StatusActive, res.Subscription.Status)
		assert.InDelta(t, 5000.0, res.Subscription.Amount, 0.001)
		assert.Equal(t, "CUS_verified", res.Subscription.CustomerCode)
		assert.Equal(t, "SUB_abc", res.Subscription.SubscriptionCode)
		assert.Equal(t, "tok_123", res.Subscription.Token)
		// месяц от момента оплаты
		assert.Equal(t, "Feb 1, 2025, 12:00:00 AM", res.Subscription.NextPaymentDate)

		users.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("unpaid invoice is skipped without verification", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		ev := invoiceCreateEvent()
		ev.Invoice.Status = "pending"
		ev.Invoice.Paid = false

		svc := newTestService(users, provider, cache, publisher)
		res, err := svc.ProcessEvent(context.Background(), ev)

		require.NoError(t, err)
		assert.Equal(t, OutcomeNotPaid, res.Outcome)
		provider.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "UpdateUserSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("verification request failure is retryable", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		users.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
		provider.On("VerifyTransaction", mock.Anything, "ref_42").
			Return(nil, errors.New("timeout")).Once()

		svc := newTestService(users, provider, cache, publisher)
		_, err := svc.ProcessEvent(context.Background(), invoiceCreateEvent())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrVerificationFailed)
		users.AssertNotCalled(t, "UpdateUserSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unverified transaction status fails", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		resp := verifiedResponse()
		resp.Data.Status = "failed"
		users.On("GetUserByEmail", mock.Anything, "reader@example.com").Return(testUser(), nil).Once()
		provider.On("VerifyTransaction", mock.Anything, "ref_42").Return(resp, nil).Once()

		svc := newTestService(users, provider, cache, publisher)
		_, err := svc.ProcessEvent(context.Background(), invoiceCreateEvent())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrVerificationFailed)
		users.AssertNotCalled(t, "UpdateUserSubscription", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProcessEvent_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		event *paystack.Event
	}{
		{"unknown event", &paystack.Event{Type: paystack.EventUnknown}},
		{"charge success", &paystack.Event{
			Type:   paystack.EventChargeSuccess,
			Charge: &paystack.ChargeData{Status: "success", Reference: "ref_1"},
		}},
		{"invoice update", &paystack.Event{
			Type:    paystack.EventInvoiceUpdate,
			Invoice: &paystack.InvoiceData{Status: "success"},
		}},
		{"invoice payment failed", &paystack.Event{
			Type:    paystack.EventInvoiceFailed,
			Invoice: &paystack.InvoiceData{Status: "failed"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			provider := new(ProviderMock)
			cache := new(CacheMock)
			publisher := new(PublisherMock)

			svc := newTestService(users, provider, cache, publisher)
			res, err := svc.ProcessEvent(context.Background(), tt.event)

			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, res.Outcome)
			users.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
			users.AssertNotCalled(t, "UpdateUserSubscription", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStartPayment(t *testing.T) {
	t.Run("success initializes transaction", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		users.On("GetUser", mock.Anything, testUser().UID).Return(testUser(), nil).Once()
		provider.On("InitializeTransaction", mock.Anything, mock.MatchedBy(func(req paystack.InitializeTransactionRequest) bool {
			return req.Email == "reader@example.com" &&
				req.Plan == "PLN_premium" &&
				req.Amount == 5000
		})).Return(&paystack.InitializeTransactionResponse{Status: true}, nil).Once()

		svc := newTestService(users, provider, cache, publisher)
		resp, err := svc.StartPayment(context.Background(), testUser().UID, "reader@example.com", "PLN_premium")

		require.NoError(t, err)
		assert.True(t, resp.Status)
		provider.AssertExpectations(t)
	})

	t.Run("rejects while subscription still valid", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		user := testUser()
		user.Subscription = &models.Subscription{
			Status:          models.StatusActive,
			NextPaymentDate: "Jan 1, 2100, 12:00:00 AM",
		}
		users.On("GetUser", mock.Anything, user.UID).Return(user, nil).Once()

		svc := newTestService(users, provider, cache, publisher)
		_, err := svc.StartPayment(context.Background(), user.UID, user.Email, "PLN_premium")

		require.Error(t, err)
		var activeErr *SubscriptionActiveError
		require.ErrorAs(t, err, &activeErr)
		assert.Equal(t, "Jan 1, 2100, 12:00:00 AM", activeErr.Until)
		provider.AssertNotCalled(t, "InitializeTransaction", mock.Anything, mock.Anything)
	})

	t.Run("unknown plan", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		svc := newTestService(users, provider, cache, publisher)
		_, err := svc.StartPayment(context.Background(), testUser().UID, testUser().Email, "PLN_missing")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestGetSubscription(t *testing.T) {
	t.Run("cache hit skips storage", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		cache.On("Get", "subscription:"+testUser().UID, mock.Anything).
			Run(func(args mock.Arguments) {
				sub := args.Get(1).(*models.Subscription)
				sub.Status = models.StatusActive
				sub.Amount = 5000
			}).Return(true, nil).Once()

		svc := newTestService(users, provider, cache, publisher)
		sub, err := svc.GetSubscription(context.Background(), testUser().UID)

		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, sub.Status)
		users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("cache miss reads storage and fills cache", func(t *testing.T) {
		users := new(UsersMock)
		provider := new(ProviderMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)

		user := testUser()
		user.Subscription = &models.Subscription{Status: models.StatusActive, Amount: 5000}
		cache.On("Get", "subscription:"+user.UID, mock.Anything).Return(false, nil).Once()
		users.On("GetUser", mock.Anything, user.UID).Return(user, nil).Once()
		cache.On("Set", "subscription:"+user.UID, user.Subscription, time.Hour).Return(nil).Once()

		svc := newTestService(users, provider, cache, publisher)
		sub, err := svc.GetSubscription(context.Background(), user.UID)

		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, sub.Status)
		cache.AssertExpectations(t)
	})
}

func TestDisable(t *testing.T) {
	users := new(UsersMock)
	provider := new(ProviderMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	user := testUser()
	user.Subscription = &models.Subscription{
		Status:           models.StatusActive,
		SubscriptionCode: "SUB_abc",
		Token:            "tok_123",
	}
	users.On("GetUser", mock.Anything, user.UID).Return(user, nil).Once()
	provider.On("DisableSubscription", mock.Anything, "SUB_abc", "tok_123").
		Return(&paystack.DisableSubscriptionResponse{Status: true}, nil).Once()

	svc := newTestService(users, provider, cache, publisher)
	resp, err := svc.Disable(context.Background(), user.UID)

	require.NoError(t, err)
	assert.True(t, resp.Status)
	provider.AssertExpectations(t)
}
