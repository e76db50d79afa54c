// Package billing реализует сверку платёжных событий Paystack с документами
// пользователей и операции оплаты подписки: инициализацию транзакции,
// проверку, отключение и чтение текущей подписки.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ekunemmanuel/blog-saas/internal/config"
	"github.com/ekunemmanuel/blog-saas/internal/lib/dates"
	"github.com/ekunemmanuel/blog-saas/internal/lib/sl"
	"github.com/ekunemmanuel/blog-saas/internal/models"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
	"github.com/ekunemmanuel/blog-saas/internal/storage/repository"
)

// Outcome итог обработки события вебхука.
type Outcome string

// Возможные итоги. Все, кроме OutcomeApplied, означают, что документ
// пользователя не изменился.
const (
	OutcomeApplied    Outcome = "applied"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeNoCustomer Outcome = "no_customer"
	OutcomeAttention  Outcome = "attention"
	OutcomeNotPaid    Outcome = "not_paid"
)

// Result результат обработки события вебхука.
type Result struct {
	Outcome      Outcome
	UserUID      string
	Subscription *models.Subscription
}

// UserRepository операции над документами пользователей.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserSubscription(ctx context.Context, userUID string, sub *models.Subscription) error
}

// Provider операции REST API платёжного провайдера.
type Provider interface {
	InitializeTransaction(ctx context.Context, reqParams paystack.InitializeTransactionRequest) (*paystack.InitializeTransactionResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyTransactionResponse, error)
	DisableSubscription(ctx context.Context, code, token string) (*paystack.DisableSubscriptionResponse, error)
}

// SubscriptionCache кеш прочитанных подписок.
type SubscriptionCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ReceiptPublisher публикация квитанций в очередь уведомлений.
type ReceiptPublisher interface {
	Publish(receipt models.ReceiptInfo) error
}

// BillingService сервис биллинга.
type BillingService struct {
	users     UserRepository
	provider  Provider
	cache     SubscriptionCache
	publisher ReceiptPublisher
	plans     []config.PlanEntry
	log       *slog.Logger
}

// subscriptionCacheTTL время жизни подписки в кеше.
const subscriptionCacheTTL = time.Hour

// New создаёт сервис биллинга.
func New(users UserRepository, provider Provider, cache SubscriptionCache,
	publisher ReceiptPublisher, plans []config.PlanEntry, log *slog.Logger) *BillingService {
	return &BillingService{
		users:     users,
		provider:  provider,
		cache:     cache,
		publisher: publisher,
		plans:     plans,
		log:       log,
	}
}

// ProcessEvent сверяет событие вебхука с документом пользователя.
// Повторная доставка того же события приводит документ к тому же состоянию.
// Ошибка возвращается только когда событие нужно доставить повторно:
// недоступно хранилище или провайдер не подтвердил транзакцию.
func (s *BillingService) ProcessEvent(ctx context.Context, event *paystack.Event) (*Result, error) {
	switch event.Type {
	case paystack.EventSubscriptionCreate,
		paystack.EventSubscriptionDisable,
		paystack.EventSubscriptionNotRenew:
		return s.applySubscriptionEvent(ctx, event.Subscription)
	case paystack.EventInvoiceCreate:
		return s.applyInvoiceCreate(ctx, event.Invoice)
	default:
		// invoice.update, invoice.payment_failed и charge.success разобраны,
		// но документ пользователя по ним не меняется
		return &Result{Outcome: OutcomeIgnored}, nil
	}
}

// applySubscriptionEvent записывает снимок подписки из события целиком.
// Статус attention означает незавершённую попытку оплаты на стороне
// провайдера, такое событие пропускается.
func (s *BillingService) applySubscriptionEvent(ctx context.Context, data *paystack.SubscriptionData) (*Result, error) {
	const op = "services.billing.applySubscriptionEvent"

	user, err := s.users.GetUserByEmail(ctx, data.Customer.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &Result{Outcome: OutcomeNoCustomer}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if strings.EqualFold(data.Status, string(models.StatusAttention)) {
		return &Result{Outcome: OutcomeAttention, UserUID: user.UID}, nil
	}

	sub := &models.Subscription{
		Status:           models.SubscriptionStatus(strings.ToLower(data.Status)),
		Amount:           minorToMajor(data.Amount),
		SubscriptionCode: data.SubscriptionCode,
		Token:            data.EmailToken,
		CustomerCode:     data.Customer.CustomerCode,
		Plan: models.Plan{
			Name:     data.Plan.Name,
			Code:     data.Plan.PlanCode,
			Amount:   minorToMajor(data.Plan.Amount),
			Interval: data.Plan.Interval,
		},
	}
	if data.NextPaymentDate != "" {
		t, err := dates.ParseProviderTime(data.NextPaymentDate)
		if err != nil {
			s.log.Warn("failed to parse next payment date", sl.Err(err))
		} else {
			sub.NextPaymentDate = dates.Format(t)
		}
	}

	if err := s.writeSubscription(ctx, user, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Outcome: OutcomeApplied, UserUID: user.UID, Subscription: sub}, nil
}

// applyInvoiceCreate обрабатывает оплаченный инвойс. Суммы и план берутся
// только из ответа transaction/verify, значениям из тела вебхука доверять
// нельзя. Неоплаченный инвойс пропускается.
func (s *BillingService) applyInvoiceCreate(ctx context.Context, data *paystack.InvoiceData) (*Result, error) {
	const op = "services.billing.applyInvoiceCreate"

	if !invoicePaid(data) {
		return &Result{Outcome: OutcomeNotPaid}, nil
	}

	user, err := s.users.GetUserByEmail(ctx, data.Customer.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &Result{Outcome: OutcomeNoCustomer}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verified, err := s.provider.VerifyTransaction(ctx, data.Transaction.Reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrVerificationFailed, err)
	}
	if !verified.Status || !strings.EqualFold(verified.Data.Status, "success") {
		return nil, fmt.Errorf("%s: %w: transaction %s has status %q",
			op, ErrVerificationFailed, data.Transaction.Reference, verified.Data.Status)
	}

	customerCode := verified.Data.Customer.CustomerCode
	if customerCode == "" {
		customerCode = data.Customer.CustomerCode
	}
	sub := &models.Subscription{
		Status:           models.StatusActive,
		Amount:           minorToMajor(verified.Data.Amount),
		SubscriptionCode: data.Subscription.SubscriptionCode,
		Token:            data.Subscription.EmailToken,
		CustomerCode:     customerCode,
		Plan: models.Plan{
			Name:     verified.Data.PlanObject.Name,
			Code:     verified.Data.PlanObject.PlanCode,
			Amount:   minorToMajor(verified.Data.PlanObject.Amount),
			Interval: verified.Data.PlanObject.Interval,
		},
	}
	if verified.Data.PaidAt != "" {
		paidAt, err := dates.ParseProviderTime(verified.Data.PaidAt)
		if err != nil {
			s.log.Warn("failed to parse paid_at", sl.Err(err))
		} else {
			sub.NextPaymentDate = dates.Format(dates.AddInterval(verified.Data.PlanObject.Interval, paidAt))
		}
	}

	if err := s.writeSubscription(ctx, user, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Outcome: OutcomeApplied, UserUID: user.UID, Subscription: sub}, nil
}

// writeSubscription записывает подписку, сбрасывает кеш и публикует
// квитанцию. Сбой кеша или очереди не откатывает запись.
func (s *BillingService) writeSubscription(ctx context.Context, user *models.User, sub *models.Subscription) error {
	err := s.users.UpdateUserSubscription(ctx, user.UID, sub)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserVanished
	}
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(subscriptionCacheKey(user.UID)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", sl.Err(err))
	}

	receipt := models.ReceiptInfo{
		Email:           user.Email,
		Username:        user.Username,
		PlanName:        sub.Plan.Name,
		Amount:          sub.Amount,
		Status:          string(sub.Status),
		NextPaymentDate: sub.NextPaymentDate,
	}
	if err := s.publisher.Publish(receipt); err != nil {
		s.log.Warn("failed to publish receipt", sl.Err(err))
	}
	return nil
}

// StartPayment инициализирует транзакцию оплаты выбранного плана.
// Пока текущая подписка действует, новая оплата не начинается.
func (s *BillingService) StartPayment(ctx context.Context, userUID, email, planCode string) (*paystack.InitializeTransactionResponse, error) {
	const op = "services.billing.StartPayment"

	plan, err := s.findPlan(planCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if active, until := subscriptionStillActive(user.Subscription); active {
		return nil, &SubscriptionActiveError{Until: until}
	}

	resp, err := s.provider.InitializeTransaction(ctx, paystack.InitializeTransactionRequest{
		Email:  email,
		Plan:   plan.Code,
		Amount: int64(plan.Amount * 100),
		Metadata: map[string]string{
			"user_uid": userUID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// VerifyPayment проверяет транзакцию у провайдера по её референсу.
func (s *BillingService) VerifyPayment(ctx context.Context, reference string) (*paystack.VerifyTransactionResponse, error) {
	const op = "services.billing.VerifyPayment"
	resp, err := s.provider.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// Disable отключает подписку пользователя у провайдера.
func (s *BillingService) Disable(ctx context.Context, userUID string) (*paystack.DisableSubscriptionResponse, error) {
	const op = "services.billing.Disable"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Subscription == nil || user.Subscription.SubscriptionCode == "" {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrUserNotFound)
	}

	resp, err := s.provider.DisableSubscription(ctx, user.Subscription.SubscriptionCode, user.Subscription.Token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// GetSubscription возвращает подписку пользователя, сперва заглядывая в кеш.
func (s *BillingService) GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "services.billing.GetSubscription"

	key := subscriptionCacheKey(userUID)
	var cached models.Subscription
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read subscription cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Subscription != nil {
		if err := s.cache.Set(key, user.Subscription, subscriptionCacheTTL); err != nil {
			s.log.Warn("failed to cache subscription", sl.Err(err))
		}
	}
	return user.Subscription, nil
}

// ListPlans возвращает каталог тарифных планов.
func (s *BillingService) ListPlans() []config.PlanEntry {
	return s.plans
}

func (s *BillingService) findPlan(code string) (*config.PlanEntry, error) {
	for i := range s.plans {
		if s.plans[i].Code == code {
			return &s.plans[i], nil
		}
	}
	return nil, ErrPlanNotFound
}

// subscriptionStillActive сообщает, действует ли подписка на текущий момент.
func subscriptionStillActive(sub *models.Subscription) (bool, string) {
	if sub == nil || sub.NextPaymentDate == "" {
		return false, ""
	}
	if sub.Status != models.StatusActive && sub.Status != models.StatusNonRenewing {
		return false, ""
	}
	next, err := time.Parse(dates.Layout, sub.NextPaymentDate)
	if err != nil {
		return false, ""
	}
	if time.Now().UTC().Before(next) {
		return true, sub.NextPaymentDate
	}
	return false, ""
}

// invoicePaid проверяет, оплачен ли инвойс.
func invoicePaid(data *paystack.InvoiceData) bool {
	return data.Paid || strings.EqualFold(data.Status, "success")
}

// minorToMajor переводит сумму из минорных единиц валюты в основные.
func minorToMajor(amount int64) float64 {
	return float64(amount) / 100
}

func subscriptionCacheKey(userUID string) string {
	return "subscription:" + userUID
}
