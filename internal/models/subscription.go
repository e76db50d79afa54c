// Package models содержит доменные структуры, описывающие пользователя,
// его подписку и вспомогательные типы для обмена данными с внешними источниками.
package models

// SubscriptionStatus статус подписки, который сообщает платёжный провайдер.
type SubscriptionStatus string

// Возможные статусы подписки со стороны провайдера.
const (
	StatusCompleted   SubscriptionStatus = "completed"
	StatusCancelled   SubscriptionStatus = "cancelled"
	StatusNonRenewing SubscriptionStatus = "non-renewing"
	StatusActive      SubscriptionStatus = "active"
	StatusAttention   SubscriptionStatus = "attention"
)

// Subscription представляет сохранённое состояние подписки пользователя.
// Объект всегда записывается целиком одной операцией, частичных обновлений
// отдельных полей не бывает. Суммы хранятся в основных единицах валюты
// (провайдер присылает минорные, перед записью они делятся на 100).
type Subscription struct {
	Status           SubscriptionStatus `json:"status"`
	Amount           float64            `json:"amount"`
	SubscriptionCode string             `json:"subscriptionCode"` // код подписки у провайдера, хранится как есть
	Token            string             `json:"token"`            // email_token провайдера для отмены подписки
	CustomerCode     string             `json:"customerCode"`
	Plan             Plan               `json:"plan"`
	NextPaymentDate  string             `json:"nextPaymentDate,omitempty"`
}

// Plan снимок тарифного плана на момент события. Планы могут меняться,
// но сохранённый снимок остаётся прежним.
type Plan struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Amount   float64 `json:"amount"`
	Interval string  `json:"interval"`
}
