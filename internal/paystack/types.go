// Package paystack реализует работу с платёжным провайдером Paystack:
// проверку подписи вебхуков, разбор событий в закрытый набор типизированных
// вариантов и HTTP-клиент для REST API провайдера.
package paystack

// Customer данные клиента провайдера внутри события.
type Customer struct {
	Email        string `json:"email" validate:"required,email"`
	CustomerCode string `json:"customer_code"`
}

// PlanData снимок тарифного плана в событии. Суммы в минорных единицах.
type PlanData struct {
	Name     string `json:"name"`
	PlanCode string `json:"plan_code"`
	Amount   int64  `json:"amount"`
	Interval string `json:"interval"`
}

// SubscriptionData payload событий subscription.create / subscription.disable /
// subscription.not_renew.
type SubscriptionData struct {
	Status           string   `json:"status" validate:"required"`
	SubscriptionCode string   `json:"subscription_code" validate:"required"`
	EmailToken       string   `json:"email_token"`
	Amount           int64    `json:"amount"`
	NextPaymentDate  string   `json:"next_payment_date"`
	Customer         Customer `json:"customer"`
	Plan             PlanData `json:"plan"`
}

// InvoiceSubscription вложенная подписка в payload инвойса.
type InvoiceSubscription struct {
	Status           string `json:"status"`
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
}

// InvoiceData payload событий invoice.create / invoice.update / invoice.payment_failed.
type InvoiceData struct {
	Status       string              `json:"status" validate:"required"`
	Amount       int64               `json:"amount"`
	Paid         bool                `json:"paid"`
	PaidAt       string              `json:"paid_at"`
	Customer     Customer            `json:"customer"`
	Subscription InvoiceSubscription `json:"subscription"`
	Transaction  Transaction         `json:"transaction"`
}

// Transaction ссылка на транзакцию, по которой инвойс был оплачен.
type Transaction struct {
	Reference string `json:"reference"`
}

// ChargeData payload события charge.success.
type ChargeData struct {
	Status    string   `json:"status" validate:"required"`
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	PaidAt    string   `json:"paid_at"`
	Customer  Customer `json:"customer"`
	Plan      PlanData `json:"plan"`
}

// InitializeTransactionRequest запрос на инициализацию транзакции.
type InitializeTransactionRequest struct {
	Email    string            `json:"email"`
	Plan     string            `json:"plan,omitempty"`
	Amount   int64             `json:"amount"` // минорные единицы
	Metadata map[string]string `json:"metadata,omitempty"`
}

// InitializeTransactionResponse ответ провайдера на инициализацию транзакции.
type InitializeTransactionResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"` // страница оплаты для редиректа
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// VerifiedTransaction данные транзакции, подтверждённые провайдером
// через transaction/verify. Только им можно доверять при сверке платежей,
// суммам из тела вебхука — нельзя.
type VerifiedTransaction struct {
	Status     string   `json:"status"`
	Reference  string   `json:"reference"`
	Amount     int64    `json:"amount"`
	PaidAt     string   `json:"paid_at"`
	Customer   Customer `json:"customer"`
	PlanObject PlanData `json:"plan_object"`
}

// VerifyTransactionResponse ответ провайдера на проверку транзакции.
type VerifyTransactionResponse struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    VerifiedTransaction `json:"data"`
}

// DisableSubscriptionResponse ответ провайдера на отключение подписки.
type DisableSubscriptionResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
