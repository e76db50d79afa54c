package models

// ReceiptInfo сообщение для очереди уведомлений о принятом платеже.
// Публикуется биллинг-сервисом после успешной записи подписки и
// потребляется сервисом отправки писем.
type ReceiptInfo struct {
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	PlanName        string  `json:"plan_name"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	NextPaymentDate string  `json:"next_payment_date,omitempty"`
}
