package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrUserVanished возвращается, когда пользователь найден по email,
	// но исчез до записи подписки.
	ErrUserVanished = errors.New("user vanished before subscription write")

	// ErrVerificationFailed возвращается, когда Paystack не подтвердил транзакцию.
	ErrVerificationFailed = errors.New("transaction verification failed")

	// ErrPlanNotFound возвращается при попытке оплатить несуществующий план.
	ErrPlanNotFound = errors.New("plan not found")
)

// SubscriptionActiveError возвращается при попытке начать новую оплату,
// пока текущая подписка ещё действует.
type SubscriptionActiveError struct {
	Until string
}

func (e *SubscriptionActiveError) Error() string {
	return fmt.Sprintf("the current subscription is still valid until %s", e.Until)
}
