package paystack

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator"
)

// EventType тег события вебхука.
type EventType string

// Известные теги событий. Реконсиляцию запускают только subscription.*
// и invoice.create, остальные распознаются и игнорируются.
const (
	EventSubscriptionCreate   EventType = "subscription.create"
	EventSubscriptionDisable  EventType = "subscription.disable"
	EventSubscriptionNotRenew EventType = "subscription.not_renew"
	EventInvoiceCreate        EventType = "invoice.create"
	EventInvoiceUpdate        EventType = "invoice.update"
	EventInvoiceFailed        EventType = "invoice.payment_failed"
	EventChargeSuccess        EventType = "charge.success"
	// EventUnknown нераспознанный тег. Не ошибка: провайдер может добавлять
	// новые типы событий, их нужно подтверждать без обработки.
	EventUnknown EventType = ""
)

// ErrMalformedEvent тело события не разбирается в известный вариант:
// битый JSON или отсутствие обязательных полей.
var ErrMalformedEvent = errors.New("malformed event payload")

// Event типизированное событие вебхука. Заполнено ровно одно из полей
// payload в зависимости от Type.
type Event struct {
	Type         EventType
	Subscription *SubscriptionData // для subscription.*
	Invoice      *InvoiceData      // для invoice.*
	Charge       *ChargeData       // для charge.success
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var validate = validator.New()

// ParseEvent разбирает сырое тело вебхука в типизированное событие.
// Неизвестный тег возвращает событие EventUnknown без ошибки.
// Известный тег с неразбираемым payload возвращает ErrMalformedEvent.
func ParseEvent(body []byte) (*Event, error) {
	const op = "paystack.ParseEvent"

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrMalformedEvent, err)
	}

	switch EventType(env.Event) {
	case EventSubscriptionCreate, EventSubscriptionDisable, EventSubscriptionNotRenew:
		var data SubscriptionData
		if err := decodePayload(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Event{Type: EventType(env.Event), Subscription: &data}, nil

	case EventInvoiceCreate, EventInvoiceUpdate, EventInvoiceFailed:
		var data InvoiceData
		if err := decodePayload(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Event{Type: EventType(env.Event), Invoice: &data}, nil

	case EventChargeSuccess:
		var data ChargeData
		if err := decodePayload(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Event{Type: EventChargeSuccess, Charge: &data}, nil

	default:
		return &Event{Type: EventUnknown}, nil
	}
}

// decodePayload разбирает payload события и проверяет обязательные поля.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
