// Package rabbitmq содержит вспомогательную публикацию сообщений в RabbitMQ.
package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/ekunemmanuel/blog-saas/internal/models"
)

// ReceiptPublisher публикует квитанции о платежах в обменник уведомлений.
type ReceiptPublisher struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// NewReceiptPublisher создаёт публикатор квитанций поверх открытого канала.
func NewReceiptPublisher(ch *amqp.Channel, exchange, routingKey string) *ReceiptPublisher {
	return &ReceiptPublisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}
}

// Publish отправляет квитанцию в очередь уведомлений.
func (p *ReceiptPublisher) Publish(receipt models.ReceiptInfo) error {
	return PublishMessage(p.ch, p.exchange, p.routingKey, receipt)
}

// PublishMessage сериализует сообщение в JSON и публикует его в обменник.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
