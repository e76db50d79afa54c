// Package sender реализует отправку писем-квитанций о принятых платежах.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ekunemmanuel/blog-saas/internal/lib/sl"
	"github.com/ekunemmanuel/blog-saas/internal/lib/smtp"
	"github.com/ekunemmanuel/blog-saas/internal/models"
)

// SenderService потребляет сообщения очереди уведомлений и отправляет письма.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр SenderService.
func New(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendPaymentReceipt отправляет квитанцию о принятом платеже из сообщения
// очереди. Ошибка разбора тела не повторяема, сообщение нужно отбрасывать.
func (s *SenderService) SendPaymentReceipt(body []byte) error {
	var message models.ReceiptInfo
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Квитанция об оплате подписки"
	lines := []string{
		fmt.Sprintf("Здравствуйте, %s!", message.Username),
		"",
		fmt.Sprintf("Платёж по тарифу %q принят, подписка в статусе %q.", message.PlanName, message.Status),
		fmt.Sprintf("Сумма: %.2f.", message.Amount),
	}
	if message.NextPaymentDate != "" {
		lines = append(lines, fmt.Sprintf("Дата следующего платежа: %s.", message.NextPaymentDate))
	}
	bodyText := strings.Join(lines, "\n")

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("receipt email sent", "to", to)
	return nil
}
