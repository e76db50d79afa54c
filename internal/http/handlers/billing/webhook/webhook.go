// Package webhook реализует HTTP-обработчик вебхуков платёжного провайдера.
//
// Обработчик проверяет подпись сырого тела запроса, разбирает событие
// в типизированный вариант и передаёт его сервису биллинга на сверку.
// Код ответа сообщает провайдеру, нужно ли доставить событие повторно:
// 200 — событие принято или намеренно пропущено, 4xx — повтор бесполезен,
// 500 — временный сбой, доставку нужно повторить.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ekunemmanuel/blog-saas/internal/http/response"
	"github.com/ekunemmanuel/blog-saas/internal/lib/sl"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
	"github.com/ekunemmanuel/blog-saas/internal/services/billing"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "billing_webhook_events_total",
	Help: "Processed Paystack webhook events by type and outcome.",
}, []string{"event", "outcome"})

// Service описывает интерфейс сервиса сверки платёжных событий.
type Service interface {
	ProcessEvent(ctx context.Context, event *paystack.Event) (*billing.Result, error)
}

// Verifier проверяет подпись сырого тела вебхука.
type Verifier interface {
	Verify(body []byte, signature string) bool
}

// Handler обрабатывает HTTP-запросы вебхуков провайдера.
type Handler struct {
	log      *slog.Logger
	service  Service
	verifier Verifier
}

// New создает новый Handler с переданным логгером, сервисом и проверкой подписи.
func New(log *slog.Logger, service Service, verifier Verifier) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		verifier: verifier,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает события Paystack, проверяет подпись и сверяет подписку пользователя.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Событие принято или пропущено"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или битое тело"
// @Failure 404 {object} response.ErrorResponse "Пользователь исчез до записи"
// @Failure 500 {object} response.ErrorResponse "Временный сбой, нужен повтор доставки"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get(paystack.SignatureHeader)
	if !h.verifier.Verify(body, signature) {
		log.Error("invalid or missing webhook signature")
		eventsTotal.WithLabelValues("unknown", "bad_signature").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		log.Error("failed to parse webhook event", sl.Err(err))
		eventsTotal.WithLabelValues("unknown", "malformed").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed event payload"))
		return
	}

	log = log.With(slog.String("event", string(event.Type)))

	result, err := h.service.ProcessEvent(r.Context(), event)
	switch {
	case errors.Is(err, billing.ErrUserVanished):
		log.Error("user vanished before subscription write", sl.Err(err))
		eventsTotal.WithLabelValues(string(event.Type), "user_vanished").Inc()
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to process webhook event", sl.Err(err))
		eventsTotal.WithLabelValues(string(event.Type), "error").Inc()
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	eventsTotal.WithLabelValues(string(event.Type), string(result.Outcome)).Inc()
	log.Info("webhook processed", slog.String("outcome", string(result.Outcome)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"outcome": result.Outcome,
	}))
}
