// Package paymentverify обрабатывает проверку транзакции после возврата
// пользователя со страницы оплаты провайдера.
package paymentverify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ekunemmanuel/blog-saas/internal/http/response"
	"github.com/ekunemmanuel/blog-saas/internal/lib/sl"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
)

// Service определяет интерфейс сервиса биллинга для проверки транзакции.
type Service interface {
	VerifyPayment(ctx context.Context, reference string) (*paystack.VerifyTransactionResponse, error)
}

// Handler обрабатывает запросы на проверку транзакции.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверить транзакцию
// @Description Запрашивает у Paystack подтверждённое состояние транзакции по референсу.
// @Tags Billing
// @Produce  json
// @Param reference path string true "Референс транзакции"
// @Success 200 {object} response.Response "Подтверждённые данные транзакции"
// @Failure 400 {object} response.ErrorResponse "Референс не указан"
// @Failure 500 {object} response.ErrorResponse "Ошибка провайдера"
// @Router /billing/payment/{reference} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.paymentverify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reference := chi.URLParam(r, "reference")
	if reference == "" {
		log.Error("missing transaction reference in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing transaction reference"))
		return
	}

	resp, err := h.service.VerifyPayment(r.Context(), reference)
	if err != nil {
		log.Error("failed to verify transaction", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to verify transaction"))
		return
	}

	log.Info("transaction verified", slog.String("reference", reference),
		slog.String("status", resp.Data.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":    resp.Data.Status,
		"reference": resp.Data.Reference,
		"amount":    resp.Data.Amount,
		"paid_at":   resp.Data.PaidAt,
	}))
}
