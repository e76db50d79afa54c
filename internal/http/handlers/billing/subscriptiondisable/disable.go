// Package subscriptiondisable обрабатывает отключение автопродления
// подписки пользователя у платёжного провайдера.
package subscriptiondisable

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ekunemmanuel/blog-saas/internal/http/middlewarectx"
	"github.com/ekunemmanuel/blog-saas/internal/http/response"
	"github.com/ekunemmanuel/blog-saas/internal/lib/sl"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
	"github.com/ekunemmanuel/blog-saas/internal/storage/repository"
)

// Service определяет интерфейс сервиса биллинга для отключения подписки.
type Service interface {
	Disable(ctx context.Context, userUID string) (*paystack.DisableSubscriptionResponse, error)
}

// Handler обрабатывает запросы на отключение подписки.
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
// @Summary Отключить подписку
// @Description Отключает автопродление подписки пользователя у Paystack.
// Само состояние подписки обновится вебхуком subscription.not_renew.
// @Tags Billing
// @Produce  json
// @Success 200 {object} response.Response "Подписка отключена у провайдера"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка провайдера"
// @Router /billing/subscription [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.subscriptiondisable"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	resp, err := h.service.Disable(r.Context(), userUID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		log.Error("subscription not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	case err != nil:
		log.Error("failed to disable subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to disable subscription"))
		return
	}

	log.Info("subscription disabled", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": resp.Message,
	}))
}
