// Package subscriptionread обрабатывает чтение текущей подписки пользователя.
package subscriptionread

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
	"github.com/ekunemmanuel/blog-saas/internal/models"
	"github.com/ekunemmanuel/blog-saas/internal/storage/repository"
)

// Service определяет интерфейс сервиса биллинга для чтения подписки.
type Service interface {
	GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Handler обрабатывает запросы на чтение подписки.
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
// @Summary Текущая подписка пользователя
// @Description Возвращает сохранённое состояние подписки. Поле data пустое,
// если подписки нет.
// @Tags Billing
// @Produce  json
// @Success 200 {object} response.Response "Состояние подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /billing/subscription [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.subscriptionread"

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

	sub, err := h.service.GetSubscription(r.Context(), userUID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		log.Error("user not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read subscription"))
		return
	}

	log.Info("subscription read", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": sub,
	}))
}
