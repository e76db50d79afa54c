// Package paymentcreate обрабатывает начало оплаты подписки: инициализирует
// транзакцию у провайдера и возвращает ссылку на страницу оплаты.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ekunemmanuel/blog-saas/internal/http/middlewarectx"
	"github.com/ekunemmanuel/blog-saas/internal/http/response"
	"github.com/ekunemmanuel/blog-saas/internal/lib/sl"
	"github.com/ekunemmanuel/blog-saas/internal/paystack"
	"github.com/ekunemmanuel/blog-saas/internal/services/billing"
)

// Request представляет запрос на начало оплаты выбранного тарифного плана.
type Request struct {
	Plan string `json:"plan" validate:"required"`
}

// Service определяет интерфейс сервиса биллинга для начала оплаты.
type Service interface {
	StartPayment(ctx context.Context, userUID, email, planCode string) (*paystack.InitializeTransactionResponse, error)
}

// Handler обрабатывает запросы на начало оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Начать оплату подписки
// @Description Инициализирует транзакцию у Paystack и возвращает ссылку на страницу оплаты.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body Request true "Код тарифного плана"
// @Success 200 {object} response.Response "Ссылка на страницу оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или подписка ещё действует"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Неизвестный тарифный план"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка провайдера или хранилища"
// @Router /billing/payment [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.paymentcreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	email, okEmail := r.Context().Value(middlewarectx.User).(string)
	if !ok || userUID == "" || !okEmail || email == "" {
		log.Error("user identification missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	resp, err := h.service.StartPayment(r.Context(), userUID, email, req.Plan)
	var activeErr *billing.SubscriptionActiveError
	switch {
	case errors.As(err, &activeErr):
		log.Info("payment rejected, subscription still valid",
			slog.String("until", activeErr.Until))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(activeErr.Error()))
		return
	case errors.Is(err, billing.ErrPlanNotFound):
		log.Error("unknown plan", slog.String("plan", req.Plan))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("plan not found"))
		return
	case err != nil:
		log.Error("failed to start payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start payment"))
		return
	}

	log.Info("payment initialized", slog.String("reference", resp.Data.Reference))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"authorization_url": resp.Data.AuthorizationURL,
		"access_code":       resp.Data.AccessCode,
		"reference":         resp.Data.Reference,
	}))
}
