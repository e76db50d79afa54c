// Package plans обрабатывает выдачу каталога тарифных планов сервиса.
package plans

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ekunemmanuel/blog-saas/internal/config"
	"github.com/ekunemmanuel/blog-saas/internal/http/response"
)

// Service определяет интерфейс сервиса биллинга для чтения каталога планов.
type Service interface {
	ListPlans() []config.PlanEntry
}

// Handler обрабатывает запросы на чтение каталога планов.
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
// @Summary Каталог тарифных планов
// @Tags Billing
// @Produce  json
// @Success 200 {object} response.Response "Список планов"
// @Router /billing/plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans": h.service.ListPlans(),
	}))
}
