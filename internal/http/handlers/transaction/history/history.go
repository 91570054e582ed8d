// Package history реализует HTTP-обработчик получения истории транзакций пользователя.
//
// Handler извлекает UID пользователя из контекста и возвращает все его транзакции
// вместе с данными товаров в порядке создания записей.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"product-rental/internal/http/middlewarectx"
	"product-rental/internal/http/response"
	"product-rental/internal/lib/sl"
	"product-rental/internal/models"
)

// Handler управляет HTTP-запросами на получение истории транзакций.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики истории транзакций
}

// Service описывает интерфейс бизнес-логики истории транзакций.
type Service interface {
	History(ctx context.Context, userUID string) ([]*models.TransactionWithProduct, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История транзакций
// @Description Возвращает все транзакции пользователя с данными товаров.
// @Tags Transactions
// @Produce  json
// @Success 200 {object} map[string]any "Список транзакций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transaction.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	transactions, err := h.service.History(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list transactions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list transactions"))
		return
	}

	log.Info("transactions listed", slog.Int("count", len(transactions)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"transactions": transactions,
	}))
}
