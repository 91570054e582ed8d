// Package status реализует HTTP-обработчик проверки статуса товара у пользователя.
//
// Handler извлекает ID товара из URL-параметров и UID пользователя из контекста,
// вызывает бизнес-логику и возвращает последнюю транзакцию пользователя по товару
// вместе с кодом доступа. Код генерируется лениво при первом запросе.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"product-rental/internal/http/middlewarectx"
	"product-rental/internal/http/response"
	"product-rental/internal/lib/sl"
	"product-rental/internal/models"
	trade "product-rental/internal/services/trade"
)

// Handler управляет HTTP-запросами на проверку статуса товара.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики проверки статуса
}

// Service описывает интерфейс бизнес-логики проверки статуса товара.
type Service interface {
	CheckStatus(ctx context.Context, userUID string, productID int64) (*models.TransactionStatus, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверить статус товара
// @Description Возвращает последнюю транзакцию пользователя по товару и код доступа.
// @Tags Products
// @Produce  json
// @Param id path int true "ID товара"
// @Success 200 {object} map[string]any "Статус товара"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID товара"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Транзакция не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /products/{id}/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid product id"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	st, err := h.service.CheckStatus(r.Context(), userUID, productID)
	if err != nil {
		switch {
		case errors.Is(err, trade.ErrNotFound):
			log.Info("transaction not found", slog.Int64("product_id", productID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("transaction not found"))
		default:
			log.Error("failed to check product status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not check product status"))
		}
		return
	}

	log.Info("status checked", slog.Int64("product_id", productID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": st,
	}))
}
