// Package purchase реализует HTTP-обработчик покупки товара.
//
// Handler извлекает ID товара из URL-параметров и UID пользователя из контекста,
// вызывает бизнес-логику покупки и возвращает созданную транзакцию с кодом доступа.
//
// В случае ошибок формируются соответствующие HTTP-ответы: 404 для отсутствующего
// товара, 403 при нехватке средств.
package purchase

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
	ledger "product-rental/internal/services/ledger"
	trade "product-rental/internal/services/trade"
)

// Handler управляет HTTP-запросами на покупку товара.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики покупки
}

// Service описывает интерфейс бизнес-логики покупки товара.
type Service interface {
	Purchase(ctx context.Context, userUID string, productID int64) (*models.Transaction, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Купить товар
// @Description Списывает стоимость товара с баланса пользователя и создает транзакцию покупки.
// @Tags Products
// @Produce  json
// @Param id path int true "ID товара"
// @Success 200 {object} map[string]any "Успешная покупка"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID товара"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно средств"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /products/{id}/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.purchase"
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

	tr, err := h.service.Purchase(r.Context(), userUID, productID)
	if err != nil {
		switch {
		case errors.Is(err, trade.ErrProductNotFound):
			log.Info("product not found", slog.Int64("product_id", productID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("product not found"))
		case errors.Is(err, ledger.ErrInsufficientFunds):
			log.Info("insufficient funds", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient funds"))
		default:
			log.Error("failed to purchase product", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not purchase product"))
		}
		return
	}

	log.Info("product purchased", slog.Int64("transaction_id", tr.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"transaction_id": tr.ID,
		"code":           tr.Code,
	}))
}
