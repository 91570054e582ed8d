// Package rent реализует HTTP-обработчик аренды товара.
//
// Handler принимает JSON-запрос со сроком аренды в часах, валидирует его,
// вызывает бизнес-логику аренды и возвращает созданную транзакцию
// со временем окончания аренды.
package rent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"product-rental/internal/http/middlewarectx"
	"product-rental/internal/http/response"
	"product-rental/internal/lib/sl"
	"product-rental/internal/models"
	ledger "product-rental/internal/services/ledger"
	trade "product-rental/internal/services/trade"
)

// Handler управляет HTTP-запросами на аренду товара.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики аренды
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики аренды товара.
type Service interface {
	Rent(ctx context.Context, userUID string, productID int64, hours int) (*models.Transaction, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Арендовать товар
// @Description Арендует товар на 4, 8, 12 или 24 часа, списывая стоимость с баланса.
// @Tags Products
// @Accept  json
// @Produce  json
// @Param id path int true "ID товара"
// @Param request body models.DummyRentRequest true "Срок аренды в часах"
// @Success 200 {object} map[string]any "Успешная аренда"
// @Failure 400 {object} response.ErrorResponse "Недопустимый срок или недостаточно средств"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /products/{id}/rent [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.rent"
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

	var req models.DummyRentRequest
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
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	tr, err := h.service.Rent(r.Context(), userUID, productID, req.Hours)
	if err != nil {
		switch {
		case errors.Is(err, trade.ErrInvalidDuration):
			log.Info("invalid rental duration", slog.Int("hours", req.Hours))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("rental duration must be 4, 8, 12 or 24 hours"))
		case errors.Is(err, trade.ErrProductNotFound):
			log.Info("product not found", slog.Int64("product_id", productID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("product not found"))
		case errors.Is(err, ledger.ErrInsufficientFunds):
			log.Info("insufficient funds", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("insufficient funds"))
		default:
			log.Error("failed to rent product", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not rent product"))
		}
		return
	}

	log.Info("product rented", slog.Int64("transaction_id", tr.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"transaction_id": tr.ID,
		"rent_end_at":    tr.RentEndAt,
	}))
}
