// Package extend реализует HTTP-обработчик продления аренды.
//
// Handler принимает JSON-запрос с количеством дополнительных часов,
// валидирует его, вызывает бизнес-логику продления и возвращает
// новое время окончания аренды.
//
// Продлить можно только собственную транзакцию аренды; суммарное время
// от начала аренды не может превысить 24 часа.
package extend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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

// Handler управляет HTTP-запросами на продление аренды.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики продления аренды
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики продления аренды.
type Service interface {
	ExtendRent(ctx context.Context, userUID string, transactionID int64, additionalHours int) (*time.Time, error)
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
// @Summary Продлить аренду
// @Description Продлевает аренду на указанное число часов в пределах суточного лимита.
// @Tags Transactions
// @Accept  json
// @Produce  json
// @Param id path int true "ID транзакции"
// @Param request body models.DummyExtendRequest true "Дополнительные часы"
// @Success 200 {object} map[string]any "Аренда продлена"
// @Failure 400 {object} response.ErrorResponse "Недопустимый срок, превышение лимита или недостаточно средств"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чужая транзакция"
// @Failure 404 {object} response.ErrorResponse "Транзакция не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /transactions/{id}/extend [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transaction.extend"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	transactionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid transaction id"))
		return
	}

	var req models.DummyExtendRequest
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

	newRentEnd, err := h.service.ExtendRent(r.Context(), userUID, transactionID, req.Hours)
	if err != nil {
		switch {
		case errors.Is(err, trade.ErrNotFound):
			log.Info("transaction not found", slog.Int64("transaction_id", transactionID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("transaction not found"))
		case errors.Is(err, trade.ErrForbidden):
			log.Info("transaction belongs to another user", slog.Int64("transaction_id", transactionID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("transaction belongs to another user"))
		case errors.Is(err, trade.ErrInvalidDuration):
			log.Info("invalid additional hours", slog.Int("hours", req.Hours))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("additional hours must be positive"))
		case errors.Is(err, trade.ErrNotRental):
			log.Info("transaction is not a rental", slog.Int64("transaction_id", transactionID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("transaction is not a rental"))
		case errors.Is(err, trade.ErrRentalCapExceeded):
			log.Info("rental cap exceeded", slog.Int64("transaction_id", transactionID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("total rental time cannot exceed 24 hours"))
		case errors.Is(err, ledger.ErrInsufficientFunds):
			log.Info("insufficient funds", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("insufficient funds"))
		case errors.Is(err, trade.ErrBrokenReference):
			log.Error("product reference is broken", slog.Int64("transaction_id", transactionID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("product no longer exists"))
		default:
			log.Error("failed to extend rent", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not extend rent"))
		}
		return
	}

	log.Info("rent extended", slog.Int64("transaction_id", transactionID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"rent_end_at": newRentEnd,
	}))
}
