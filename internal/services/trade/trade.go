// Package services содержит бизнес-логику покупки и аренды товаров:
// валидацию запросов, расчёт цены, списание баланса через леджер и
// ведение записей транзакций. Списание и запись транзакции выполняются
// в одной транзакции базы данных: либо обе операции фиксируются,
// либо обе откатываются.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"product-rental/internal/lib/rabbitmq"
	"product-rental/internal/lib/sl"
	"product-rental/internal/models"
)

// Ошибки бизнес-правил. Обработчики сопоставляют их с HTTP-статусами
// через errors.Is; никакая из них не оставляет частичных изменений.
var (
	// ErrProductNotFound — товар с указанным ID не существует.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidDuration — срок аренды не входит в допустимые значения.
	ErrInvalidDuration = errors.New("invalid rental duration")
	// ErrForbidden — транзакция принадлежит другому пользователю.
	ErrForbidden = errors.New("transaction belongs to another user")
	// ErrRentalCapExceeded — суммарное время аренды превысило бы 24 часа.
	ErrRentalCapExceeded = errors.New("rental cap exceeded")
	// ErrNotFound — у пользователя нет транзакции по товару.
	ErrNotFound = errors.New("transaction not found")
	// ErrNotRental — попытка продлить транзакцию, не являющуюся арендой.
	ErrNotRental = errors.New("transaction is not a rental")
	// ErrBrokenReference — у существующей транзакции отсутствует товар.
	// Ошибка целостности данных, а не пользовательская.
	ErrBrokenReference = errors.New("product reference is broken")
)

// RentalCapHours — максимальная суммарная длительность аренды от её начала.
const RentalCapHours = 24

// allowedRentHours — допустимые значения срока аренды в часах.
var allowedRentHours = map[int]struct{}{4: {}, 8: {}, 12: {}, 24: {}}

// TradeRepository определяет методы хранилища для рабочего процесса
// покупки и аренды. Методы, входящие в единицу работы со списанием,
// принимают *sql.Tx.
type TradeRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product models.Product) (int64, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	FindUserTransactionForProduct(ctx context.Context, userUID string, productID int64) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *sql.Tx, tr *models.Transaction) (int64, error)
	UpdateTransactionRentEnd(ctx context.Context, tx *sql.Tx, id int64, rentEndAt time.Time) (int, error)
	SetTransactionCode(ctx context.Context, id int64, code string) (int, error)
	ListUserTransactions(ctx context.Context, userUID string) ([]*models.TransactionWithProduct, error)
}

// Debiter описывает операцию атомарного списания средств леджера.
type Debiter interface {
	TryDebit(ctx context.Context, tx *sql.Tx, userUID string, amount int64) (int64, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// TradeService реализует операции покупки, аренды, продления аренды,
// проверки статуса и истории транзакций.
type TradeService struct {
	db     *sql.DB
	repo   TradeRepository
	ledger Debiter
	cache  Cache
	events *amqp.Channel // nil отключает публикацию событий
	log    *slog.Logger
}

// NewTradeService создает новый экземпляр TradeService.
func NewTradeService(db *sql.DB, repo TradeRepository, ledger Debiter, cache Cache, events *amqp.Channel, log *slog.Logger) *TradeService {
	return &TradeService{
		db:     db,
		repo:   repo,
		ledger: ledger,
		cache:  cache,
		events: events,
		log:    log,
	}
}

// Purchase покупает товар: списывает его стоимость с баланса пользователя
// и создаёт транзакцию типа purchase с уникальным кодом.
func (s *TradeService) Purchase(ctx context.Context, userUID string, productID int64) (tr *models.Transaction, err error) {
	const op = "trade.Purchase"

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.ledger.TryDebit(ctx, tx, userUID, product.Price); err != nil {
		return nil, err
	}

	tr = &models.Transaction{
		UserUID:   userUID,
		ProductID: productID,
		Type:      models.TransactionTypePurchase,
		Code:      uuid.New().String(),
	}
	if _, err = s.repo.CreateTransaction(ctx, tx, tr); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("product purchased",
		slog.String("user_uid", userUID),
		slog.Int64("product_id", productID),
		slog.Int64("price", product.Price))
	s.publishEvent("purchased", models.TransactionEvent{
		TransactionID: tr.ID,
		UserUID:       userUID,
		ProductID:     productID,
		Type:          tr.Type,
		Amount:        product.Price,
		OccurredAt:    time.Now().UTC(),
	})

	return tr, nil
}

// Rent арендует товар на hours часов. Допустимые сроки — 4, 8, 12 и 24 часа,
// любой другой отклоняется до расчёта цены и списания. Цена считается
// по запрошенным часам: hours * rent_per_hour.
func (s *TradeService) Rent(ctx context.Context, userUID string, productID int64, hours int) (tr *models.Transaction, err error) {
	const op = "trade.Rent"

	if _, ok := allowedRentHours[hours]; !ok {
		return nil, ErrInvalidDuration
	}

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	price := int64(hours) * product.RentPerHour
	now := time.Now().UTC()
	rentEnd := now.Add(time.Duration(hours) * time.Hour)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.ledger.TryDebit(ctx, tx, userUID, price); err != nil {
		return nil, err
	}

	tr = &models.Transaction{
		UserUID:     userUID,
		ProductID:   productID,
		Type:        models.TransactionTypeRent,
		RentStartAt: &now,
		RentEndAt:   &rentEnd,
	}
	if _, err = s.repo.CreateTransaction(ctx, tx, tr); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("product rented",
		slog.String("user_uid", userUID),
		slog.Int64("product_id", productID),
		slog.Int("hours", hours),
		slog.Int64("price", price))
	s.publishEvent("rented", models.TransactionEvent{
		TransactionID: tr.ID,
		UserUID:       userUID,
		ProductID:     productID,
		Type:          tr.Type,
		Amount:        price,
		RentEndAt:     &rentEnd,
		OccurredAt:    time.Now().UTC(),
	})

	return tr, nil
}

// ExtendRent продлевает аренду на additionalHours часов. Продлить можно
// только собственную транзакцию аренды, и суммарное время от начала аренды
// не может превысить 24 часа. Доплата: additionalHours * rent_per_hour.
func (s *TradeService) ExtendRent(ctx context.Context, userUID string, transactionID int64, additionalHours int) (newRentEnd *time.Time, err error) {
	const op = "trade.ExtendRent"

	if additionalHours <= 0 {
		return nil, ErrInvalidDuration
	}

	tr, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tr.UserUID != userUID {
		return nil, ErrForbidden
	}
	if tr.Type != models.TransactionTypeRent || tr.RentStartAt == nil || tr.RentEndAt == nil {
		return nil, ErrNotRental
	}

	// Часы считаются от начала аренды, неполный час отбрасывается.
	alreadyRentedHours := int(time.Now().UTC().Sub(*tr.RentStartAt).Hours())
	if alreadyRentedHours+additionalHours > RentalCapHours {
		return nil, ErrRentalCapExceeded
	}

	// Без кеша: нужно отличить битую ссылку на товар от обычного промаха.
	product, err := s.repo.GetProduct(ctx, tr.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrokenReference
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	price := int64(additionalHours) * product.RentPerHour

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.ledger.TryDebit(ctx, tx, userUID, price); err != nil {
		return nil, err
	}

	rentEnd := tr.RentEndAt.Add(time.Duration(additionalHours) * time.Hour)
	if _, err = s.repo.UpdateTransactionRentEnd(ctx, tx, tr.ID, rentEnd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("rent extended",
		slog.String("user_uid", userUID),
		slog.Int64("transaction_id", tr.ID),
		slog.Int("additional_hours", additionalHours),
		slog.Int64("price", price))
	s.publishEvent("extended", models.TransactionEvent{
		TransactionID: tr.ID,
		UserUID:       userUID,
		ProductID:     tr.ProductID,
		Type:          tr.Type,
		Amount:        price,
		RentEndAt:     &rentEnd,
		OccurredAt:    time.Now().UTC(),
	})

	return &rentEnd, nil
}

// CheckStatus возвращает статус товара у пользователя: последнюю транзакцию
// по товару вместе с кодом. Если код ещё не сгенерирован, он создаётся
// лениво; повторные вызовы возвращают тот же код.
func (s *TradeService) CheckStatus(ctx context.Context, userUID string, productID int64) (*models.TransactionStatus, error) {
	const op = "trade.CheckStatus"

	tr, err := s.repo.FindUserTransactionForProduct(ctx, userUID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if tr.Code == "" {
		code := uuid.New().String()
		n, err := s.repo.SetTransactionCode(ctx, tr.ID, code)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if n == 0 {
			// Код успел записать параллельный запрос, перечитываем его.
			tr, err = s.repo.GetTransaction(ctx, tr.ID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		} else {
			tr.Code = code
			s.log.Info("transaction code generated", slog.Int64("transaction_id", tr.ID))
		}
	}

	product, err := s.repo.GetProduct(ctx, tr.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrokenReference
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TransactionStatus{
		Product:   *product,
		Type:      tr.Type,
		RentEndAt: tr.RentEndAt,
		Code:      tr.Code,
	}, nil
}

// CreateProduct добавляет новый товар в каталог и возвращает его ID.
// Операция доступна только администраторам, проверка роли выполняется выше.
func (s *TradeService) CreateProduct(ctx context.Context, product models.Product) (int64, error) {
	const op = "trade.CreateProduct"

	id, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("product created", slog.Int64("product_id", id), slog.String("name", product.Name))
	return id, nil
}

// ListProducts возвращает страницу каталога товаров.
func (s *TradeService) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.repo.ListProducts(ctx, limit, offset)
}

// History возвращает все транзакции пользователя с товарами
// в порядке создания записей. Чистое чтение, без мутаций.
func (s *TradeService) History(ctx context.Context, userUID string) ([]*models.TransactionWithProduct, error) {
	return s.repo.ListUserTransactions(ctx, userUID)
}

// getProduct возвращает товар, используя кеш или хранилище.
// Ошибки кеша не прерывают операцию, только логируются.
func (s *TradeService) getProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "trade.getProduct"

	cacheKey := fmt.Sprintf("product:%d", id)
	var cached *models.Product
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read product from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached != nil {
		return cached, nil
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey, product, time.Hour); err != nil {
		s.log.Warn("failed to cache product", slog.String("key", cacheKey), sl.Err(err))
	}
	return product, nil
}

// publishEvent публикует событие транзакции в RabbitMQ. Публикация
// выполняется по принципу best effort: ошибка не влияет на результат операции.
func (s *TradeService) publishEvent(routingKey string, event models.TransactionEvent) {
	if s.events == nil {
		return
	}
	if err := rabbitmq.PublishMessage(s.events, "transactions", routingKey, event); err != nil {
		s.log.Warn("failed to publish transaction event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}
