// Package storage реализует хранилище данных на основе PostgreSQL
// для работы с пользователями, товарами и транзакциями покупки/аренды.
// Списание баланса выполняется одним условным UPDATE, а методы записи,
// входящие в единицу работы "списание + запись транзакции", принимают
// *sql.Tx вызывающей стороны.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"product-rental/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями, товарами и транзакциями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// ===== LEDGER METHODS =====

// DebitUserBalance атомарно списывает amount с баланса пользователя.
// Проверка достаточности средств и само списание выполняются одним
// условным UPDATE: при нехватке средств запрос не затрагивает ни одной
// строки и возвращается обёрнутый sql.ErrNoRows без какой-либо мутации.
// Выполняется в транзакции вызывающей стороны.
func (s *Storage) DebitUserBalance(ctx context.Context, tx *sql.Tx, userUID string, amount int64) (int64, error) {
	const op = "storage.DebitUserBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET balance = balance - $1
			  WHERE uid = $2 AND balance >= $1
			  RETURNING balance`
	var newBalance int64
	err := tx.QueryRowContext(ctx, query, amount, userUID).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newBalance, nil
}

// GetUserBalance возвращает текущий баланс пользователя.
func (s *Storage) GetUserBalance(ctx context.Context, userUID string) (int64, error) {
	const op = "storage.GetUserBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT balance FROM users WHERE uid = $1`
	var balance int64
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// ===== PRODUCT METHODS =====

// GetProduct возвращает товар по его ID.
func (s *Storage) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "storage.GetProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, rent_per_hour, created_at
			  FROM products
			  WHERE id = $1`
	var p models.Product
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.RentPerHour, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// CreateProduct вставляет новый товар и возвращает его ID.
// Каталог управляется внешним сервисом, метод используется при
// заполнении данных и в тестах.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	const op = "storage.CreateProduct"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO products (name, price, rent_per_hour)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, p.Name, p.Price, p.RentPerHour).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListProducts возвращает список товаров с пагинацией.
func (s *Storage) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, rent_per_hour, created_at
			  FROM products
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.RentPerHour, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ===== TRANSACTION METHODS =====

// CreateTransaction вставляет запись о покупке или аренде и возвращает её ID.
// Выполняется в транзакции вызывающей стороны вместе со списанием баланса.
func (s *Storage) CreateTransaction(ctx context.Context, tx *sql.Tx, tr *models.Transaction) (int64, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transactions (user_uid, product_id, type, rent_start_at, rent_end_at, code)
			  VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			  RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query,
		tr.UserUID, tr.ProductID, tr.Type, tr.RentStartAt, tr.RentEndAt, tr.Code).
		Scan(&tr.ID, &tr.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tr.ID, nil
}

// GetTransaction возвращает транзакцию по её ID.
func (s *Storage) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	const op = "storage.GetTransaction"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, product_id, type, rent_start_at, rent_end_at,
				  COALESCE(code, ''), created_at
			  FROM transactions
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	tr, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tr, nil
}

// FindUserTransactionForProduct возвращает последнюю транзакцию пользователя
// по указанному товару. Если пользователь и покупал, и арендовал один товар,
// возвращается самая свежая запись (ORDER BY id DESC).
func (s *Storage) FindUserTransactionForProduct(ctx context.Context, userUID string, productID int64) (*models.Transaction, error) {
	const op = "storage.FindUserTransactionForProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, product_id, type, rent_start_at, rent_end_at,
				  COALESCE(code, ''), created_at
			  FROM transactions
			  WHERE user_uid = $1 AND product_id = $2
			  ORDER BY id DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userUID, productID)

	tr, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tr, nil
}

// UpdateTransactionRentEnd обновляет время окончания аренды.
// Выполняется в транзакции вызывающей стороны вместе со списанием доплаты.
func (s *Storage) UpdateTransactionRentEnd(ctx context.Context, tx *sql.Tx, id int64, rentEndAt time.Time) (int, error) {
	const op = "storage.UpdateTransactionRentEnd"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE transactions
			  SET rent_end_at = $1
			  WHERE id = $2`
	res, err := tx.ExecContext(ctx, query, rentEndAt, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// SetTransactionCode записывает код транзакции, если он ещё не задан.
// Повторный вызов не перезаписывает уже существующий код.
func (s *Storage) SetTransactionCode(ctx context.Context, id int64, code string) (int, error) {
	const op = "storage.SetTransactionCode"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE transactions
			  SET code = $1
			  WHERE id = $2 AND code IS NULL`
	res, err := s.DB.ExecContext(ctx, query, code, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListUserTransactions возвращает все транзакции пользователя вместе
// с товарами в порядке создания записей.
func (s *Storage) ListUserTransactions(ctx context.Context, userUID string) ([]*models.TransactionWithProduct, error) {
	const op = "storage.ListUserTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT t.id, t.user_uid, t.product_id, t.type, t.rent_start_at, t.rent_end_at,
				  COALESCE(t.code, ''), t.created_at,
				  p.id, p.name, p.price, p.rent_per_hour, p.created_at
			  FROM transactions t
			  JOIN products p ON p.id = t.product_id
			  WHERE t.user_uid = $1
			  ORDER BY t.id`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TransactionWithProduct
	for rows.Next() {
		var item models.TransactionWithProduct
		var rentStartAt, rentEndAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.UserUID, &item.ProductID, &item.Type,
			&rentStartAt, &rentEndAt, &item.Code, &item.CreatedAt,
			&item.Product.ID, &item.Product.Name, &item.Product.Price,
			&item.Product.RentPerHour, &item.Product.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if rentStartAt.Valid {
			item.RentStartAt = &rentStartAt.Time
		}
		if rentEndAt.Valid {
			item.RentEndAt = &rentEndAt.Time
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// scanTransaction разбирает одну строку транзакции с nullable-полями аренды.
func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var tr models.Transaction
	var rentStartAt, rentEndAt sql.NullTime
	if err := row.Scan(&tr.ID, &tr.UserUID, &tr.ProductID, &tr.Type,
		&rentStartAt, &rentEndAt, &tr.Code, &tr.CreatedAt); err != nil {
		return nil, err
	}
	if rentStartAt.Valid {
		tr.RentStartAt = &rentStartAt.Time
	}
	if rentEndAt.Valid {
		tr.RentEndAt = &rentEndAt.Time
	}
	return &tr, nil
}

// ===== USER METHODS =====

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, password_hash, role, balance)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.Balance).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, balance, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.Balance, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
