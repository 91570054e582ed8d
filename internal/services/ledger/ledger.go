// Package services содержит бизнес-логику леджера: атомарное списание
// средств с баланса пользователя.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInsufficientFunds возвращается, когда на балансе пользователя
// не хватает средств для списания. Баланс при этом не изменяется.
var ErrInsufficientFunds = errors.New("insufficient funds")

// LedgerRepository определяет методы для работы с балансом в хранилище.
type LedgerRepository interface {
	// DebitUserBalance списывает amount одним условным UPDATE в рамках tx
	// и возвращает новый баланс. Обёрнутый sql.ErrNoRows означает,
	// что средств не хватило и ни одна строка не изменена.
	DebitUserBalance(ctx context.Context, tx *sql.Tx, userUID string, amount int64) (int64, error)
	// GetUserBalance возвращает текущий баланс пользователя.
	GetUserBalance(ctx context.Context, userUID string) (int64, error)
}

// LedgerService реализует операции над балансом пользователя.
// Цены сервис не вычисляет — сумма списания приходит от рабочего процесса.
type LedgerService struct {
	repo LedgerRepository
	log  *slog.Logger
}

// NewLedgerService создает новый экземпляр LedgerService.
func NewLedgerService(repo LedgerRepository, log *slog.Logger) *LedgerService {
	return &LedgerService{
		repo: repo,
		log:  log,
	}
}

// TryDebit атомарно проверяет достаточность средств и списывает amount
// с баланса пользователя в рамках переданной транзакции. При нехватке
// средств возвращает ErrInsufficientFunds, баланс не меняется.
func (s *LedgerService) TryDebit(ctx context.Context, tx *sql.Tx, userUID string, amount int64) (int64, error) {
	const op = "ledger.TryDebit"

	if amount < 0 {
		return 0, fmt.Errorf("%s: negative amount %d", op, amount)
	}

	newBalance, err := s.repo.DebitUserBalance(ctx, tx, userUID, amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("balance debited",
		slog.String("user_uid", userUID),
		slog.Int64("amount", amount),
		slog.Int64("new_balance", newBalance))
	return newBalance, nil
}

// GetBalance возвращает текущий баланс пользователя.
func (s *LedgerService) GetBalance(ctx context.Context, userUID string) (int64, error) {
	return s.repo.GetUserBalance(ctx, userUID)
}
