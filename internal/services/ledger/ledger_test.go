package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) DebitUserBalance(ctx context.Context, tx *sql.Tx, userUID string, amount int64) (int64, error) {
	args := m.Called(ctx, tx, userUID, amount)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetUserBalance(ctx context.Context, userUID string) (int64, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLedgerService_TryDebit(t *testing.T) {
	const userUID = "7f1ac52a-54f0-4f53-9a22-0a1767b2b2ef"

	tests := []struct {
		name        string
		amount      int64
		setupMock   func(r *RepoMock)
		wantBalance int64
		wantErr     error
		anyErr      bool
	}{
		{
			name:   "успешное списание",
			amount: 500,
			setupMock: func(r *RepoMock) {
				r.On("DebitUserBalance", mock.Anything, mock.Anything, userUID, int64(500)).
					Return(int64(1500), nil).Once()
			},
			wantBalance: 1500,
		},
		{
			name:   "недостаточно средств",
			amount: 500,
			setupMock: func(r *RepoMock) {
				r.On("DebitUserBalance", mock.Anything, mock.Anything, userUID, int64(500)).
					Return(int64(0), fmt.Errorf("storage.DebitUserBalance: %w", sql.ErrNoRows)).Once()
			},
			wantErr: ErrInsufficientFunds,
		},
		{
			name:      "отрицательная сумма",
			amount:    -1,
			setupMock: func(_ *RepoMock) {},
			anyErr:    true,
		},
		{
			name:   "ошибка хранилища",
			amount: 500,
			setupMock: func(r *RepoMock) {
				r.On("DebitUserBalance", mock.Anything, mock.Anything, userUID, int64(500)).
					Return(int64(0), errors.New("connection lost")).Once()
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMock(repo)

			svc := NewLedgerService(repo, newNoopLogger())
			balance, err := svc.TryDebit(context.Background(), nil, userUID, tt.amount)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tt.wantBalance, balance)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLedgerService_GetBalance(t *testing.T) {
	const userUID = "7f1ac52a-54f0-4f53-9a22-0a1767b2b2ef"

	repo := new(RepoMock)
	repo.On("GetUserBalance", mock.Anything, userUID).Return(int64(999), nil).Once()

	svc := NewLedgerService(repo, newNoopLogger())
	balance, err := svc.GetBalance(context.Background(), userUID)

	assert.NoError(t, err)
	assert.Equal(t, int64(999), balance)
	repo.AssertExpectations(t)
}
