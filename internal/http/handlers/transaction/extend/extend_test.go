package extend

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"product-rental/internal/http/middlewarectx"
	"product-rental/internal/models"
	ledger "product-rental/internal/services/ledger"
	trade "product-rental/internal/services/trade"
)

// MockService реализует интерфейс extend.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ExtendRent(ctx context.Context, userUID string, transactionID int64, additionalHours int) (*time.Time, error) {
	args := m.Called(ctx, userUID, transactionID, additionalHours)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func TestExtendHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	newEnd := time.Date(2026, 8, 28, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		transactionID  string
		requestBody    interface{}
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:          "успешное продление",
			transactionID: "10",
			requestBody:   models.DummyExtendRequest{Hours: 4},
			userUID:       "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("ExtendRent", mock.Anything, "user-uid-1", int64(10), 4).
					Return(&newEnd, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"rent_end_at"`,
		},
		{
			name:          "транзакция не найдена",
			transactionID: "10",
			requestBody:   models.DummyExtendRequest{Hours: 4},
			userUID:       "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("ExtendRent", mock.Anything, "user-uid-1", int64(10), 4).
					Return(nil, trade.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"transaction not found"`,
		},
		{
			name:          "чужая транзакция",
			transactionID: "10",
			requestBody:   models.DummyExtendRequest{Hours: 4},
			userUID:       "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("ExtendRent", mock.Anything, "user-uid-1", int64(10), 4).
					Return(nil, trade.ErrForbidden).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"transaction belongs to another user"`,
		},
		{
			name:          "превышение суточного лимита",
			transactionID: "10",
			requestBody:   models.DummyExtendRequest{Hours: 12},
			userUID:       "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("ExtendRent", mock.Anything, "user-uid-1", int64(10), 12).
					Return(nil, trade.ErrRentalCapExceeded).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `total rental time cannot exceed 24 hours`,
		},
		{
			name:          "покупку нельзя продлить",
			transactionID: "10",
			requestBody:   models.DummyExtendRequest{Hours: 4},
			userUID:       "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("ExtendRent", mock.Anything, "user-uid-1", int64(10), 4).
					Return(nil, trade.ErrNotRental).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"transaction is not a rental"`,
		},
		{
			name:          "недостаточно средств",
			transactionID: "10",
			requestBody:   models.DummyExtendRequest{Hours: 4},
			userUID:       "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("ExtendRent", mock.Anything, "user-uid-1", int64(10), 4).
					Return(nil, ledger.ErrInsufficientFunds).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"insufficient funds"`,
		},
		{
			name:           "некорректный id в URL",
			transactionID:  "abc",
			requestBody:    models.DummyExtendRequest{Hours: 4},
			userUID:        "user-uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid transaction id"`,
		},
		{
			name:           "нет авторизации",
			transactionID:  "10",
			requestBody:    models.DummyExtendRequest{Hours: 4},
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockService)
			tt.setupMock(mockSvc)

			handler := New(logger, mockSvc)

			body, err := json.Marshal(tt.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/transactions/"+tt.transactionID+"/extend", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.transactionID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockSvc.AssertExpectations(t)
		})
	}
}
