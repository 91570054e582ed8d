package purchase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"product-rental/internal/http/middlewarectx"
	"product-rental/internal/models"
	ledger "product-rental/internal/services/ledger"
	trade "product-rental/internal/services/trade"
)

// MockService реализует интерфейс purchase.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Purchase(ctx context.Context, userUID string, productID int64) (*models.Transaction, error) {
	args := m.Called(ctx, userUID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func TestPurchaseHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		productID      string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "успешная покупка",
			productID: "1",
			userUID:   "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("Purchase", mock.Anything, "user-uid-1", int64(1)).
					Return(&models.Transaction{ID: 7, Code: "code-123"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"code":"code-123"`,
		},
		{
			name:           "некорректный id в URL",
			productID:      "abc",
			userUID:        "user-uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid product id"`,
		},
		{
			name:           "нет авторизации",
			productID:      "1",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:      "товар не найден",
			productID: "99",
			userUID:   "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("Purchase", mock.Anything, "user-uid-1", int64(99)).
					Return(nil, trade.ErrProductNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"product not found"`,
		},
		{
			name:      "недостаточно средств",
			productID: "1",
			userUID:   "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("Purchase", mock.Anything, "user-uid-1", int64(1)).
					Return(nil, ledger.ErrInsufficientFunds).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"insufficient funds"`,
		},
		{
			name:      "ошибка сервиса",
			productID: "1",
			userUID:   "user-uid-1",
			setupMock: func(m *MockService) {
				m.On("Purchase", mock.Anything, "user-uid-1", int64(1)).
					Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not purchase product"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockService)
			tt.setupMock(mockSvc)

			handler := New(logger, mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/products/"+tt.productID+"/purchase", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.productID)
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
