package models

import "time"

// Типы транзакций.
const (
	TransactionTypePurchase = "purchase"
	TransactionTypeRent     = "rent"
)

// Transaction представляет запись о покупке или аренде товара.
// Поля RentStartAt и RentEndAt заполняются только для аренды;
// RentEndAt мутируется при продлении. Code — непрозрачный уникальный
// идентификатор, генерируется при покупке сразу, для аренды — лениво
// при первом запросе статуса.
type Transaction struct {
	ID          int64      `json:"id"`
	UserUID     string     `json:"user_uid"` // Владелец, задаётся при создании и не меняется
	ProductID   int64      `json:"product_id"`
	Type        string     `json:"type"` // purchase или rent
	RentStartAt *time.Time `json:"rent_start_at,omitempty"`
	RentEndAt   *time.Time `json:"rent_end_at,omitempty"`
	Code        string     `json:"code,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TransactionWithProduct — транзакция вместе с товаром, к которому она
// относится. Используется в истории операций пользователя.
type TransactionWithProduct struct {
	Transaction
	Product Product `json:"product"`
}

// TransactionStatus — ответ на запрос статуса товара у пользователя.
type TransactionStatus struct {
	Product   Product    `json:"product"`
	Type      string     `json:"type"`
	RentEndAt *time.Time `json:"rent_end_at,omitempty"`
	Code      string     `json:"code"`
}

// DummyRentRequest используется для приёма количества часов аренды из JSON-запроса.
type DummyRentRequest struct {
	Hours int `json:"hours" validate:"required"`
}

// DummyExtendRequest используется для приёма количества часов продления из JSON-запроса.
type DummyExtendRequest struct {
	Hours int `json:"hours" validate:"required"`
}

// TransactionEvent публикуется в RabbitMQ после успешной операции.
type TransactionEvent struct {
	TransactionID int64      `json:"transaction_id"`
	UserUID       string     `json:"user_uid"`
	ProductID     int64      `json:"product_id"`
	Type          string     `json:"type"`
	Amount        int64      `json:"amount"`
	RentEndAt     *time.Time `json:"rent_end_at,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
