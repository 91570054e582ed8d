package models

import "time"

// Product представляет товар каталога, доступный для покупки или аренды.
// Во время операций покупки/аренды товар неизменяем; цены хранятся
// в копейках. Удаление товара при наличии связанных транзакций запрещено
// внешним ключом на уровне схемы (ON DELETE RESTRICT).
type Product struct {
	ID          int64     `json:"id"`            // Идентификатор товара
	Name        string    `json:"name"`          // Название товара
	Price       int64     `json:"price"`         // Стоимость покупки, в копейках
	RentPerHour int64     `json:"rent_per_hour"` // Стоимость часа аренды, в копейках
	CreatedAt   time.Time `json:"created_at"`
}

// DummyProduct представляет запрос на создание товара.
type DummyProduct struct {
	Name        string `json:"name" validate:"required"`
	Price       int64  `json:"price" validate:"min=0"`
	RentPerHour int64  `json:"rent_per_hour" validate:"min=0"`
}
