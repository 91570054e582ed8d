// Package models содержит доменные структуры пользователя, товара и транзакции,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
// Баланс хранится в минимальных денежных единицах (копейках) и изменяется
// только через операцию списания в леджере — напрямую поле не мутируется.
type User struct {
	UID          string    `json:"uid"`      // Уникальный идентификатор пользователя
	Email        string    `json:"email"`    // Электронная почта
	Username     string    `json:"username"` // Имя пользователя (уникальное)
	PasswordHash string    `json:"-"`        // Хэш пароля пользователя
	Role         string    `json:"role"`     // Роль пользователя, admin или user
	Balance      int64     `json:"balance"`  // Баланс в копейках, не может быть отрицательным
	CreatedAt    time.Time `json:"created_at"`
}

// DummyRegisterUser используется для приёма данных регистрации из JSON-запроса.
type DummyRegisterUser struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLoginUser используется для приёма данных входа из JSON-запроса.
type DummyLoginUser struct {
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required"`
}
