// Package models содержит доменную модель пользователя сервиса блогов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
// Поле Subscription может быть nil — пользователь без оплаченной подписки.
// Записывать Subscription имеет право только биллинг-сервис.
type User struct {
	UID          string        // Уникальный идентификатор пользователя
	Email        string        // Электронная почта, ключ для сопоставления с клиентом провайдера
	Username     string        // Отображаемое имя пользователя
	PasswordHash string        // Хэш пароля пользователя
	Role         string        // Роль пользователя, admin или user
	CustomerCode string        // Код клиента у платёжного провайдера
	Subscription *Subscription // Текущая подписка, nil если отсутствует
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
