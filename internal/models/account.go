// Package models содержит доменные структуры: учётные записи,
// субъекты тарификации, записи дневного использования и события платежей.
package models

import "time"

// SubscriptionTier уровень тарифа учётной записи.
type SubscriptionTier string

// Поддерживаемые тарифы.
const (
	TierFree     SubscriptionTier = "free"
	TierPro      SubscriptionTier = "pro"
	TierBusiness SubscriptionTier = "business"
)

// SubscriptionStatus платёжное состояние тарифа, не зависит от его уровня.
type SubscriptionStatus string

// Поддерживаемые статусы.
const (
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// ParseTier возвращает тариф по строке из внешнего источника,
// неизвестные значения считаются бесплатным тарифом.
func ParseTier(s string) SubscriptionTier {
	switch SubscriptionTier(s) {
	case TierPro:
		return TierPro
	case TierBusiness:
		return TierBusiness
	default:
		return TierFree
	}
}

// Account представляет зарегистрированного пользователя системы.
type Account struct {
	UID                   string             // Уникальный идентификатор пользователя
	Email                 string             // Электронная почта (уникальная, в нижнем регистре)
	Name                  string             // Отображаемое имя
	PasswordHash          string             // Хэш пароля пользователя
	Tier                  SubscriptionTier   // Текущий тариф
	Status                SubscriptionStatus // Статус подписки
	BillingCustomerID     *string            // Идентификатор клиента у платёжного провайдера
	BillingSubscriptionID *string            // Идентификатор подписки у платёжного провайдера
	CreatedAt             time.Time          // Дата регистрации
}
