// Package entitlement содержит чистую логику решения о допуске конвертации:
// (тариф, статус, тип конвертации, размер файла, остаток квоты) -> решение.
// Пакет не выполняет I/O, одинаковые входы всегда дают одинаковый результат.
package entitlement

import "github.com/jarrod640-svg/pdfswift/internal/models"

// Reason структурированная причина отказа. Отказы — ожидаемый исход,
// а не ошибка, и возвращаются клиенту как есть.
type Reason string

const (
	// ReasonFileTooLarge размер файла превышает потолок тарифа.
	ReasonFileTooLarge Reason = "file_too_large"
	// ReasonUpgradeRequired запрошенный тип конвертации доступен только на платных тарифах.
	ReasonUpgradeRequired Reason = "upgrade_required"
	// ReasonDailyLimitReached дневная квота бесплатного тарифа исчерпана.
	ReasonDailyLimitReached Reason = "daily_limit_reached"
)

// Decision результат проверки допуска.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// premiumFeatures типы конвертаций, закрытые для бесплатного тарифа.
var premiumFeatures = map[string]bool{
	"pdf-to-word":  true,
	"pdf-to-excel": true,
	"pdf-to-ppt":   true,
}

// Limits потолки тарифов. Значения приходят из конфигурации,
// Default задаёт справочные умолчания.
type Limits struct {
	FreeDailyLimit    int
	FreeMaxFileMB     int64
	ProMaxFileMB      int64
	BusinessMaxFileMB int64
}

// Default возвращает лимиты по умолчанию: 3 конвертации в день на
// бесплатном тарифе, потолки 10/100/500 МБ.
func Default() Limits {
	return Limits{
		FreeDailyLimit:    3,
		FreeMaxFileMB:     10,
		ProMaxFileMB:      100,
		BusinessMaxFileMB: 500,
	}
}

// MaxFileMB возвращает потолок размера файла в мегабайтах для тарифа.
func (l Limits) MaxFileMB(tier models.SubscriptionTier) int64 {
	switch tier {
	case models.TierPro:
		return l.ProMaxFileMB
	case models.TierBusiness:
		return l.BusinessMaxFileMB
	default:
		return l.FreeMaxFileMB
	}
}

// EffectiveTier возвращает тариф с учётом статуса: просроченная или
// отменённая подписка понижает доступ до бесплатного тарифа, не меняя
// сам тариф в учётной записи.
func EffectiveTier(tier models.SubscriptionTier, status models.SubscriptionStatus) models.SubscriptionTier {
	if status == models.StatusPastDue || status == models.StatusCancelled {
		return models.TierFree
	}
	return tier
}

// Evaluate принимает решение о допуске конвертации. Порядок правил:
// статус понижает тариф, затем размер файла, затем премиум-функции,
// затем дневная квота. remaining — остаток дневной квоты, уже
// вычисленный вызывающей стороной на "сегодня".
func (l Limits) Evaluate(tier models.SubscriptionTier, status models.SubscriptionStatus,
	conversionType string, fileSizeMB float64, remaining int) Decision {

	effective := EffectiveTier(tier, status)

	if fileSizeMB > float64(l.MaxFileMB(effective)) {
		return deny(ReasonFileTooLarge)
	}
	if premiumFeatures[conversionType] && effective == models.TierFree {
		return deny(ReasonUpgradeRequired)
	}
	if effective == models.TierFree && remaining <= 0 {
		return deny(ReasonDailyLimitReached)
	}
	return allow
}
