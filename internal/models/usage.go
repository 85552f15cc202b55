package models

import "time"

// DailyUsage одна строка на пару (субъект, календарная дата).
// Счётчик монотонно неубывающий, строка создаётся лениво при первой
// конвертации за день и никогда не удаляется.
type DailyUsage struct {
	Principal       Principal
	UsageDate       time.Time
	ConversionCount int
}

// ConversionEvent неизменяемая запись журнала конвертаций,
// используется только для агрегатной отчётности.
type ConversionEvent struct {
	Principal      Principal
	ConversionType string
	FileSizeMB     float64
	IPAddress      string
	CreatedAt      time.Time
}

// TrackRequest входные данные запроса на учёт конвертации.
type TrackRequest struct {
	ConversionType string  `json:"conversion_type" validate:"required"`
	FileSizeMB     float64 `json:"file_size_mb" validate:"gte=0"`
}

// TrackResult результат учёта конвертации. При отказе поле Reason
// содержит структурированную причину, Count и Limit — текущее состояние квоты.
type TrackResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Count   int    `json:"count,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// UsageSummary сводка использования для клиента: дневная квота на
// бесплатном тарифе, месячный счётчик — на платных.
type UsageSummary struct {
	Tier         SubscriptionTier `json:"tier"`
	Unlimited    bool             `json:"unlimited"`
	Count        int              `json:"count"`
	Limit        int              `json:"limit"`
	Remaining    int              `json:"remaining"`
	MonthlyCount int              `json:"monthly_count,omitempty"`
}
