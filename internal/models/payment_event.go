package models

import "time"

// PaymentEvent обработанное уведомление платёжного провайдера.
// Уникальность EventID в хранилище — механизм идемпотентности:
// повторная доставка того же события не меняет состояние.
type PaymentEvent struct {
	EventID     string
	EventType   string
	ProcessedAt time.Time
}

// Receipt сообщение для воркера отправки квитанций об оплате.
type Receipt struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan"`
}
