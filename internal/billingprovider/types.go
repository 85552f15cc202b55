package billingprovider

import "time"

// Customer представляет клиента у платёжного провайдера.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateCustomerRequest запрос на создание клиента.
type CreateCustomerRequest struct {
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"` // account_uid
}

// CreateCheckoutSessionRequest запрос на создание сессии оплаты подписки.
type CreateCheckoutSessionRequest struct {
	Customer   string            `json:"customer"`
	PriceID    string            `json:"price_id"`
	Mode       string            `json:"mode"` // всегда "subscription"
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata,omitempty"` // account_uid, plan
}

// CheckoutSession сессия оплаты, созданная провайдером.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Subscription состояние подписки на стороне провайдера.
type Subscription struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"` // active, past_due, canceled
	Customer          string    `json:"customer"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
}
