// Package billing содержит логику работы с платёжным провайдером:
// создание сессий оплаты, чтение состояния подписки, отмену и применение
// вебхук-событий к учётным записям.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jarrod640-svg/pdfswift/internal/billingprovider"
	"github.com/jarrod640-svg/pdfswift/internal/config"
	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/models"
)

var (
	// ErrUnknownPlan запрошен несуществующий тарифный план.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrNoActiveSubscription у учётной записи нет активной подписки.
	ErrNoActiveSubscription = errors.New("no active subscription")
)

// Repository описывает методы хранилища, используемые биллингом.
type Repository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	GetAccountByBillingCustomerID(ctx context.Context, customerID string) (*models.Account, error)
	SetBillingCustomerID(ctx context.Context, uid, customerID string) error
	ActivateSubscription(ctx context.Context, uid string, tier models.SubscriptionTier, subscriptionID string) error
	UpdateSubscriptionStatus(ctx context.Context, customerID string, status models.SubscriptionStatus) error
	CancelSubscription(ctx context.Context, customerID string) error
	InsertProcessedEvent(ctx context.Context, eventID, eventType string) (bool, error)
}

// Provider описывает клиент API платёжного провайдера.
type Provider interface {
	CreateCustomer(reqParams billingprovider.CreateCustomerRequest) (*billingprovider.Customer, error)
	CreateCheckoutSession(reqParams billingprovider.CreateCheckoutSessionRequest) (*billingprovider.CheckoutSession, error)
	GetSubscription(subscriptionID string) (*billingprovider.Subscription, error)
	CancelAtPeriodEnd(subscriptionID string) (*billingprovider.Subscription, error)
}

// Cache описывает инвалидацию кешированных срезов подписки.
type Cache interface {
	Invalidate(key string) error
}

// ReceiptPublisher отправляет квитанцию об оплате в очередь воркера.
type ReceiptPublisher interface {
	PublishReceipt(receipt models.Receipt) error
}

// SubscriptionDetail состояние подписки учётной записи, дополненное
// данными провайдера, когда подписка существует.
type SubscriptionDetail struct {
	Tier              models.SubscriptionTier   `json:"tier"`
	Status            models.SubscriptionStatus `json:"status"`
	CancelAtPeriodEnd bool                      `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time                `json:"current_period_end,omitempty"`
}

// BillingService реализует бизнес-логику оплаты подписок.
type BillingService struct {
	repo      Repository
	provider  Provider
	cache     Cache
	publisher ReceiptPublisher
	cfg       config.Billing
	log       *slog.Logger
}

// NewBillingService создает новый экземпляр BillingService.
func NewBillingService(repo Repository, provider Provider, cache Cache, publisher ReceiptPublisher, cfg config.Billing, log *slog.Logger) *BillingService {
	return &BillingService{
		repo:      repo,
		provider:  provider,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

func (s *BillingService) priceID(plan string) (string, error) {
	switch models.ParseTier(plan) {
	case models.TierPro:
		return s.cfg.PriceIDPro, nil
	case models.TierBusiness:
		return s.cfg.PriceIDBiz, nil
	default:
		return "", ErrUnknownPlan
	}
}

// Checkout создаёт сессию оплаты подписки и возвращает её идентификатор
// и URL для оплаты. Клиент у провайдера создаётся лениво при первой
// покупке, его идентификатор сохраняется на учётной записи.
func (s *BillingService) Checkout(ctx context.Context, accountUID, plan string) (*billingprovider.CheckoutSession, error) {
	const op = "billing.Checkout"

	priceID, err := s.priceID(plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customerID := ""
	if account.BillingCustomerID != nil {
		customerID = *account.BillingCustomerID
	} else {
		customer, err := s.provider.CreateCustomer(billingprovider.CreateCustomerRequest{
			Email:    account.Email,
			Metadata: map[string]string{"account_uid": account.UID},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.SetBillingCustomerID(ctx, account.UID, customer.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		customerID = customer.ID
	}

	session, err := s.provider.CreateCheckoutSession(billingprovider.CreateCheckoutSessionRequest{
		Customer:   customerID,
		PriceID:    priceID,
		Mode:       "subscription",
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		Metadata: map[string]string{
			"account_uid": account.UID,
			"plan":        plan,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// SubscriptionStatus возвращает состояние подписки учётной записи.
// Если подписка существует, детали (отмена в конце периода, дата
// окончания) читаются у провайдера; его недоступность не скрывает
// локальное состояние.
func (s *BillingService) SubscriptionStatus(ctx context.Context, accountUID string) (*SubscriptionDetail, error) {
	const op = "billing.SubscriptionStatus"

	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail := &SubscriptionDetail{
		Tier:   account.Tier,
		Status: account.Status,
	}
	if account.BillingSubscriptionID == nil {
		return detail, nil
	}

	sub, err := s.provider.GetSubscription(*account.BillingSubscriptionID)
	if err != nil {
		s.log.Warn("failed to fetch subscription from provider", sl.Err(err))
		return detail, nil
	}
	detail.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if !sub.CurrentPeriodEnd.IsZero() {
		periodEnd := sub.CurrentPeriodEnd
		detail.CurrentPeriodEnd = &periodEnd
	}
	return detail, nil
}

// CancelSubscription планирует отмену подписки в конце оплаченного
// периода. Локальные тариф и статус не меняются: они обновятся, когда
// провайдер доставит событие удаления подписки.
func (s *BillingService) CancelSubscription(ctx context.Context, accountUID string) error {
	const op = "billing.CancelSubscription"

	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if account.BillingSubscriptionID == nil {
		return fmt.Errorf("%s: %w", op, ErrNoActiveSubscription)
	}

	if _, err := s.provider.CancelAtPeriodEnd(*account.BillingSubscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
