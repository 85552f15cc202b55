package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/models"
	"github.com/jarrod640-svg/pdfswift/internal/services/metering"
	"github.com/jarrod640-svg/pdfswift/internal/storage/repository"
)

// Типы событий провайдера, которые меняют состояние подписки.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// WebhookEvent уведомление платёжного провайдера. Подпись проверяется
// на транспортном уровне до разбора тела.
type WebhookEvent struct {
	EventID string          `json:"id" validate:"required"`
	Type    string          `json:"type" validate:"required"`
	Data    json.RawMessage `json:"data"`
}

type checkoutSessionData struct {
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionData struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
}

type invoiceData struct {
	Customer string `json:"customer"`
}

// mapProviderStatus переводит статус подписки провайдера в локальный.
// Неизвестные статусы трактуются как active.
func mapProviderStatus(status string) models.SubscriptionStatus {
	switch status {
	case "past_due":
		return models.StatusPastDue
	case "canceled":
		return models.StatusCancelled
	default:
		return models.StatusActive
	}
}

// ProcessEvent применяет событие провайдера к учётной записи. Событие
// сначала фиксируется в журнале обработанных по уникальному id: повторная
// доставка — успешный no-op. Неизвестные типы подтверждаются без
// обработки, чтобы не отвергать будущие типы событий провайдера.
func (s *BillingService) ProcessEvent(ctx context.Context, event WebhookEvent) error {
	const op = "billing.ProcessEvent"

	switch event.Type {
	case EventCheckoutCompleted, EventSubscriptionUpdated,
		EventSubscriptionDeleted, EventInvoicePaymentFailed:
	default:
		s.log.Info("ignoring unknown webhook event type",
			slog.String("event_id", event.EventID),
			slog.String("type", event.Type))
		return nil
	}

	firstSeen, err := s.repo.InsertProcessedEvent(ctx, event.EventID, event.Type)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !firstSeen {
		s.log.Info("skipping duplicate webhook event",
			slog.String("event_id", event.EventID),
			slog.String("type", event.Type))
		return nil
	}

	switch event.Type {
	case EventCheckoutCompleted:
		err = s.applyCheckoutCompleted(ctx, event)
	case EventSubscriptionUpdated:
		err = s.applySubscriptionUpdated(ctx, event)
	case EventSubscriptionDeleted:
		err = s.applySubscriptionDeleted(ctx, event)
	case EventInvoicePaymentFailed:
		err = s.applyInvoicePaymentFailed(ctx, event)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *BillingService) applyCheckoutCompleted(ctx context.Context, event WebhookEvent) error {
	var data checkoutSessionData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	accountUID := data.Metadata["account_uid"]
	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.log.Warn("checkout completed for unknown account",
				slog.String("event_id", event.EventID),
				slog.String("account_uid", accountUID))
			return nil
		}
		return err
	}

	if account.BillingCustomerID == nil {
		if err := s.repo.SetBillingCustomerID(ctx, account.UID, data.Customer); err != nil {
			return err
		}
	}

	tier := models.ParseTier(data.Metadata["plan"])
	if err := s.repo.ActivateSubscription(ctx, account.UID, tier, data.Subscription); err != nil {
		return err
	}
	s.invalidateSnapshot(account.UID)

	// квитанция — best-effort: отказ брокера не влияет на подписку
	receipt := models.Receipt{
		Email: account.Email,
		Name:  account.Name,
		Plan:  string(tier),
	}
	if err := s.publisher.PublishReceipt(receipt); err != nil {
		s.log.Warn("failed to publish payment receipt", sl.Err(err))
	}

	s.log.Info("subscription activated",
		slog.String("account_uid", account.UID),
		slog.String("tier", string(tier)))
	return nil
}

func (s *BillingService) applySubscriptionUpdated(ctx context.Context, event WebhookEvent) error {
	var data subscriptionData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	account, err := s.accountByCustomer(ctx, event.EventID, data.Customer)
	if err != nil || account == nil {
		return err
	}

	status := mapProviderStatus(data.Status)
	if err := s.repo.UpdateSubscriptionStatus(ctx, data.Customer, status); err != nil {
		return err
	}
	s.invalidateSnapshot(account.UID)

	s.log.Info("subscription status updated",
		slog.String("account_uid", account.UID),
		slog.String("status", string(status)))
	return nil
}

func (s *BillingService) applySubscriptionDeleted(ctx context.Context, event WebhookEvent) error {
	var data subscriptionData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	account, err := s.accountByCustomer(ctx, event.EventID, data.Customer)
	if err != nil || account == nil {
		return err
	}

	if err := s.repo.CancelSubscription(ctx, data.Customer); err != nil {
		return err
	}
	s.invalidateSnapshot(account.UID)

	s.log.Info("subscription cancelled", slog.String("account_uid", account.UID))
	return nil
}

func (s *BillingService) applyInvoicePaymentFailed(ctx context.Context, event WebhookEvent) error {
	var data invoiceData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	account, err := s.accountByCustomer(ctx, event.EventID, data.Customer)
	if err != nil || account == nil {
		return err
	}

	// тариф сохраняется: после оплаты задолженности статус вернётся
	// к active без повторной покупки
	if err := s.repo.UpdateSubscriptionStatus(ctx, data.Customer, models.StatusPastDue); err != nil {
		return err
	}
	s.invalidateSnapshot(account.UID)

	s.log.Info("subscription marked past due", slog.String("account_uid", account.UID))
	return nil
}

// accountByCustomer возвращает учётную запись по клиенту провайдера.
// Событие для неизвестного клиента подтверждается без обработки:
// nil, nil — сигнал пропустить событие.
func (s *BillingService) accountByCustomer(ctx context.Context, eventID, customerID string) (*models.Account, error) {
	account, err := s.repo.GetAccountByBillingCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.log.Warn("webhook event for unknown billing customer",
				slog.String("event_id", eventID),
				slog.String("customer_id", customerID))
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (s *BillingService) invalidateSnapshot(accountUID string) {
	if err := s.cache.Invalidate(metering.SnapshotCacheKey(accountUID)); err != nil {
		s.log.Warn("failed to invalidate subscription snapshot",
			slog.String("account_uid", accountUID), sl.Err(err))
	}
}
