package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jarrod640-svg/pdfswift/internal/models"
)

const accountColumns = `uid, email, name, password_hash, subscription_tier,
			      subscription_status, billing_customer_id, billing_subscription_id, created_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var customerID, subscriptionID sql.NullString
	if err := row.Scan(&a.UID, &a.Email, &a.Name, &a.PasswordHash, &a.Tier,
		&a.Status, &customerID, &subscriptionID, &a.CreatedAt); err != nil {
		return nil, err
	}
	if customerID.Valid {
		a.BillingCustomerID = &customerID.String
	}
	if subscriptionID.Valid {
		a.BillingSubscriptionID = &subscriptionID.String
	}
	return a, nil
}

// CreateAccount сохраняет новую учётную запись и возвращает её UID.
// Нарушение уникальности email транслируется в ErrEmailTaken.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO accounts (email, name, password_hash, subscription_tier,
			      subscription_status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.Name, account.PasswordHash, account.Tier,
		account.Status).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetAccount возвращает учётную запись по её UID.
func (s *Storage) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE uid = $1`
	account, err := scanAccount(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// GetAccountByEmail возвращает учётную запись по email (в нижнем регистре).
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE email = $1`
	account, err := scanAccount(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// GetAccountByBillingCustomerID возвращает учётную запись по идентификатору
// клиента у платёжного провайдера.
func (s *Storage) GetAccountByBillingCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	const op = "storage.GetAccountByBillingCustomerID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE billing_customer_id = $1`
	account, err := scanAccount(s.DB.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// SetBillingCustomerID сохраняет идентификатор клиента платёжного провайдера.
func (s *Storage) SetBillingCustomerID(ctx context.Context, uid, customerID string) error {
	const op = "storage.SetBillingCustomerID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET billing_customer_id = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, customerID, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ActivateSubscription устанавливает тариф, статус active и ссылку на
// подписку провайдера после успешной оплаты.
func (s *Storage) ActivateSubscription(ctx context.Context, uid string, tier models.SubscriptionTier, subscriptionID string) error {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET subscription_tier = $1,
			      subscription_status = $2,
			      billing_subscription_id = $3
			  WHERE uid = $4`
	_, err := s.DB.ExecContext(ctx, query, tier, models.StatusActive, subscriptionID, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionStatus обновляет статус подписки, тариф не меняется.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, customerID string, status models.SubscriptionStatus) error {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET subscription_status = $1
			  WHERE billing_customer_id = $2`
	_, err := s.DB.ExecContext(ctx, query, status, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CancelSubscription понижает учётную запись до бесплатного тарифа,
// ставит статус cancelled и очищает ссылку на подписку провайдера.
func (s *Storage) CancelSubscription(ctx context.Context, customerID string) error {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET subscription_tier = $1,
			      subscription_status = $2,
			      billing_subscription_id = NULL
			  WHERE billing_customer_id = $3`
	_, err := s.DB.ExecContext(ctx, query, models.TierFree, models.StatusCancelled, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
