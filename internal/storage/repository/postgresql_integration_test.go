package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jarrod640-svg/pdfswift/internal/migrations"
	"github.com/jarrod640-svg/pdfswift/internal/models"
)

func getTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db, migrationsPath))

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return &Storage{DB: db}, cleanup
}

func TestIncrementDailyUsage_Sequential(t *testing.T) {
	storage, cleanup := getTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	p := models.SessionPrincipal("session-seq")
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	const limit = 3

	// первые три вызова разрешены, счётчик растёт 1, 2, 3
	for want := 1; want <= limit; want++ {
		allowed, count, err := storage.IncrementDailyUsage(ctx, p, day, limit)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, want, count)
	}

	// четвёртый вызов отклонён, счётчик не меняется
	allowed, count, err := storage.IncrementDailyUsage(ctx, p, day, limit)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, limit, count)

	stored, err := storage.GetDailyUsage(ctx, p, day)
	require.NoError(t, err)
	require.Equal(t, limit, stored)
}

func TestIncrementDailyUsage_Concurrent(t *testing.T) {
	storage, cleanup := getTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	p := models.SessionPrincipal("session-concurrent")
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	const limit = 3
	const callers = 20

	var wg sync.WaitGroup
	allowedCh := make(chan bool, callers)
	errCh := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := storage.IncrementDailyUsage(ctx, p, day, limit)
			if err != nil {
				errCh <- err
				return
			}
			allowedCh <- allowed
		}()
	}
	wg.Wait()
	close(allowedCh)
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	var granted int
	for allowed := range allowedCh {
		if allowed {
			granted++
		}
	}

	// ровно min(N, limit) вызовов получают allowed=true
	require.Equal(t, limit, granted)

	stored, err := storage.GetDailyUsage(ctx, p, day)
	require.NoError(t, err)
	require.Equal(t, limit, stored)
}

func TestIncrementDailyUsage_NextDayResets(t *testing.T) {
	storage, cleanup := getTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	p := models.SessionPrincipal("session-reset")
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)
	const limit = 3

	for range limit {
		_, _, err := storage.IncrementDailyUsage(ctx, p, day, limit)
		require.NoError(t, err)
	}

	// квота предыдущего дня не влияет на следующий день
	count, err := storage.GetDailyUsage(ctx, p, nextDay)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	allowed, count, err := storage.IncrementDailyUsage(ctx, p, nextDay, limit)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, count)

	// запись предыдущего дня осталась нетронутой
	stored, err := storage.GetDailyUsage(ctx, p, day)
	require.NoError(t, err)
	require.Equal(t, limit, stored)
}

func TestIncrementDailyUsage_ZeroLimit(t *testing.T) {
	storage, cleanup := getTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	p := models.SessionPrincipal("session-zero")
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	allowed, count, err := storage.IncrementDailyUsage(ctx, p, day, 0)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 0, count)
}

func TestInsertProcessedEvent_Idempotent(t *testing.T) {
	storage, cleanup := getTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	inserted, err := storage.InsertProcessedEvent(ctx, "evt_1", "checkout.session.completed")
	require.NoError(t, err)
	require.True(t, inserted)

	// повторная доставка того же события не вставляет вторую строку
	inserted, err = storage.InsertProcessedEvent(ctx, "evt_1", "checkout.session.completed")
	require.NoError(t, err)
	require.False(t, inserted)

	var rows int
	err = storage.DB.QueryRow(`SELECT COUNT(*) FROM processed_payment_events WHERE event_id = 'evt_1'`).Scan(&rows)
	require.NoError(t, err)
	require.Equal(t, 1, rows)
}

func TestAccountLifecycle(t *testing.T) {
	storage, cleanup := getTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	uid, err := storage.CreateAccount(ctx, models.Account{
		Email:        "user@example.com",
		Name:         "Test User",
		PasswordHash: "hash",
		Tier:         models.TierFree,
		Status:       models.StatusActive,
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	// повторная регистрация с тем же email отклоняется
	_, err = storage.CreateAccount(ctx, models.Account{
		Email:        "user@example.com",
		PasswordHash: "hash",
		Tier:         models.TierFree,
		Status:       models.StatusActive,
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	require.NoError(t, storage.SetBillingCustomerID(ctx, uid, "cus_42"))
	require.NoError(t, storage.ActivateSubscription(ctx, uid, models.TierPro, "sub_42"))

	account, err := storage.GetAccountByBillingCustomerID(ctx, "cus_42")
	require.NoError(t, err)
	require.Equal(t, models.TierPro, account.Tier)
	require.Equal(t, models.StatusActive, account.Status)
	require.NotNil(t, account.BillingSubscriptionID)
	require.Equal(t, "sub_42", *account.BillingSubscriptionID)

	require.NoError(t, storage.UpdateSubscriptionStatus(ctx, "cus_42", models.StatusPastDue))
	account, err = storage.GetAccount(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, models.TierPro, account.Tier)
	require.Equal(t, models.StatusPastDue, account.Status)

	require.NoError(t, storage.CancelSubscription(ctx, "cus_42"))
	account, err = storage.GetAccount(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, models.TierFree, account.Tier)
	require.Equal(t, models.StatusCancelled, account.Status)
	require.Nil(t, account.BillingSubscriptionID)
}
