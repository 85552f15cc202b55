// Package metering реализует учёт конвертаций: проверку допуска по
// тарифу и квоте, атомарный инкремент дневного счётчика и сводки
// использования. Решение о допуске никогда не выдаётся при отказе
// хранилища; журнал конвертаций пишется по принципу best-effort.
package metering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jarrod640-svg/pdfswift/internal/entitlement"
	"github.com/jarrod640-svg/pdfswift/internal/lib/clock"
	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/models"
	"github.com/jarrod640-svg/pdfswift/internal/storage/repository"
)

// ErrStorageUnavailable хранилище недоступно, допуск не выдан.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Repository определяет методы хранилища, используемые при учёте конвертаций.
type Repository interface {
	// IncrementDailyUsage атомарно увеличивает дневной счётчик, если он ниже лимита.
	IncrementDailyUsage(ctx context.Context, p models.Principal, day time.Time, limit int) (bool, int, error)
	// GetDailyUsage возвращает дневной счётчик, 0 — если записи нет.
	GetDailyUsage(ctx context.Context, p models.Principal, day time.Time) (int, error)
	// InsertConversion добавляет запись в журнал конвертаций.
	InsertConversion(ctx context.Context, event models.ConversionEvent) error
	// CountConversionsSince считает конвертации субъекта с указанного момента.
	CountConversionsSince(ctx context.Context, p models.Principal, since time.Time) (int, error)
	// GetAccount возвращает учётную запись по UID.
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// subscriptionSnapshot кешируемый срез состояния подписки учётной записи.
type subscriptionSnapshot struct {
	Tier   models.SubscriptionTier   `json:"tier"`
	Status models.SubscriptionStatus `json:"status"`
}

// MeteringService реализует бизнес-логику учёта конвертаций.
type MeteringService struct {
	repo   Repository
	cache  Cache
	limits entitlement.Limits
	log    *slog.Logger
	now    func() time.Time
}

// NewMeteringService создает новый экземпляр MeteringService.
func NewMeteringService(repo Repository, cache Cache, limits entitlement.Limits, log *slog.Logger) *MeteringService {
	return &MeteringService{
		repo:   repo,
		cache:  cache,
		limits: limits,
		log:    log,
		now:    time.Now,
	}
}

// SnapshotCacheKey возвращает ключ кеша среза подписки учётной записи.
// Вебхук-обработчик инвалидирует этот ключ после смены тарифа или статуса.
func SnapshotCacheKey(accountUID string) string {
	return fmt.Sprintf("account:%s", accountUID)
}

// subscription возвращает тариф и статус субъекта. Анонимные сессии
// всегда на бесплатном тарифе; учётная запись без строки в базе
// (устаревший токен) также трактуется как бесплатная.
func (s *MeteringService) subscription(ctx context.Context, p models.Principal) (models.SubscriptionTier, models.SubscriptionStatus) {
	if p.Kind != models.PrincipalAccount {
		return models.TierFree, models.StatusActive
	}

	cacheKey := SnapshotCacheKey(p.ID)
	var snapshot subscriptionSnapshot
	found, err := s.cache.Get(cacheKey, &snapshot)
	if err != nil {
		s.log.Warn("failed to read subscription snapshot from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return snapshot.Tier, snapshot.Status
	}

	account, err := s.repo.GetAccount(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrAccountNotFound) {
			s.log.Warn("failed to load account, treating as free tier", sl.Err(err))
		}
		return models.TierFree, models.StatusActive
	}

	snapshot = subscriptionSnapshot{Tier: account.Tier, Status: account.Status}
	if err := s.cache.Set(cacheKey, snapshot, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache subscription snapshot", slog.String("key", cacheKey), sl.Err(err))
	}
	return account.Tier, account.Status
}

// Track проверяет допуск конвертации и учитывает её. Для бесплатного
// тарифа инкремент квоты выполняется одним атомарным шагом; отказ
// хранилища на этом пути возвращает ErrStorageUnavailable, а не допуск.
// Отказы политики — ожидаемый результат, ошибкой не являются.
func (s *MeteringService) Track(ctx context.Context, p models.Principal, req models.TrackRequest, ipAddress string) (*models.TrackResult, error) {
	now := s.now()
	day := clock.Day(now)

	tier, status := s.subscription(ctx, p)
	effective := entitlement.EffectiveTier(tier, status)

	remaining := 1
	usedToday := 0
	if effective == models.TierFree {
		count, err := s.repo.GetDailyUsage(ctx, p, day)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		usedToday = count
		remaining = s.limits.FreeDailyLimit - count
	}

	decision := s.limits.Evaluate(tier, status, req.ConversionType, req.FileSizeMB, remaining)
	if !decision.Allowed {
		s.log.Info("conversion denied",
			slog.String("reason", string(decision.Reason)),
			slog.String("principal_kind", string(p.Kind)))
		return &models.TrackResult{
			Reason: string(decision.Reason),
			Count:  usedToday,
			Limit:  s.limits.FreeDailyLimit,
		}, nil
	}

	countAfter := usedToday
	if effective == models.TierFree {
		allowed, count, err := s.repo.IncrementDailyUsage(ctx, p, day, s.limits.FreeDailyLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		if !allowed {
			// квоту успел исчерпать конкурентный запрос
			return &models.TrackResult{
				Reason: string(entitlement.ReasonDailyLimitReached),
				Count:  count,
				Limit:  s.limits.FreeDailyLimit,
			}, nil
		}
		countAfter = count
	}

	// журнал конвертаций пишется по принципу best-effort: его отказ
	// влияет только на месячную отчётность, а не на уже выданный допуск
	event := models.ConversionEvent{
		Principal:      p,
		ConversionType: req.ConversionType,
		FileSizeMB:     req.FileSizeMB,
		IPAddress:      ipAddress,
	}
	if err := s.repo.InsertConversion(ctx, event); err != nil {
		s.log.Warn("failed to log conversion event", sl.Err(err))
	}

	return &models.TrackResult{
		Allowed: true,
		Count:   countAfter,
		Limit:   s.limits.FreeDailyLimit,
	}, nil
}

// Usage возвращает сводку использования: дневную квоту для бесплатного
// тарифа, месячный счётчик конвертаций — для платных.
func (s *MeteringService) Usage(ctx context.Context, p models.Principal) (*models.UsageSummary, error) {
	now := s.now()

	tier, status := s.subscription(ctx, p)
	effective := entitlement.EffectiveTier(tier, status)

	if effective != models.TierFree {
		monthly, err := s.repo.CountConversionsSince(ctx, p, clock.MonthStart(now))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return &models.UsageSummary{
			Tier:         effective,
			Unlimited:    true,
			MonthlyCount: monthly,
		}, nil
	}

	count, err := s.repo.GetDailyUsage(ctx, p, clock.Day(now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	remaining := s.limits.FreeDailyLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return &models.UsageSummary{
		Tier:      models.TierFree,
		Count:     count,
		Limit:     s.limits.FreeDailyLimit,
		Remaining: remaining,
	}, nil
}
