package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jarrod640-svg/pdfswift/internal/models"
)

// IncrementDailyUsage атомарно увеличивает дневной счётчик конвертаций
// субъекта, если он ещё не достиг лимита. Выполняется одним условным
// upsert-запросом, поэтому при N конкурентных вызовах на одну пару
// (субъект, дата) ровно min(N, limit) вызовов получат allowed=true,
// а счётчик никогда не превысит limit.
//
// Возвращает признак допуска и значение счётчика после вызова.
func (s *Storage) IncrementDailyUsage(ctx context.Context, p models.Principal, day time.Time, limit int) (bool, int, error) {
	const op = "storage.IncrementDailyUsage"
	select {
	case <-ctx.Done():
		return false, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	// Ветка INSERT создаёт строку со счётчиком 1 в обход условия WHERE,
	// поэтому нулевой лимит отсекается до обращения к базе.
	if limit < 1 {
		count, err := s.GetDailyUsage(ctx, p, day)
		if err != nil {
			return false, 0, err
		}
		return false, count, nil
	}

	query := `INSERT INTO daily_usage (principal_kind, principal_id, usage_date, conversion_count)
			  VALUES ($1, $2, $3, 1)
			  ON CONFLICT (principal_kind, principal_id, usage_date)
			  DO UPDATE SET conversion_count = daily_usage.conversion_count + 1
			  WHERE daily_usage.conversion_count < $4
			  RETURNING conversion_count`
	var count int
	err := s.DB.QueryRowContext(ctx, query, p.Kind, p.ID, day, limit).Scan(&count)
	if err == nil {
		return true, count, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}

	// Условие WHERE не сработало: лимит уже исчерпан, читаем текущее значение.
	count, err = s.GetDailyUsage(ctx, p, day)
	if err != nil {
		return false, 0, err
	}
	return false, count, nil
}

// GetDailyUsage возвращает дневной счётчик конвертаций субъекта,
// 0 — если записи за эту дату ещё нет.
func (s *Storage) GetDailyUsage(ctx context.Context, p models.Principal, day time.Time) (int, error) {
	const op = "storage.GetDailyUsage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT conversion_count FROM daily_usage
			  WHERE principal_kind = $1 AND principal_id = $2 AND usage_date = $3`
	var count int
	err := s.DB.QueryRowContext(ctx, query, p.Kind, p.ID, day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
