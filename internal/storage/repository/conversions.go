package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jarrod640-svg/pdfswift/internal/models"
)

// InsertConversion добавляет запись в журнал конвертаций.
func (s *Storage) InsertConversion(ctx context.Context, event models.ConversionEvent) error {
	const op = "storage.InsertConversion"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO conversions (principal_kind, principal_id, conversion_type,
			      file_size_mb, ip_address)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		event.Principal.Kind, event.Principal.ID, event.ConversionType,
		event.FileSizeMB, event.IPAddress)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountConversionsSince возвращает число конвертаций субъекта начиная с
// указанного момента. Используется для месячной сводки платных тарифов.
func (s *Storage) CountConversionsSince(ctx context.Context, p models.Principal, since time.Time) (int, error) {
	const op = "storage.CountConversionsSince"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM conversions
			  WHERE principal_kind = $1 AND principal_id = $2 AND created_at >= $3`
	var count int
	err := s.DB.QueryRowContext(ctx, query, p.Kind, p.ID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
