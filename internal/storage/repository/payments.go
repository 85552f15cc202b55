package repository

import (
	"context"
	"fmt"
)

// InsertProcessedEvent фиксирует событие платёжного провайдера в журнале
// обработанных событий. Возвращает false, если событие с таким id уже
// обрабатывалось — уникальное ограничение по event_id гарантирует, что
// при конкурентной повторной доставке вставка удастся ровно один раз.
func (s *Storage) InsertProcessedEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	const op = "storage.InsertProcessedEvent"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO processed_payment_events (event_id, event_type)
			  VALUES ($1, $2)
			  ON CONFLICT (event_id) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}
