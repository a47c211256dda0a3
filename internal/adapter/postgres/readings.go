package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
)

const selectRecentReadings = `SELECT observed_at, level, quality
FROM gauge_readings
WHERE gauge_id = $1 AND quality = 'good' AND observed_at >= $2
ORDER BY observed_at DESC
LIMIT $3`

// ReadingRepository implements domain.ReadingProvider.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository creates a ReadingRepository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// RecentReadings returns good-quality readings for gaugeID observed at or
// after since, most recent first.
func (r *ReadingRepository) RecentReadings(ctx context.Context, gaugeID string, since time.Time, limit int) ([]domain.GaugeReading, error) {
	rows, err := r.db.QueryContext(ctx, selectRecentReadings, gaugeID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings for gauge %s: %w", gaugeID, err)
	}
	defer rows.Close()

	readings := make([]domain.GaugeReading, 0, limit)
	for rows.Next() {
		var (
			rd      domain.GaugeReading
			quality string
		)
		if err := rows.Scan(&rd.Time, &rd.Level, &quality); err != nil {
			return nil, fmt.Errorf("scan reading for gauge %s: %w", gaugeID, err)
		}
		rd.Quality = domain.Quality(quality)
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings for gauge %s: %w", gaugeID, err)
	}
	return readings, nil
}
