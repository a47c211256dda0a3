package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
)

const selectThresholds = `SELECT alert_level, warning_level
FROM gauge_thresholds
WHERE gauge_id = $1`

// ThresholdRepository implements domain.ThresholdProvider.
type ThresholdRepository struct {
	db *sql.DB
}

// NewThresholdRepository creates a ThresholdRepository.
func NewThresholdRepository(db *sql.DB) *ThresholdRepository {
	return &ThresholdRepository{db: db}
}

// Thresholds returns the alert and warning levels for gaugeID. A gauge with
// no row yields empty thresholds.
func (r *ThresholdRepository) Thresholds(ctx context.Context, gaugeID string) (domain.Thresholds, error) {
	var alert, warning sql.NullFloat64
	err := r.db.QueryRowContext(ctx, selectThresholds, gaugeID).Scan(&alert, &warning)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Thresholds{}, nil
	}
	if err != nil {
		return domain.Thresholds{}, fmt.Errorf("query thresholds for gauge %s: %w", gaugeID, err)
	}

	var th domain.Thresholds
	if alert.Valid {
		th.Alert = &alert.Float64
	}
	if warning.Valid {
		th.Warning = &warning.Float64
	}
	return th, nil
}
