package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
)

// NULL attributes read as zero so a partially surveyed zone still scores.
const selectZones = `SELECT id,
       COALESCE(name, ''),
       COALESCE(river_proximity, 0),
       COALESCE(elevation_risk, 0),
       COALESCE(population_density, 0),
       COALESCE(critical_infrastructure_score, 0),
       COALESCE(hospital_count, 0)
FROM zones
ORDER BY id`

// ZoneRepository loads zone profiles.
type ZoneRepository struct {
	db *sql.DB
}

// NewZoneRepository creates a ZoneRepository.
func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// LoadZones returns every zone profile ordered by id.
func (r *ZoneRepository) LoadZones(ctx context.Context) ([]domain.ZoneProfile, error) {
	rows, err := r.db.QueryContext(ctx, selectZones)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.ZoneProfile
	for rows.Next() {
		var z domain.ZoneProfile
		if err := rows.Scan(
			&z.ID,
			&z.Name,
			&z.RiverProximity,
			&z.ElevationRisk,
			&z.PopulationDensity,
			&z.CriticalInfrastructureScore,
			&z.HospitalCount,
		); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zones: %w", err)
	}
	return zones, nil
}

// LoadZoneTable loads every zone into an immutable table.
func (r *ZoneRepository) LoadZoneTable(ctx context.Context) (*domain.ZoneTable, error) {
	zones, err := r.LoadZones(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewZoneTable(zones), nil
}
