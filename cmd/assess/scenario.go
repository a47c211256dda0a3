package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

// scenario is an offline description of zones, gauges, and the requests to
// assess against them.
type scenario struct {
	Now      *time.Time                 `yaml:"now"`
	Zones    []domain.ZoneProfile       `yaml:"zones"`
	Gauges   map[string]gauge           `yaml:"gauges"`
	Requests []domain.AssessmentRequest `yaml:"requests"`
}

type gauge struct {
	Thresholds domain.Thresholds     `yaml:"thresholds"`
	Readings   []domain.GaugeReading `yaml:"readings"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if len(sc.Requests) == 0 {
		return nil, errors.New("scenario has no requests")
	}
	for i := range sc.Requests {
		if sc.Requests[i].ID == "" {
			sc.Requests[i].ID = fmt.Sprintf("request-%d", i+1)
		}
	}
	return &sc, nil
}

// RecentReadings serves the scenario's readings with the same filtering the
// database query applies.
func (s *scenario) RecentReadings(_ context.Context, gaugeID string, since time.Time, limit int) ([]domain.GaugeReading, error) {
	g, ok := s.Gauges[gaugeID]
	if !ok {
		return nil, nil
	}
	readings := make([]domain.GaugeReading, 0, len(g.Readings))
	for _, r := range g.Readings {
		if r.Eligible() && !r.Time.Before(since) {
			readings = append(readings, r)
		}
	}
	sort.SliceStable(readings, func(i, j int) bool { return readings[i].Time.After(readings[j].Time) })
	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

func (s *scenario) Thresholds(_ context.Context, gaugeID string) (domain.Thresholds, error) {
	return s.Gauges[gaugeID].Thresholds, nil
}
