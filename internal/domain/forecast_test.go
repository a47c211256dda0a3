package domain

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGaugeID = "gauge-riverton"

var testNow = time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func modePtr(s string) *string { return &s }

// hourlyReadings builds most-recent-first readings one hour apart, the first
// at testNow.
func hourlyReadings(levels ...float64) []GaugeReading {
	out := make([]GaugeReading, len(levels))
	for i, level := range levels {
		out[i] = GaugeReading{
			Time:    testNow.Add(-time.Duration(i) * time.Hour),
			Level:   level,
			Quality: QualityGood,
		}
	}
	return out
}

func constantReadings(n int, level float64) []GaugeReading {
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = level
	}
	return hourlyReadings(levels...)
}

func newTestForecaster() *Forecaster {
	return NewForecaster(clockwork.NewFakeClockAt(testNow))
}

// Readings 10.0, 9.8 ... 8.8 hourly: the baseline is index 5 (9.0, five hours
// earlier), so the trend is 0.2/h and the 6h forecast is
// 10.0 + 0.2*6*e^(-0.12).
func TestForecast_Regression(t *testing.T) {
	readings := hourlyReadings(10.0, 9.8, 9.6, 9.4, 9.2, 9.0, 8.8)

	result, err := newTestForecaster().Forecast(readings, 6, Thresholds{})
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.CurrentLevel)
	assert.Equal(t, testNow, result.CurrentTime)
	assert.Equal(t, 0.2, result.TrendRate)
	assert.Equal(t, TrendRising, result.Direction)
	assert.InDelta(t, 0.8869, Damping(6), 1e-4)
	assert.InDelta(t, 10.0+0.2*6*math.Exp(-0.12), result.PredictedLevel, 1e-9)
	assert.InDelta(t, 11.064, result.PredictedLevel, 1e-3)
	assert.Equal(t, testNow.Add(6*time.Hour), result.PredictedTime)
	assert.Equal(t, 6, result.HorizonHours)
	assert.Equal(t, ConfidenceLow, result.Confidence)
	assert.Equal(t, 7, result.ReadingCount)
	assert.Zero(t, result.FloodProbability)
	assert.Equal(t, testNow, result.GeneratedAt)
}

func TestForecast_NoData(t *testing.T) {
	f := newTestForecaster()

	_, err := f.Forecast(nil, 6, Thresholds{})
	require.ErrorIs(t, err, ErrNoData)

	bad := []GaugeReading{
		{Time: testNow, Level: 3, Quality: QualityBad},
		{Time: testNow, Level: 3, Quality: QualityMissing},
	}
	_, err = f.Forecast(bad, 6, Thresholds{}, WithGaugeID(testGaugeID))
	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), testGaugeID)
}

func TestForecast_FewReadings(t *testing.T) {
	readings := hourlyReadings(5, 4, 3, 2, 1)

	result, err := newTestForecaster().Forecast(readings, 12, Thresholds{})
	require.NoError(t, err)
	assert.Zero(t, result.TrendRate)
	assert.Equal(t, TrendSteady, result.Direction)
	assert.Equal(t, ConfidenceLow, result.Confidence)
	assert.Equal(t, 5.0, result.PredictedLevel)

	result, err = newTestForecaster().Forecast(readings, 12, Thresholds{}, WithFallbackDirection(TrendRising))
	require.NoError(t, err)
	assert.Equal(t, TrendRising, result.Direction)
	assert.Zero(t, result.TrendRate)
}

func TestForecast_IneligibleReadingsSkipped(t *testing.T) {
	readings := hourlyReadings(10.0, 50, 9.8, 9.6, 9.4, 9.2, 9.0)
	readings[1].Quality = QualitySuspect
	// Without the suspect reading the baseline shifts to 9.0 six hours back.
	result, err := newTestForecaster().Forecast(readings, 6, Thresholds{})
	require.NoError(t, err)
	assert.Equal(t, 6, result.ReadingCount)
	assert.InDelta(t, 1.0/6, result.TrendRate, 1e-3)
}

func TestForecast_NonPositiveElapsedSkipsTrend(t *testing.T) {
	readings := hourlyReadings(10, 9, 8, 7, 6, 5)
	readings[5].Time = readings[0].Time

	result, err := newTestForecaster().Forecast(readings, 6, Thresholds{})
	require.NoError(t, err)
	assert.Zero(t, result.TrendRate)
	assert.Equal(t, TrendSteady, result.Direction)
	assert.Equal(t, 10.0, result.PredictedLevel)
}

func TestForecast_Direction(t *testing.T) {
	tests := []struct {
		name     string
		levels   []float64
		expected TrendDirection
	}{
		{"rising", []float64{2.2, 2.1, 2.1, 2.1, 2.1, 2.0}, TrendRising},
		{"falling", []float64{2.0, 2.1, 2.1, 2.1, 2.1, 2.2}, TrendFalling},
		{"steady within cutoff", []float64{2.05, 2.05, 2.0, 2.0, 2.0, 2.0}, TrendSteady},
		{"flat", []float64{2, 2, 2, 2, 2, 2}, TrendSteady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestForecaster().Forecast(hourlyReadings(tt.levels...), 6, Thresholds{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Direction)
		})
	}
}

func TestForecast_Confidence(t *testing.T) {
	tests := []struct {
		count    int
		expected Confidence
	}{
		{5, ConfidenceLow},
		{23, ConfidenceLow},
		{24, ConfidenceMedium},
		{47, ConfidenceMedium},
		{48, ConfidenceHigh},
		{72, ConfidenceHigh},
		{100, ConfidenceHigh},
	}

	for _, tt := range tests {
		result, err := newTestForecaster().Forecast(constantReadings(tt.count, 3), 6, Thresholds{})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result.Confidence, "count %d", tt.count)
		assert.LessOrEqual(t, result.ReadingCount, MaxForecastReadings)
	}
}

func TestForecast_HorizonClamped(t *testing.T) {
	readings := hourlyReadings(10.0, 9.8, 9.6, 9.4, 9.2, 9.0)
	f := newTestForecaster()

	low, err := f.Forecast(readings, 0, Thresholds{})
	require.NoError(t, err)
	assert.Equal(t, MinHorizonHours, low.HorizonHours)

	high, err := f.Forecast(readings, 500, Thresholds{})
	require.NoError(t, err)
	assert.Equal(t, MaxHorizonHours, high.HorizonHours)
	assert.Equal(t, testNow.Add(168*time.Hour), high.PredictedTime)
}

func TestForecast_PredictedNeverNegative(t *testing.T) {
	readings := hourlyReadings(0.5, 1.5, 2.5, 3.5, 4.5, 5.5)

	result, err := newTestForecaster().Forecast(readings, 48, Thresholds{})
	require.NoError(t, err)
	assert.Equal(t, TrendFalling, result.Direction)
	assert.Zero(t, result.PredictedLevel)
}

// The trend term rate*h*e^(-0.02h) peaks at h = 1/0.02 = 50 and then decays,
// so past that point the forecast moves back toward the current level.
func TestForecast_DampingMonotonic(t *testing.T) {
	readings := hourlyReadings(10.0, 9.8, 9.6, 9.4, 9.2, 9.0)
	f := newTestForecaster()

	deviation := func(h int) float64 {
		result, err := f.Forecast(readings, h, Thresholds{})
		require.NoError(t, err)
		return math.Abs(result.PredictedLevel - result.CurrentLevel)
	}

	prev := deviation(1)
	for h := 2; h <= 50; h++ {
		d := deviation(h)
		assert.GreaterOrEqual(t, d, prev, "deviation should grow up to 50h, h=%d", h)
		prev = d
	}
	for h := 51; h <= MaxHorizonHours; h++ {
		d := deviation(h)
		assert.Less(t, d, prev, "deviation should shrink past 50h, h=%d", h)
		prev = d
	}

	for h := MinHorizonHours + 1; h <= MaxHorizonHours; h++ {
		assert.Less(t, Damping(h), Damping(h-1))
	}
}

func TestFloodProbability(t *testing.T) {
	tests := []struct {
		name      string
		predicted float64
		th        Thresholds
		expected  float64
	}{
		{"no thresholds", 12, Thresholds{}, 0},
		{"at alert", 12, Thresholds{Alert: ptr(12), Warning: ptr(10)}, 0.9},
		{"above warning", 11, Thresholds{Alert: ptr(12), Warning: ptr(10)}, 0.6},
		{"below warning ramp", 8, Thresholds{Alert: ptr(12), Warning: ptr(10)}, 0.4},
		{"ramp caps at half", 9.99, Thresholds{Warning: ptr(10)}, 0.4995},
		{"alert only below alert", 11, Thresholds{Alert: ptr(12)}, 0},
		{"alert only at alert", 12.5, Thresholds{Alert: ptr(12)}, 0.9},
		{"zero level", 0, Thresholds{Warning: ptr(10)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, FloodProbability(tt.predicted, tt.th), 1e-9)
		})
	}
}

func TestForecast_RoundsOutputs(t *testing.T) {
	// Rate (10.0-9.0)/6h = 0.1666..., reported as 0.167.
	readings := hourlyReadings(10.0, 9.8, 9.6, 9.4, 9.2, 9.1)
	readings[5].Time = testNow.Add(-6 * time.Hour)
	readings[5].Level = 9.0

	result, err := newTestForecaster().Forecast(readings, 1, Thresholds{Warning: ptr(30)})
	require.NoError(t, err)
	assert.Equal(t, 0.167, result.TrendRate)
	// 10.163.../30*0.5 = 0.1693..., reported as 0.17.
	assert.Equal(t, 0.17, result.FloodProbability)
}

func TestForecast_AlertETA(t *testing.T) {
	readings := hourlyReadings(10.0, 9.8, 9.6, 9.4, 9.2, 9.0)

	result, err := newTestForecaster().Forecast(readings, 6, Thresholds{Alert: ptr(11), Warning: ptr(10.5)})
	require.NoError(t, err)
	require.NotNil(t, result.AlertETA)
	// (11 - 10) / 0.2 per hour = 5 hours from now.
	assert.WithinDuration(t, testNow.Add(5*time.Hour), *result.AlertETA, time.Second)
	assert.Equal(t, 0.9, result.FloodProbability, "predicted 11.06 reaches alert")

	above, err := newTestForecaster().Forecast(readings, 6, Thresholds{Alert: ptr(9)})
	require.NoError(t, err)
	assert.Nil(t, above.AlertETA, "already above alert")
	assert.Equal(t, 0.9, above.FloodProbability)

	falling, err := newTestForecaster().Forecast(hourlyReadings(9.0, 9.2, 9.4, 9.6, 9.8, 10.0), 6, Thresholds{Alert: ptr(11)})
	require.NoError(t, err)
	assert.Nil(t, falling.AlertETA, "falling trend never reaches alert")
}
