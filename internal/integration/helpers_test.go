//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the lifetime of the test and
// returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("flood-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

var testNow = time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC)

type staticReadings map[string][]domain.GaugeReading

func (s staticReadings) RecentReadings(_ context.Context, gaugeID string, _ time.Time, limit int) ([]domain.GaugeReading, error) {
	r := s[gaugeID]
	if len(r) > limit {
		r = r[:limit]
	}
	return r, nil
}

type staticThresholds map[string]domain.Thresholds

func (s staticThresholds) Thresholds(_ context.Context, gaugeID string) (domain.Thresholds, error) {
	return s[gaugeID], nil
}

func testZones() *domain.ZoneTable {
	return domain.NewZoneTable([]domain.ZoneProfile{
		{ID: "zone-riverside", Name: "Riverside", RiverProximity: 1.0, ElevationRisk: 0.8, PopulationDensity: 0.9, CriticalInfrastructureScore: 0.6, HospitalCount: 2},
		{ID: "zone-hillside", Name: "Hillside", RiverProximity: 0.1, ElevationRisk: 0.2, PopulationDensity: 0.4},
	})
}

// risingReadings returns seven good readings climbing 0.2 per hour to 10.0 at
// testNow, most recent first.
func risingReadings() []domain.GaugeReading {
	readings := make([]domain.GaugeReading, 0, 7)
	for i := range 7 {
		readings = append(readings, domain.GaugeReading{
			Time:    testNow.Add(-time.Duration(i) * time.Hour),
			Level:   10.0 - 0.2*float64(i),
			Quality: domain.QualityGood,
		})
	}
	return readings
}
