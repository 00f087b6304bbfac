//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkaadapter "github.com/couchcryptid/fuelplan-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fuelplan-etl/internal/adapter/sheet"
	"github.com/couchcryptid/fuelplan-etl/internal/config"
	"github.com/couchcryptid/fuelplan-etl/internal/domain"
	"github.com/couchcryptid/fuelplan-etl/internal/observability"
	"github.com/couchcryptid/fuelplan-etl/internal/pipeline"
	"github.com/couchcryptid/fuelplan-etl/internal/report"
	"github.com/couchcryptid/fuelplan-etl/internal/source"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-site-fuel-plan"

const snapshotCSV = "Site Name,City,Status,Next Fueling Plan,Lat,Lng\n" +
	"RYD-001,Central,ON-AIR,16/03/2025,24.71,46.67\n" +
	"RYD-002,Central,IN PROGRESS,15/03/2025,24.80,46.70\n" +
	"RYD-003,Central,ON-AIR,17/03/2025,,\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("fuelplan-test"))
	testcontainers.CleanupContainer(t, kc)
	require.NoError(t, err, "start kafka container")

	brokers, err := kc.Brokers(ctx)
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

	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

type publishedMessage struct {
	Entry   report.FeedEntry
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from feed topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var entry report.FeedEntry
	require.NoError(t, json.Unmarshal(msg.Value, &entry))
	return publishedMessage{Entry: entry, Key: string(msg.Key), Headers: headers}
}

// TestPipelinePublishesFeed runs a full pass from a cached snapshot to real
// Kafka and checks the published messages against data.json.
func TestPipelinePublishesFeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	cachePath := filepath.Join(dir, "sheet_cache.csv")
	require.NoError(t, os.WriteFile(cachePath, []byte(snapshotCSV), 0o644))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	runAt := time.Date(2025, time.March, 16, 6, 0, 0, 0, time.UTC)
	outDir := filepath.Join(dir, "out")
	p := pipeline.New(
		source.NewLoader(nil, sheet.NewFileCache(cachePath), false, discardLogger()),
		report.NewEmitter(outDir, discardLogger()),
		domain.FilterConfig{TargetRegion: domain.DefaultTargetRegion, AllowedStatuses: domain.DefaultAllowedStatuses},
		discardLogger(),
		observability.NewMetrics(),
		pipeline.WithClock(clockwork.NewFakeClockAt(runAt)),
		pipeline.WithPublisher(writer),
	)

	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.True(t, res.Published)
	assert.Equal(t, source.OriginCache, res.Origin)
	require.Len(t, res.Summary.Feed, 2)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-feed-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := map[string]publishedMessage{}
	for len(got) < len(res.Summary.Feed) {
		m := readPublished(ctx, t, consumer)
		got[m.Key] = m
	}

	for _, want := range res.Summary.Feed {
		m, ok := got[want.SiteName]
		require.True(t, ok, "missing message for %s", want.SiteName)
		assert.Equal(t, want, m.Entry)
		assert.Equal(t, want.NextFuelingPlan, m.Headers["fuel_date"])
		assert.Equal(t, runAt.Format(time.RFC3339), m.Headers["generated_at"])
	}
}
