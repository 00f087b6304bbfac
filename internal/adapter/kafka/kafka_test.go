package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/fuelplan-etl/internal/config"
	"github.com/couchcryptid/fuelplan-etl/internal/report"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	calls  int
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func ptr[T any](v T) *T { return &v }

var generatedAt = time.Date(2025, 3, 16, 6, 0, 0, 0, time.UTC)

func testEntry(site string) report.FeedEntry {
	return report.FeedEntry{
		SiteName:        site,
		CityName:        "Central",
		NextFuelingPlan: "2025-03-16",
		Lat:             ptr(24.7),
		Lng:             ptr(46.6),
	}
}

func testWriter(w messageWriter) *Writer {
	return &Writer{writer: w, topic: "site-fuel-plan", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testEntry("RYD-001"), generatedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("RYD-001"), msg.Key)
	assert.JSONEq(t, `{"SiteName":"RYD-001","CityName":"Central","NextFuelingPlan":"2025-03-16","lat":24.7,"lng":46.6}`, string(msg.Value))
	assert.Equal(t, generatedAt, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "fuel_date", msg.Headers[0].Key)
	assert.Equal(t, []byte("2025-03-16"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-03-16T06:00:00Z"), msg.Headers[1].Value)
}

func TestSerializeToMessage_GeneratedAtIsUTC(t *testing.T) {
	local := generatedAt.In(time.FixedZone("AST", 3*60*60))

	msg, err := serializeToMessage(testEntry("x"), local)
	require.NoError(t, err)
	assert.Equal(t, []byte("2025-03-16T06:00:00Z"), msg.Headers[1].Value)
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := testWriter(fw)

	require.NoError(t, w.Publish(context.Background(), []report.FeedEntry{testEntry("a"), testEntry("b")}, generatedAt))

	assert.Equal(t, 1, fw.calls, "one batch per run")
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("a"), fw.msgs[0].Key)
	assert.Equal(t, []byte("b"), fw.msgs[1].Key)
}

func TestWriter_PublishEmpty(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, testWriter(fw).Publish(context.Background(), nil, generatedAt))
	assert.Equal(t, 0, fw.calls)
}

func TestWriter_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}

	err := testWriter(fw).Publish(context.Background(), []report.FeedEntry{testEntry("a")}, generatedAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site-fuel-plan")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, testWriter(fw).Close())
	assert.True(t, fw.closed)
}

func TestNewWriter_UsesConfig(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker1:9092"}, KafkaTopic: "feed"}

	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "feed", kw.Topic)
	assert.Equal(t, "broker1:9092", kw.Addr.String())
}
