package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andrelan/f1-telemetry-relay/internal/broker"
	"github.com/andrelan/f1-telemetry-relay/internal/livetiming"
	"github.com/andrelan/f1-telemetry-relay/internal/topics"
)

// MockSender mocks the producer client

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(topic, key string, value any) error {
	args := m.Called(topic, key, value)
	return args.Error(0)
}

func (m *MockSender) Close() {
	m.Called()
}

// scriptedClient pushes a fixed batch sequence through the handler and
// then returns, imitating a session that ends upstream.
type scriptedClient struct {
	topics  []string
	batches []livetiming.Batch
	runErr  error
	handler livetiming.BatchHandler
}

func (c *scriptedClient) OnBatch(handler livetiming.BatchHandler) {
	c.handler = handler
}

func (c *scriptedClient) Run(ctx context.Context) error {
	for _, batch := range c.batches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.handler(batch)
	}
	return c.runErr
}

func (c *scriptedClient) Topics() []string {
	return c.topics
}

func waitStopped(t *testing.T, r *Relay) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop in time")
		return nil
	}
}

func TestRelay_EndToEnd(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	client := &scriptedClient{
		topics: registry.Topics(),
		batches: []livetiming.Batch{
			{"CarData.z": {livetiming.NewFieldsRecord(map[string]any{"DriverNo": "44", "drs": 12})}},
		},
	}

	sender.On("Send", "f1-cardata", "44", mock.Anything).Return(nil)
	sender.On("Close").Return()

	r := New(registry, sender, client, Config{})
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, waitStopped(t, r))

	sender.AssertCalled(t, "Send", "f1-cardata", "44", mock.Anything)
	sender.AssertCalled(t, "Close")

	// The payload sent to the broker is the record itself
	record := sender.Calls[0].Arguments.Get(2).(livetiming.Record)
	drs, ok := record.Field("drs")
	require.True(t, ok)
	assert.Equal(t, 12, drs)
}

func TestRelay_PerRecordFailureIsolation(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	client := &scriptedClient{
		batches: []livetiming.Batch{
			{"CarData.z": {
				livetiming.NewFieldsRecord(map[string]any{"DriverNo": "1"}),
				livetiming.NewFieldsRecord(map[string]any{"DriverNo": "16"}),
				livetiming.NewFieldsRecord(map[string]any{"DriverNo": "44"}),
			}},
		},
	}

	deliveryErr := &broker.DeliveryError{Topic: "f1-cardata", Err: broker.ErrTimeout}
	sender.On("Send", "f1-cardata", "1", mock.Anything).Return(nil)
	sender.On("Send", "f1-cardata", "16", mock.Anything).Return(deliveryErr)
	sender.On("Send", "f1-cardata", "44", mock.Anything).Return(nil)
	sender.On("Close").Return()

	r := New(registry, sender, client, Config{})
	require.NoError(t, r.Start(context.Background()))

	// A failing record never escapes batch processing
	require.NoError(t, waitStopped(t, r))

	// All three sends were attempted, in order
	sender.AssertNumberOfCalls(t, "Send", 3)
	sender.AssertCalled(t, "Send", "f1-cardata", "44", mock.Anything)
}

func TestRelay_ClosesProducerOnUpstreamError(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	upstreamErr := errors.New("live timing stream lost")
	client := &scriptedClient{
		batches: []livetiming.Batch{
			{"TrackStatus": {livetiming.NewFieldsRecord(map[string]any{"Status": "1"})}},
		},
		runErr: upstreamErr,
	}

	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sender.On("Close").Return()

	r := New(registry, sender, client, Config{})
	require.NoError(t, r.Start(context.Background()))

	// Wait surfaces the upstream error; the producer is still closed
	err := waitStopped(t, r)
	assert.ErrorIs(t, err, upstreamErr)
	sender.AssertCalled(t, "Close")
}

func TestRelay_StaticAndDerivedKeys(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	client := &scriptedClient{
		batches: []livetiming.Batch{
			{"SessionStatus": {livetiming.NewFieldsRecord(map[string]any{"Status": "Started"})}},
			{"CustomTopic": {livetiming.NewFieldsRecord(map[string]any{"x": "y"})}},
		},
	}

	sender.On("Send", "f1-sessionstatus", "session-status", mock.Anything).Return(nil)
	sender.On("Send", "f1-customtopic", "f1-customtopic", mock.Anything).Return(nil)
	sender.On("Close").Return()

	r := New(registry, sender, client, Config{})
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, waitStopped(t, r))

	sender.AssertExpectations(t)
}

func TestRelay_StopIdempotent(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	sender.On("Close").Return()
	client := &scriptedClient{}

	r := New(registry, sender, client, Config{})
	require.NoError(t, r.Start(context.Background()))

	r.Stop()
	r.Stop()
	require.NoError(t, waitStopped(t, r))

	sender.AssertNumberOfCalls(t, "Close", 1)
}

func TestRelay_StartOnlyOnce(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	sender.On("Close").Return()
	client := &scriptedClient{}

	r := New(registry, sender, client, Config{})
	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))
	require.NoError(t, waitStopped(t, r))
}

func TestRelay_ContextCancellationStops(t *testing.T) {
	registry := topics.NewRegistry(nil)
	sender := &MockSender{}
	sender.On("Close").Return()

	// A client that blocks until canceled, like the real blocking run()
	client := &blockingClient{}

	r := New(registry, sender, client, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))

	cancel()
	require.NoError(t, waitStopped(t, r))
	sender.AssertCalled(t, "Close")
}

type blockingClient struct {
	handler livetiming.BatchHandler
}

func (c *blockingClient) OnBatch(handler livetiming.BatchHandler) { c.handler = handler }

func (c *blockingClient) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *blockingClient) Topics() []string { return nil }
