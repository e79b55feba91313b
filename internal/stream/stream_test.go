package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/switchyard-systems/switchyard/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testEvent() types.RouteChangeEvent {
	return types.RouteChangeEvent{
		ID:     "01HTESTEVENT",
		Action: types.RouteSwitched,
		RouteKey: types.RouteKey{
			Kind:    types.KindObjectStore,
			Tenant:  "t1",
			Env:     "dev",
			Project: types.ProjectAny,
			Surface: "canvas",
		},
		OldBackendType: "filesystem",
		NewBackendType: "s3",
		Rationale:      "filesystem latency too high under load",
		Actor:          "ops",
		Timestamp:      time.Now().UTC(),
	}
}

func TestChannelSink_SubscribeAndPublish(t *testing.T) {
	sink := NewChannelSink(4)
	defer func() { _ = sink.Close() }()
	assert.Equal(t, "channel", sink.Name())

	ch, cancel := sink.Subscribe()
	defer cancel()

	event := testEvent()
	require.NoError(t, sink.Publish(context.Background(), event))

	select {
	case got := <-ch:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, event.NewBackendType, got.NewBackendType)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestChannelSink_DropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	defer func() { _ = sink.Close() }()

	_, cancel := sink.Subscribe()
	defer cancel()

	ctx := context.Background()
	require.NoError(t, sink.Publish(ctx, testEvent()))
	require.NoError(t, sink.Publish(ctx, testEvent()))

	assert.Equal(t, 1, sink.Dropped())
}

func TestChannelSink_CancelUnsubscribes(t *testing.T) {
	sink := NewChannelSink(4)
	defer func() { _ = sink.Close() }()

	ch, cancel := sink.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	require.NoError(t, sink.Publish(context.Background(), testEvent()))
	assert.Equal(t, 0, sink.Dropped())
}

func TestChannelSink_CloseClosesSubscribers(t *testing.T) {
	sink := NewChannelSink(4)
	ch, _ := sink.Subscribe()

	require.NoError(t, sink.Close())
	_, open := <-ch
	assert.False(t, open)

	// Subscribing after close returns a closed channel.
	ch2, cancel := sink.Subscribe()
	defer cancel()
	_, open = <-ch2
	assert.False(t, open)
}

func TestWebhookSink_Publish_Success(t *testing.T) {
	var received []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		received = buf[:n]
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL)
	event := testEvent()

	err := sink.Publish(context.Background(), event)
	require.NoError(t, err)

	var got types.RouteChangeEvent
	require.NoError(t, json.Unmarshal(received, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Rationale, got.Rationale)
}

func TestWebhookSink_Publish_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	sink := NewWebhookSink(ts.URL)

	err := sink.Publish(context.Background(), testEvent())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &sns.PublishOutput{}, nil
}

func TestSNSSink_Publish(t *testing.T) {
	fake := &fakeSNS{}
	sink, err := NewSNSSink("arn:aws:sns:us-east-1:123456789012:route-changes", WithSNSClient(fake))
	require.NoError(t, err)
	assert.Equal(t, "sns", sink.Name())

	event := testEvent()
	require.NoError(t, sink.Publish(context.Background(), event))

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:route-changes", *fake.inputs[0].TopicArn)
	assert.Contains(t, *fake.inputs[0].Subject, "ROUTE_SWITCHED")

	var got types.RouteChangeEvent
	require.NoError(t, json.Unmarshal([]byte(*fake.inputs[0].Message), &got))
	assert.Equal(t, event.ID, got.ID)
}

func TestNewSNSSink_RequiresTopic(t *testing.T) {
	_, err := NewSNSSink("")
	assert.Error(t, err)
}

type failSink struct{ calls int }

func (f *failSink) Publish(context.Context, types.RouteChangeEvent) error {
	f.calls++
	return assert.AnError
}
func (f *failSink) Name() string { return "fail" }

func TestDispatcher_BestEffortFanout(t *testing.T) {
	channel := NewChannelSink(4)
	defer func() { _ = channel.Close() }()
	failing := &failSink{}

	d, err := NewDispatcher(nil, slog.Default())
	require.NoError(t, err)
	d.AddSink(failing)
	d.AddSink(channel)

	ch, cancel := channel.Subscribe()
	defer cancel()

	// The failing sink must not prevent delivery to the healthy one.
	d.Publish(context.Background(), testEvent())

	assert.Equal(t, 1, failing.calls)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("event not delivered past failing sink")
	}
}

func TestNewDispatcher_FromConfig(t *testing.T) {
	d, err := NewDispatcher([]types.StreamSinkConfig{
		{Type: types.SinkChannel, Buffer: 8},
	}, nil)
	require.NoError(t, err)
	require.Len(t, d.sinks, 1)
	defer func() { _ = d.Close() }()

	_, err = NewDispatcher([]types.StreamSinkConfig{{Type: "kafka"}}, nil)
	assert.Error(t, err)

	_, err = NewDispatcher([]types.StreamSinkConfig{{Type: types.SinkWebhook}}, nil)
	assert.Error(t, err)
}
