package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	logginginfra "github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

func TestLoggingPublisherIncludesCorrelationID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger, err := logginginfra.New(logginginfra.Options{
		Writer:    buf,
		Level:     "debug",
		Layer:     "test",
		Component: "publisher",
		Format:    "json",
	})
	require.NoError(t, err)

	publisher := NewLoggingPublisher(logger)

	ctx := ports.WithCorrelationID(context.Background(), "abc-123")
	err = publisher.Publish(ctx, NewEvent(ports.EventThemeApplied, "palette_id", "ocean", "dark", true))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "domain event", entry["msg"])
	require.Equal(t, ports.EventThemeApplied, entry["event_type"])
	require.Equal(t, "abc-123", entry["correlation_id"])
	require.Equal(t, "ocean", entry["palette_id"])
}

func TestLoggingPublisherInvokesSubscribers(t *testing.T) {
	t.Parallel()

	publisher := NewLoggingPublisher(logginginfra.NewNoOpLogger())

	var handled []string
	_, err := publisher.Subscribe(ports.EventThemeCommitted, func(ctx context.Context, event ports.DomainEvent) error {
		payload := event.Payload().(map[string]interface{})
		handled = append(handled, payload["palette_id"].(string))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), NewEvent(ports.EventThemeCommitted, "palette_id", "forest")))
	require.NoError(t, publisher.Publish(context.Background(), NewEvent(ports.EventThemeApplied, "palette_id", "ignored")))
	require.Equal(t, []string{"forest"}, handled)
}

func TestLoggingPublisherUnsubscribe(t *testing.T) {
	t.Parallel()

	publisher := NewLoggingPublisher(nil)

	calls := 0
	sub, err := publisher.Subscribe(ports.EventThemeApplied, func(context.Context, ports.DomainEvent) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), NewEvent(ports.EventThemeApplied)))
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, publisher.Publish(context.Background(), NewEvent(ports.EventThemeApplied)))
	require.Equal(t, 1, calls)
}

func TestLoggingPublisherSurvivesFailingHandlers(t *testing.T) {
	t.Parallel()

	recorder := logginginfra.NewRecorder(0)
	publisher := NewLoggingPublisher(recorder.Logger())

	reached := false
	_, _ = publisher.Subscribe(ports.EventStorageFailed, func(context.Context, ports.DomainEvent) error {
		panic("boom")
	})
	_, _ = publisher.Subscribe(ports.EventStorageFailed, func(context.Context, ports.DomainEvent) error {
		return errors.New("nope")
	})
	_, _ = publisher.Subscribe(ports.EventStorageFailed, func(context.Context, ports.DomainEvent) error {
		reached = true
		return nil
	})

	require.NoError(t, publisher.Publish(context.Background(), NewEvent(ports.EventStorageFailed)))
	require.True(t, reached)
	require.Equal(t, 2, recorder.Count(logginginfra.LevelWarn))
}
