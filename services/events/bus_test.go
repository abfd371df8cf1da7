package events_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/services/events"
	testutil "github.com/trezcool/skillfolio/tests"
)

func TestBus(t *testing.T) {
	cfg := events.DefaultBusConfig()
	cfg.InitialInterval = time.Millisecond
	bus, err := events.NewBus(cfg, testutil.NopLogger{})
	require.NoError(t, err)

	received := make(chan core.Event, 10)
	var failures int32
	bus.Subscribe("test.flaky", core.EventGoalCompleted, func(_ context.Context, evt core.Event) error {
		if atomic.AddInt32(&failures, 1) <= 2 {
			return errors.New("try again")
		}
		received <- evt
		return nil
	})
	bus.Subscribe("test.broken", core.EventGoalCompleted, func(context.Context, core.Event) error {
		return errors.New("always failing")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bus.Run(ctx) }()
	<-bus.Running()
	defer func() { assert.NoError(t, bus.Close()) }()

	evt := core.NewEvent(core.EventGoalCompleted, "u1", "g1", 0, map[string]string{"title": "Learn Go"})
	require.NoError(t, bus.Publish(ctx, evt))

	select {
	case got := <-received:
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "g1", got.SubjectID)
		assert.Equal(t, "Learn Go", got.Attr("title"))
		assert.Equal(t, int32(3), atomic.LoadInt32(&failures))
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSyncBus(t *testing.T) {
	bus := events.NewSyncBus(testutil.NopLogger{})

	var got []string
	bus.Subscribe("a", core.EventLevelUp, func(_ context.Context, evt core.Event) error {
		got = append(got, "a:"+evt.UserID)
		// handlers may publish in turn
		return bus.Publish(context.Background(), core.NewEvent(core.EventBadgeAwarded, evt.UserID, "b1", 0, nil))
	})
	bus.Subscribe("b", core.EventBadgeAwarded, func(_ context.Context, evt core.Event) error {
		got = append(got, "b:"+evt.SubjectID)
		return errors.New("boom")
	})

	err := bus.Publish(context.Background(), core.NewEvent(core.EventLevelUp, "u1", "u1", 2, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"a:u1", "b:b1"}, got)

	assert.NoError(t, bus.Publish(context.Background(), core.NewEvent(core.EventPostCreated, "u1", "p1", 0, nil)))
}
