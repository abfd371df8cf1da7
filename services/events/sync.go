package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

// SyncBus runs the handlers of an event before Publish returns. Used by tests and the admin CLI.
type SyncBus struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	logger   core.Logger
}

type namedHandler struct {
	name string
	h    core.EventHandler
}

var _ core.EventBus = (*SyncBus)(nil) // interface compliance check

func NewSyncBus(logger core.Logger) *SyncBus {
	return &SyncBus{handlers: make(map[string][]namedHandler), logger: logger}
}

func (b *SyncBus) Subscribe(name, topic string, h core.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], namedHandler{name: name, h: h})
}

// Publish runs every handler of every event. Handler errors are logged, the first one is returned.
func (b *SyncBus) Publish(ctx context.Context, evts ...core.Event) error {
	var first error
	for _, evt := range evts {
		if evt.ID == "" {
			evt.ID = uuid.New().String()
		}
		b.mu.RLock()
		handlers := append([]namedHandler(nil), b.handlers[evt.Type]...)
		b.mu.RUnlock()

		for _, nh := range handlers {
			if err := nh.h(ctx, evt); err != nil {
				err = errors.Wrapf(err, "handler %s", nh.name)
				if b.logger != nil {
					b.logger.Error(err.Error(), err)
				}
				if first == nil {
					first = err
				}
			}
		}
	}
	return first
}
