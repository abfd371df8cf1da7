// Package events carries the domain events between services.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

// Bus is an in-process core.EventBus over a watermill go channel pub/sub.
// Handlers run asynchronously; failed handlers are retried, then dropped and logged.
type Bus struct {
	pubSub   *gochannel.GoChannel
	router   *message.Router
	logger   core.Logger
	closeMux sync.Mutex
	closed   bool
}

var _ core.EventBus = (*Bus)(nil) // interface compliance check

type BusConfig struct {
	CloseTimeout    time.Duration
	MaxRetries      int
	InitialInterval time.Duration
	BufferSize      int64
}

func DefaultBusConfig() BusConfig {
	return BusConfig{
		CloseTimeout:    10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		BufferSize:      256,
	}
}

func NewBus(cfg BusConfig, logger core.Logger) (*Bus, error) {
	wmLogger := NewLoggerAdapter(logger)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, errors.Wrap(err, "creating events router")
	}
	retry := middleware.Retry{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     10 * cfg.InitialInterval,
		Multiplier:      2,
		Logger:          wmLogger,
	}
	router.AddMiddleware(dropFailed(logger), middleware.Recoverer, retry.Middleware)

	return &Bus{pubSub: pubSub, router: router, logger: logger}, nil
}

// dropFailed logs and acks the messages whose handler failed after all the retries,
// so one broken handler never blocks a topic.
func dropFailed(logger core.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := h(msg)
			if err != nil {
				logger.Error("dropping event "+msg.UUID+" after failures: "+err.Error(), err)
				return nil, nil
			}
			return msgs, nil
		}
	}
}

func (b *Bus) Publish(_ context.Context, evts ...core.Event) error {
	for _, evt := range evts {
		if evt.ID == "" {
			evt.ID = watermill.NewUUID()
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return errors.Wrapf(err, "encoding %s event", evt.Type)
		}
		if err := b.pubSub.Publish(evt.Type, message.NewMessage(evt.ID, payload)); err != nil {
			return errors.Wrapf(err, "publishing %s event", evt.Type)
		}
	}
	return nil
}

func (b *Bus) Subscribe(name, topic string, h core.EventHandler) {
	b.router.AddConsumerHandler(name, topic, b.pubSub, func(msg *message.Message) error {
		var evt core.Event
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			// not retryable
			b.logger.Error("decoding event "+msg.UUID+": "+err.Error(), err)
			return nil
		}
		return h(msg.Context(), evt)
	})
}

// Run starts the handlers and blocks until ctx is done or the bus is closed.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	b.closeMux.Lock()
	defer b.closeMux.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.router.Close(); err != nil {
		return errors.Wrap(err, "closing events router")
	}
	return errors.Wrap(b.pubSub.Close(), "closing pub/sub")
}
