package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

const moduleName = "internal/platform/messaging"

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("event bus closed")

// Kafka is the event bus adapter used by the outbox relay and projectors.
// Delivery is in-process: each subscription owns a buffered channel drained by
// one goroutine, so events on a topic reach a consumer in publish order.
// Publish waits for room in every subscriber's buffer and fails with the
// context error instead of dropping, so the relay retries the row.
type Kafka struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscription
	brokers     []string
	bufferSize  int
	closed      bool
	wg          sync.WaitGroup
	logger      *slog.Logger
}

type subscription struct {
	consumerGroup string
	ch            chan ports.EventEnvelope
	done          chan struct{}
	once          sync.Once
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			cleaned = append(cleaned, broker)
		}
	}
	return &Kafka{
		subscribers: make(map[string][]*subscription),
		brokers:     cleaned,
		bufferSize:  128,
		logger:      logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	k.mu.RLock()
	if k.closed {
		k.mu.RUnlock()
		return ErrClosed
	}
	subs := append([]*subscription(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-sub.done:
		case sub.ch <- event:
		case <-ctx.Done():
			k.logger.Warn("publish abandoned on full subscriber",
				"event", "kafka_publish_blocked",
				"module", moduleName,
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.consumerGroup,
				"event_id", event.EventID,
				"error", ctx.Err().Error(),
			)
			return ctx.Err()
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", moduleName,
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe starts a consumer goroutine that runs until ctx is done or the bus
// is closed. Handler errors are logged and do not stop the consumer.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if handler == nil {
		return errors.New("subscribe handler is required")
	}
	sub := &subscription{
		consumerGroup: consumerGroup,
		ch:            make(chan ports.EventEnvelope, k.bufferSize),
		done:          make(chan struct{}),
	}

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return ErrClosed
	}
	k.subscribers[topic] = append(k.subscribers[topic], sub)
	k.wg.Add(1)
	k.mu.Unlock()

	go func() {
		defer k.wg.Done()
		defer k.removeSubscriber(topic, sub)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", moduleName,
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Close stops every consumer and waits for their goroutines to exit.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	var all []*subscription
	for _, subs := range k.subscribers {
		all = append(all, subs...)
	}
	k.mu.Unlock()

	for _, sub := range all {
		sub.once.Do(func() { close(sub.done) })
	}
	k.wg.Wait()
	return nil
}

func (k *Kafka) removeSubscriber(topic string, target *subscription) {
	target.once.Do(func() { close(target.done) })

	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]*subscription, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}

var _ ports.EventPublisher = (*Kafka)(nil)
var _ ports.EventSubscriber = (*Kafka)(nil)
