package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads the event queue with auto-ack. Deliveries is closed when
// the connection drops.
type Consumer struct {
	s          *session
	Deliveries <-chan amqp.Delivery
}

func NewConsumer(uri, queue, tag string, prefetch int) (*Consumer, error) {
	s, err := openSession(uri, queue)
	if err != nil {
		return nil, err
	}
	if prefetch > 0 {
		if err := s.ch.Qos(prefetch, 0, false); err != nil {
			_ = s.close()
			return nil, fmt.Errorf("amqp qos: %w", err)
		}
	}
	deliveries, err := s.ch.Consume(queue, tag, true, false, false, false, nil)
	if err != nil {
		_ = s.close()
		return nil, fmt.Errorf("consume %q: %w", queue, err)
	}
	return &Consumer{s: s, Deliveries: deliveries}, nil
}

func (c *Consumer) Close() error { return c.s.close() }
