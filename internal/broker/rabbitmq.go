package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 2 * time.Second

// session é a conexão + canal com a fila de eventos já declarada.
type session struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func openSession(uri, queue string) (*session, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	s := &session{conn: conn, ch: ch, queue: queue}
	if err := DeclareQueue(ch, queue); err != nil {
		_ = s.close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}
	return s, nil
}

func (s *session) close() error {
	var errCh, errConn error
	if s.ch != nil {
		errCh = s.ch.Close()
	}
	if s.conn != nil {
		errConn = s.conn.Close()
	}
	return errors.Join(errCh, errConn)
}

// DeclareQueue declara a fila durável compartilhada pelo api e pelo ws.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

// Publisher sends record events (cadastro, edição, exclusão) to the queue.
type Publisher struct {
	s   *session
	now func() time.Time
}

func NewPublisher(uri, queue string) (*Publisher, error) {
	s, err := openSession(uri, queue)
	if err != nil {
		return nil, err
	}
	return &Publisher{s: s, now: time.Now}, nil
}

func (p *Publisher) Publish(ctx context.Context, body string, headers amqp.Table) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishTimeout)
		defer cancel()
	}
	msg := amqp.Publishing{
		MessageId:    uuid.NewString(),
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         []byte(body),
		Headers:      headers,
	}
	// exchange padrão: a routing key é o nome da fila
	return p.s.ch.PublishWithContext(ctx, "", p.s.queue, false, false, msg)
}

func (p *Publisher) Close() error { return p.s.close() }
