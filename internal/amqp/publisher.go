package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBufferSize is how many events may wait for the broker
	DefaultBufferSize = 256
	publishTimeout    = 5 * time.Second
)

// channel is the part of *amqp091.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Envelope is the message body: the event plus the owner it belongs to
type Envelope struct {
	OwnerID int32 `json:"ownerId"`
	websocket.Event
}

type message struct {
	key       string
	body      []byte
	timestamp time.Time
}

// Publisher forwards domain events to a RabbitMQ topic exchange, routed by
// event type (e.g. "financing.payment_applied"). Publish never blocks: events
// are queued and sent by a background worker, and dropped when the queue is full.
type Publisher struct {
	conn     io.Closer
	channel  channel
	exchange string

	mu      sync.RWMutex
	closed  bool
	queue   chan message
	done    chan struct{}
	dropped atomic.Int64
}

var _ websocket.EventPublisher = (*Publisher)(nil)

// NewPublisher dials the broker, declares the exchange and starts the worker
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange, DefaultBufferSize)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	p.start()

	log.Info().Str("exchange", exchange).Msg("AMQP publisher connected")
	return p, nil
}

func newPublisher(ch channel, exchange string, buffer int) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		queue:    make(chan message, buffer),
		done:     make(chan struct{}),
	}, nil
}

func (p *Publisher) start() {
	go p.run()
}

// Publish implements websocket.EventPublisher
func (p *Publisher) Publish(ownerID int32, event websocket.Event) {
	body, err := json.Marshal(Envelope{OwnerID: ownerID, Event: event})
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event for broker")
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- message{key: event.Type, body: body, timestamp: event.Timestamp}:
	default:
		p.dropped.Add(1)
		log.Warn().Int32("owner_id", ownerID).Str("type", event.Type).Msg("Broker queue full, event dropped")
	}
}

// Dropped returns how many events were discarded because the queue was full
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) run() {
	defer close(p.done)

	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.channel.PublishWithContext(
			ctx,
			p.exchange, // exchange
			msg.key,    // routing key
			false,      // mandatory
			false,      // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Timestamp:    msg.timestamp,
				Body:         msg.body,
			},
		)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("exchange", p.exchange).Str("routing_key", msg.key).Msg("Failed to publish event")
		}
	}
}

// Close stops accepting events, flushes the queue and closes the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done

	if err := p.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close AMQP channel")
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
