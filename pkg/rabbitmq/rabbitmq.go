package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/logger"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ErrClosed is returned when the client has no usable channel.
var ErrClosed = errors.New("rabbitmq channel is not available")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	// amqp channels are not safe for concurrent publishing
	mu       sync.Mutex
	declared map[string]bool
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and opens a channel.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.L().Info("rabbitmq client connected")
	return &Client{
		conn:     conn,
		channel:  ch,
		declared: make(map[string]bool),
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// declareExchange declares a durable topic exchange once per client.
// Callers must hold mu.
func (c *Client) declareExchange(name string) error {
	if c.declared[name] {
		return nil
	}
	err := c.channel.ExchangeDeclare(
		name,    // name
		"topic", // kind
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	c.declared[name] = true
	return nil
}

// Publish sends a persistent JSON message to a topic exchange. A done ctx
// stops the publish before it reaches the channel.
func (c *Client) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return ErrClosed
	}
	if err := c.declareExchange(exchange); err != nil {
		return err
	}

	err := c.channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.L().Debug("event published",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
	)
	return nil
}

// Subscription names the queue a consumer reads and how it is bound.
type Subscription struct {
	Exchange   string
	Queue      string
	BindingKey string
}

// Consume binds a durable queue to the exchange and hands every delivery to
// handler until ctx is done or the channel closes.
func (c *Client) Consume(ctx context.Context, sub Subscription, handler func(msg amqp.Delivery) error) error {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.declareExchange(sub.Exchange)
	if err == nil {
		err = c.bind(sub)
	}
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = c.channel.Consume(
			sub.Queue, // queue
			"",        // consumer tag
			false,     // auto-ack
			false,     // exclusive
			false,     // no-local
			false,     // no-wait
			nil,       // args
		)
		if err != nil {
			err = fmt.Errorf("failed to register consumer: %w", err)
		}
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	logger.L().Info("waiting for events",
		zap.String("queue", sub.Queue),
		zap.String("binding_key", sub.BindingKey),
	)
	go dispatch(ctx, msgs, handler)
	return nil
}

// bind declares the queue and binds it. Callers must hold mu.
func (c *Client) bind(sub Subscription) error {
	queue, err := c.channel.QueueDeclare(
		sub.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", sub.Queue, err)
	}
	if err := c.channel.QueueBind(queue.Name, sub.BindingKey, sub.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", sub.Queue, err)
	}
	return nil
}

// dispatch acks handled messages. A failed message is requeued once and
// dropped when it fails again on redelivery.
func dispatch(ctx context.Context, msgs <-chan amqp.Delivery, handler func(msg amqp.Delivery) error) {
	log := logger.L()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				return
			}
			if err := handler(msg); err != nil {
				requeue := !msg.Redelivered
				log.Warn("failed to process message",
					zap.Uint64("delivery_tag", msg.DeliveryTag),
					zap.Bool("requeue", requeue),
					zap.Error(err),
				)
				if nackErr := msg.Nack(false, requeue); nackErr != nil {
					log.Error("failed to nack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Error("failed to ack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
			}
		}
	}
}
