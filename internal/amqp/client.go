package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes tracker messages on one direct exchange.
// Export jobs go to a durable shared queue; change notices go to a private
// queue per process.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	origin       string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
	reconnecting int32
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		origin:       uuid.NewString(),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// Origin identifies this process in the change notices it publishes.
func (c *Client) Origin() string {
	return c.origin
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name for direct delivery
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishExportJob enqueues a month report export.
func (c *Client) PublishExportJob(ctx context.Context, ownerID, month string) error {
	body, err := NewExportJob(ownerID, month).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal export job: %w", err)
	}
	if err := c.publish(ctx, c.queueName, body, amqp091.Persistent); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published export job",
		"owner_id", ownerID,
		"month", month,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishChange tells other processes that ownerID's transactions changed.
func (c *Client) PublishChange(ctx context.Context, ownerID string) error {
	body, err := NewChangeNotice(ownerID, c.origin).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal change notice: %w", err)
	}
	if err := c.publish(ctx, ChangeRoutingKey, body, amqp091.Transient); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Published change notice", "owner_id", ownerID)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte, mode uint8) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish: %w", ErrCircuitOpen)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	ch := c.channel
	var err error
	if ch == nil {
		err = errors.New("connection closed")
	} else {
		err = ch.PublishWithContext(
			ctx,
			c.exchangeName, // exchange
			routingKey,     // routing key
			false,          // mandatory
			false,          // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: mode,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
	}
	c.mu.Unlock()

	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			go c.reconnect()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

// reconnect retries the connection with exponential backoff until it
// succeeds or maxFailures attempts have failed.
func (c *Client) reconnect() {
	if !atomic.CompareAndSwapInt32(&c.reconnecting, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&c.reconnecting, 0)

	for attempt := 0; attempt < maxFailures; attempt++ {
		time.Sleep(exponentialBackoff(attempt))
		if err := c.connect(); err != nil {
			slog.Warn("AMQP reconnect failed", "attempt", attempt+1, "error", err)
			continue
		}
		slog.Info("AMQP reconnected", "attempt", attempt+1)
		c.recordSuccess()
		return
	}
}

// ConsumeExportJobs handles export jobs until ctx is done. A handler error
// requeues the job; an undecodable job is dropped.
func (c *Client) ConsumeExportJobs(ctx context.Context, handler func(context.Context, *ExportJob) error) error {
	ch, msgs, err := c.consume(c.queueName, true)
	if err != nil {
		return err
	}
	defer ch.Close()

	slog.InfoContext(ctx, "Started consuming export jobs", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping export job consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			job, err := ExportJobFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to decode export job", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, job); err != nil {
				slog.ErrorContext(ctx, "Failed to handle export job",
					"error", err,
					"owner_id", job.OwnerID,
					"month", job.Month)
				delivery.Nack(false, !delivery.Redelivered)
				continue
			}

			delivery.Ack(false)
		}
	}
}

// ConsumeChanges delivers change notices published by other processes
// until ctx is done.
func (c *Client) ConsumeChanges(ctx context.Context, handler func(*ChangeNotice)) error {
	ch, msgs, err := c.consume("", false)
	if err != nil {
		return err
	}
	defer ch.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			notice, err := ChangeNoticeFromJSON(delivery.Body)
			if err != nil {
				slog.WarnContext(ctx, "Dropping malformed change notice", "error", err)
				continue
			}
			if notice.Origin == c.origin {
				continue
			}
			handler(notice)
		}
	}
}

// consume opens a dedicated channel. An empty queue name declares a private
// auto-delete queue bound to ChangeRoutingKey.
func (c *Client) consume(queue string, manualAck bool) (*amqp091.Channel, <-chan amqp091.Delivery, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, nil, errors.New("connection closed")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open consumer channel: %w", err)
	}

	if queue == "" {
		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			ch.Close()
			return nil, nil, fmt.Errorf("declare change queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, ChangeRoutingKey, c.exchangeName, false, nil); err != nil {
			ch.Close()
			return nil, nil, fmt.Errorf("bind change queue: %w", err)
		}
		queue = q.Name
	}

	msgs, err := ch.Consume(
		queue,      // queue
		"",         // consumer
		!manualAck, // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("start consuming: %w", err)
	}
	return ch, msgs, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		last := c.lastFailure
		c.mu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
