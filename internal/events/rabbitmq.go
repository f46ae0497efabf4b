package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"frenchdriver/internal/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ publishes events on a durable topic exchange with publisher
// confirms and consumes them from a queue bound to every booking event.
type RabbitMQ struct {
	url      string
	exchange string
	queue    string

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	closed    chan struct{}
	closeOnce sync.Once
	reconnect chan struct{}
}

// DialRabbitMQ connects, declares the topology and starts the reconnect watcher.
func DialRabbitMQ(url, exchange, queue string) (*RabbitMQ, error) {
	r := &RabbitMQ{
		url:       url,
		exchange:  exchange,
		queue:     queue,
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}
	if err := r.connectOnce(); err != nil {
		return nil, err
	}
	go r.watch()
	return r, nil
}

func (r *RabbitMQ) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.exchange, err)
	}
	if _, err := ch.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", r.queue, err)
	}
	if err := ch.QueueBind(r.queue, BindingKey, r.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", r.queue, err)
	}
	return nil
}

func (r *RabbitMQ) connectOnce() (err error) {
	conn, err := amqp.DialConfig(r.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err = r.declareTopology(ch); err != nil {
		return err
	}
	if err = ch.Confirm(false); err != nil {
		return fmt.Errorf("rabbitmq confirms: %w", err)
	}

	returns := ch.NotifyReturn(make(chan amqp.Return, 1))
	go func() {
		for ret := range returns {
			utils.L().Warn("rabbitmq message returned",
				zap.String("routing_key", ret.RoutingKey),
				zap.Uint16("code", ret.ReplyCode),
				zap.String("text", ret.ReplyText))
		}
	}()

	r.mu.Lock()
	if r.pubChan != nil && !r.pubChan.IsClosed() {
		_ = r.pubChan.Close()
	}
	r.conn = conn
	r.pubChan = ch
	r.mu.Unlock()

	go func() {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-r.closed:
			return
		case <-connClosed:
		case <-chClosed:
		}
		select {
		case r.reconnect <- struct{}{}:
		default:
		}
	}()

	utils.L().Info("rabbitmq connected", zap.String("exchange", r.exchange), zap.String("queue", r.queue))
	return nil
}

func (r *RabbitMQ) watch() {
	backoff := time.Second
	for {
		select {
		case <-r.closed:
			return
		case <-r.reconnect:
		}
		for {
			select {
			case <-r.closed:
				return
			default:
			}
			err := r.connectOnce()
			if err == nil {
				backoff = time.Second
				break
			}
			utils.L().Error("rabbitmq reconnect failed", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			backoff = min(backoff*2, 30*time.Second)
		}
	}
}

// Publish sends e with routing key e.Type and waits for the broker confirm.
func (r *RabbitMQ) Publish(ctx context.Context, e Event) error {
	body, err := e.Marshal()
	if err != nil {
		return err
	}

	r.mu.RLock()
	conn, ch := r.conn, r.pubChan
	r.mu.RUnlock()
	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, r.exchange, e.Type, true, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Type:         e.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	if dc == nil {
		return errors.New("rabbitmq: channel not in confirm mode")
	}
	return awaitConfirm(ctx, dc)
}

// confirmer is the broker acknowledgement of one published message.
type confirmer interface {
	WaitContext(ctx context.Context) (bool, error)
}

// awaitConfirm waits for the confirm of a single delivery tag. A confirm
// that arrives after ctx ends is discarded with its tag.
func awaitConfirm(ctx context.Context, c confirmer) error {
	ack, err := c.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq confirm: %w", err)
	}
	if !ack {
		return errors.New("rabbitmq: publish not acknowledged")
	}
	return nil
}

// Consume delivers queued events to h until ctx is cancelled. Messages that
// fail to decode are dropped; handler errors are nacked without requeue.
func (r *RabbitMQ) Consume(ctx context.Context, tag string, prefetch int, h Handler) error {
	r.mu.RLock()
	conn := r.conn
	r.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: not connected")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq consumer channel: %w", err)
	}
	defer ch.Close()
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	deliveries, err := ch.Consume(r.queue, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume %s: %w", r.queue, err)
	}
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			_ = ch.Cancel(tag, false)
			return nil
		case cerr := <-chClosed:
			if cerr != nil {
				return fmt.Errorf("rabbitmq channel closed: %w", cerr)
			}
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			e, err := Unmarshal(d.Body)
			if err != nil {
				utils.L().Warn("dropping malformed event", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			hCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err = h(hCtx, e)
			cancel()
			if err != nil {
				utils.L().Warn("event handler failed", zap.String("type", e.Type), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// ConsumeForever keeps a consumer subscribed until ctx ends. A subscription
// dropped with the connection is opened again once the watcher reconnects.
func (r *RabbitMQ) ConsumeForever(ctx context.Context, tag string, prefetch int, h Handler) {
	consumeWithRetry(ctx, func(ctx context.Context) error {
		return r.Consume(ctx, tag, prefetch, h)
	}, time.Second, 30*time.Second)
}

func consumeWithRetry(ctx context.Context, consume func(context.Context) error, minBackoff, maxBackoff time.Duration) {
	backoff := minBackoff
	for {
		started := time.Now()
		err := consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxBackoff {
			backoff = minBackoff
		}
		utils.L().Warn("event consumer stopped, resubscribing", zap.Error(err), zap.Duration("retry_in", backoff))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (r *RabbitMQ) Close() {
	r.closeOnce.Do(func() { close(r.closed) })
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubChan != nil {
		_ = r.pubChan.Close()
		r.pubChan = nil
	}
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}
