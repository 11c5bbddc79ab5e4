// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/pkg/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Consumer defaults
const (
	DefaultMaxDeliver    = 5
	DefaultAckWait       = 2 * time.Minute
	DefaultMaxAckPending = 256
	DefaultWorkers       = 8
	DefaultRetryDelay    = 15 * time.Second
)

// IJetStreamConsumers is the part of a JetStream context the consumer needs.
type IJetStreamConsumers interface {
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// ConsumerConfig tunes the durable task consumer.
type ConsumerConfig struct {
	Name          string        `yaml:"name"`
	MaxDeliver    int           `yaml:"max_deliver"`
	AckWait       time.Duration `yaml:"ack_wait"`
	MaxAckPending int           `yaml:"max_ack_pending"`
	// Workers bounds how many tasks are handled at the same time.
	Workers    int           `yaml:"workers"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.Name == "" {
		c.Name = constants.TaskConsumerName
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = DefaultMaxDeliver
	}
	if c.AckWait <= 0 {
		c.AckWait = DefaultAckWait
	}
	if c.MaxAckPending <= 0 {
		c.MaxAckPending = DefaultMaxAckPending
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// taskMsg is the subset of jetstream.Msg the consumer acts on.
type taskMsg interface {
	Subject() string
	Data() []byte
	Headers() nats.Header
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	Nak() error
	NakWithDelay(delay time.Duration) error
	InProgress() error
	TermWithReason(reason string) error
}

// natsTaskMessage exposes a JetStream message as a domain.Message.
type natsTaskMessage struct {
	msg taskMsg
}

func (m natsTaskMessage) Subject() string { return m.msg.Subject() }

func (m natsTaskMessage) Data() []byte { return m.msg.Data() }

func (m natsTaskMessage) Header(key string) string {
	headers := m.msg.Headers()
	if headers == nil {
		return ""
	}
	return headers.Get(key)
}

// TaskConsumer pulls bot tasks from the shared durable consumer and hands them to a handler.
type TaskConsumer struct {
	js      IJetStreamConsumers
	handler domain.MessageHandler
	config  ConsumerConfig

	slots   chan struct{}
	wg      sync.WaitGroup
	baseCtx context.Context
	consume jetstream.ConsumeContext
}

// NewTaskConsumer creates a new TaskConsumer.
func NewTaskConsumer(js IJetStreamConsumers, handler domain.MessageHandler, config ConsumerConfig) *TaskConsumer {
	config = config.withDefaults()
	return &TaskConsumer{
		js:      js,
		handler: handler,
		config:  config,
		slots:   make(chan struct{}, config.Workers),
		baseCtx: context.Background(),
	}
}

// Start creates or updates the durable consumer and begins consuming.
func (c *TaskConsumer) Start(ctx context.Context) error {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, constants.TaskStreamName, jetstream.ConsumerConfig{
		Name:          c.config.Name,
		Durable:       c.config.Name,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: constants.TaskSubjectsWildcard,
		MaxDeliver:    c.config.MaxDeliver,
		AckWait:       c.config.AckWait,
		MaxAckPending: c.config.MaxAckPending,
		Description:   "durable/shared bot task consumer for meeting-bot-service pods",
	})
	if err != nil {
		slog.ErrorContext(ctx, "error creating JetStream consumer", logging.ErrKey, err,
			"consumer", c.config.Name, "stream", constants.TaskStreamName)
		return err
	}

	c.baseCtx = context.WithoutCancel(ctx)
	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		c.dispatch(msg)
	}, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		slog.ErrorContext(ctx, "task consumer error encountered", logging.ErrKey, err)
	}))
	if err != nil {
		slog.ErrorContext(ctx, "error starting task consumer", logging.ErrKey, err, "consumer", c.config.Name)
		return err
	}
	c.consume = consumeCtx

	slog.InfoContext(ctx, "task consumer started",
		"consumer", c.config.Name,
		"workers", c.config.Workers,
	)
	return nil
}

// Stop drains the consumer and waits for in-flight tasks, or for ctx to be done.
func (c *TaskConsumer) Stop(ctx context.Context) {
	if c.consume != nil {
		c.consume.Drain()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "task consumer stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "task consumer stopped with tasks still in flight")
	}
}

// dispatch blocks while every worker slot is busy, which applies back-pressure to the pull.
func (c *TaskConsumer) dispatch(msg taskMsg) {
	c.slots <- struct{}{}
	c.wg.Add(1)
	go func() {
		defer func() {
			<-c.slots
			c.wg.Done()
		}()
		c.handleMsg(c.baseCtx, msg)
	}()
}

func (c *TaskConsumer) handleMsg(ctx context.Context, msg taskMsg) {
	headers := msg.Headers()
	if headers != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(headers))
		if requestID := headers.Get(constants.RequestIDHeader); requestID != "" {
			ctx = context.WithValue(ctx, constants.RequestIDContextID, requestID)
			ctx = logging.AppendCtx(ctx, slog.String("request_id", requestID))
		}
	}
	ctx = logging.AppendCtx(ctx, slog.String("subject", msg.Subject()))

	var delivered uint64
	if meta, err := msg.Metadata(); err == nil && meta != nil {
		delivered = meta.NumDelivered
	}

	if !c.handler.HandlerReady() {
		slog.WarnContext(ctx, "handler not ready, task will be redelivered")
		if err := msg.NakWithDelay(c.config.RetryDelay); err != nil {
			slog.ErrorContext(ctx, "error sending nak", logging.ErrKey, err)
		}
		return
	}

	stop := c.keepAlive(ctx, msg)
	err := c.handler.HandleMessage(ctx, natsTaskMessage{msg: msg})
	stop()

	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			slog.ErrorContext(ctx, "error acknowledging task", logging.ErrKey, ackErr)
		}
	case domain.IsErrorType(err, domain.ErrorTypeValidation):
		slog.WarnContext(ctx, "dropping task that can never succeed", logging.ErrKey, err)
		if termErr := msg.TermWithReason(err.Error()); termErr != nil {
			slog.ErrorContext(ctx, "error terminating task", logging.ErrKey, termErr)
		}
	default:
		if delivered >= uint64(c.config.MaxDeliver) {
			slog.ErrorContext(ctx, "task failed on its last delivery", logging.ErrKey, err,
				"delivered", delivered, logging.PriorityCritical())
		} else {
			slog.WarnContext(ctx, "task failed, will be redelivered", logging.ErrKey, err, "delivered", delivered)
		}
		if nakErr := msg.NakWithDelay(c.config.RetryDelay); nakErr != nil {
			slog.ErrorContext(ctx, "error sending nak", logging.ErrKey, nakErr)
		}
	}
}

// keepAlive extends the ack deadline of long tasks such as recording uploads.
func (c *TaskConsumer) keepAlive(ctx context.Context, msg taskMsg) func() {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(c.config.AckWait / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					slog.DebugContext(ctx, "error extending task ack deadline", logging.ErrKey, err)
				}
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}
