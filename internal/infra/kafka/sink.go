package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

// DedupHeader carries the order id so consumers can drop redelivered messages
// without decoding the value.
const DedupHeader = "x-dedup-key"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes delivery messages keyed by order id. Writes are synchronous:
// the delivery job is only marked done once the broker acknowledged.
type Sink struct {
	w       messageWriter
	timeout time.Duration
	clock   clock.Clock
}

func NewWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.DeliveryTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func NewSink(w messageWriter, cfg config.KafkaConfig, clk clock.Clock) *Sink {
	return &Sink{w: w, timeout: cfg.WriteTimeout, clock: clk}
}

func (s *Sink) Deliver(ctx context.Context, msg shared.DeliveryMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return errs.Wrap(err, "encode delivery message")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key := []byte(msg.OrderID.String())
	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Time:    s.clock.Now(),
		Headers: []kafka.Header{{Key: DedupHeader, Value: key}},
	})
	if err != nil {
		return errs.Wrapf(err, "publish delivery for order %s", msg.OrderID)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.w.Close()
}

// LogSink stands in for the broker in local runs; it only logs the message.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, msg shared.DeliveryMessage) error {
	s.logger.InfoContext(ctx, "delivery",
		"order_id", msg.OrderID,
		"order_number", msg.OrderNumber,
		"buyer_id", msg.BuyerID,
		"product_id", msg.ProductID,
		"quantity", msg.Quantity,
	)
	return nil
}
