package bootstrap

import (
	"context"
	"log/slog"

	"digital-store/internal/infra/kafka"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/usecase/shared"

	"go.uber.org/fx"
)

var KafkaModule = fx.Module("kafka",
	fx.Provide(
		NewDeliverySink,
	),
)

// NewDeliverySink publishes delivery messages to Kafka, or only logs them
// when no brokers are configured.
func NewDeliverySink(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) shared.DeliverySink {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("KAFKA_BROKERS未設定のため配信メッセージはログ出力のみです")
		return kafka.NewLogSink(logger)
	}

	sink := kafka.NewSink(kafka.NewWriter(cfg.Kafka), cfg.Kafka, clk)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return sink.Close()
		},
	})
	return sink
}
