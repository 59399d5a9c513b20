package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/notify"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/outbox"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewPublisher,
	),
)

type closablePublisher interface {
	outbox.Publisher
	Close() error
}

func NewPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) outbox.Publisher {
	var pub closablePublisher
	if cfg.Notify.AMQPURL == "" {
		logger.Info("NOTIFY_AMQP_URL is empty, notifications go to the log")
		pub = notify.NewLogPublisher(logger)
	} else {
		pub = notify.NewAMQPPublisher(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
	return pub
}
