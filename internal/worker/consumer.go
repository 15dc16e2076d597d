package worker

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one message body.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consume handles deliveries until the channel closes or ctx is done.
// Successes are acked, malformed messages are dropped and everything else
// is requeued.
func Consume(ctx context.Context, deliveries <-chan amqp.Delivery, handle HandlerFunc, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			settle(d, handle(ctx, d.Body), logger)
		}
	}
}

func settle(d amqp.Delivery, err error, logger *logrus.Logger) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformed):
		if logger != nil {
			logger.WithError(err).WithField("queue", d.RoutingKey).Warn("dropping message")
		}
		_ = d.Nack(false, false)
	default:
		if logger != nil {
			logger.WithError(err).WithField("queue", d.RoutingKey).Error("message failed; requeueing")
		}
		_ = d.Nack(false, true)
	}
}
