package messaging

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
)

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, queue string, body any) error
}

// PublishCounter is told the outcome of every event publish.
type PublishCounter interface {
	ObservePublish(name string, err error)
}

// Publisher puts domain events and email jobs on their queues.
type Publisher struct {
	Out         JSONPublisher
	EventsQueue string
	EmailQueue  string
	Counter     PublishCounter
	Logger      *logrus.Logger
}

func NewPublisher(out JSONPublisher, eventsQueue, emailQueue string, logger *logrus.Logger) *Publisher {
	return &Publisher{Out: out, EventsQueue: eventsQueue, EmailQueue: emailQueue, Logger: logger}
}

// Publish sends every event and joins the failures; one bad event does not
// stop the others.
func (p *Publisher) Publish(ctx context.Context, events ...event.Event) error {
	var errs []error
	for _, e := range events {
		err := p.publishOne(ctx, e)
		if p.Counter != nil {
			p.Counter.ObservePublish(e.Name(), err)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p.Logger != nil {
			p.Logger.WithField("event", e.Name()).WithField("user_id", e.AggregateID().String()).Debug("event published")
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) publishOne(ctx context.Context, e event.Event) error {
	env, err := Encode(e)
	if err != nil {
		return err
	}
	return p.Out.PublishJSON(ctx, p.EventsQueue, env)
}

func (p *Publisher) EnqueueEmail(ctx context.Context, job mailer.EmailJob) error {
	return p.Out.PublishJSON(ctx, p.EmailQueue, job)
}

// LogPublisher stands in when no broker is configured.
type LogPublisher struct {
	Logger *logrus.Logger
}

func (l LogPublisher) Publish(_ context.Context, events ...event.Event) error {
	for _, e := range events {
		if l.Logger != nil {
			l.Logger.WithField("event", e.Name()).WithField("user_id", e.AggregateID().String()).Info("domain event")
		}
	}
	return nil
}

func (l LogPublisher) EnqueueEmail(_ context.Context, job mailer.EmailJob) error {
	if l.Logger != nil {
		l.Logger.WithField("to", job.To).WithField("template", job.Template).Info("email job dropped: broker not configured")
	}
	return nil
}

var (
	_ application.EventPublisher = (*Publisher)(nil)
	_ application.EmailQueue     = (*Publisher)(nil)
	_ application.EventPublisher = LogPublisher{}
	_ application.EmailQueue     = LogPublisher{}
)
