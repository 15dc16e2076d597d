// Package worker turns queued domain events and email jobs into emails.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/messaging"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer/templates"
)

// ErrMalformed marks messages that will never succeed; they are dropped
// instead of requeued.
var ErrMalformed = errors.New("malformed message")

type EmailCounter interface {
	ObserveEmail(template string, err error)
}

// Notifier decides which events produce an email and sends it.
type Notifier struct {
	Users   repository.UserRepository
	Sender  mailer.Sender
	Brand   templates.Brand
	Geo     templates.GeoResolver
	Counter EmailCounter
	Logger  *logrus.Logger
}

// HandleEvent processes one event envelope. Events without a notification
// are accepted and ignored.
func (n *Notifier) HandleEvent(ctx context.Context, body []byte) error {
	var env messaging.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Name == "" {
		return fmt.Errorf("%w: missing event name", ErrMalformed)
	}
	job, err := n.jobFor(ctx, env)
	if err != nil || job == nil {
		return err
	}
	return n.send(ctx, job)
}

// HandleEmailJob sends a queued email job as-is, adding the brand fields
// the producer left out.
func (n *Notifier) HandleEmailJob(ctx context.Context, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrMalformed)
	}
	if job.Template != "" {
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		for k, v := range templates.New(n.Brand, "", "").Map() {
			if _, ok := job.Data[k]; !ok {
				job.Data[k] = v
			}
		}
	}
	return n.send(ctx, &job)
}

func (n *Notifier) jobFor(ctx context.Context, env messaging.Envelope) (*mailer.EmailJob, error) {
	switch env.Name {
	case event.NameUserRegistered:
		p, err := messaging.DecodePayload[messaging.RegisteredPayload](env)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		name := ""
		if u, err := n.lookup(ctx, env.UserID); err == nil && u != nil {
			name = u.DisplayName()
		}
		return n.job(p.Email, templates.Welcome, templates.New(n.Brand, name, p.Email)), nil

	case event.NameUserLoggedIn:
		p, err := messaging.DecodePayload[messaging.LoggedInPayload](env)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		u, err := n.lookup(ctx, env.UserID)
		if err != nil || u == nil {
			return nil, err
		}
		data := templates.New(n.Brand, u.DisplayName(), u.Email().String(),
			templates.WithIP(p.IPAddress),
			templates.WithUserAgent(p.UserAgent),
			templates.WithTime(env.OccurredAt),
			templates.WithGeoFromIP(ctx, n.Geo, p.IPAddress, env.OccurredAt),
		)
		return n.job(u.Email().String(), templates.LoginNotification, data), nil

	case event.NameUserStatusChanged:
		p, err := messaging.DecodePayload[messaging.StatusChangedPayload](env)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if p.NewStatus != vo.StatusSuspended.String() {
			return nil, nil
		}
		u, err := n.lookup(ctx, env.UserID)
		if err != nil || u == nil {
			return nil, err
		}
		data := templates.New(n.Brand, u.DisplayName(), u.Email().String(), templates.WithReason(p.Reason))
		return n.job(u.Email().String(), templates.AccountSuspended, data), nil
	}
	return nil, nil
}

// lookup returns nil without error when the user no longer exists.
func (n *Notifier) lookup(ctx context.Context, rawID string) (*entity.User, error) {
	id, err := vo.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	u, err := n.Users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		if n.Logger != nil {
			n.Logger.WithField("user_id", rawID).Info("user gone; notification skipped")
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (n *Notifier) job(to, template string, data templates.Data) *mailer.EmailJob {
	return &mailer.EmailJob{To: to, Template: template, Data: data.Map()}
}

func (n *Notifier) send(ctx context.Context, job *mailer.EmailJob) error {
	if err := job.Compose(); err != nil {
		return fmt.Errorf("%w: render %s: %v", ErrMalformed, job.Template, err)
	}
	err := n.Sender.Send(ctx, job.To, job.Subject, job.Text, job.HTML)
	if n.Counter != nil {
		n.Counter.ObserveEmail(templateLabel(job.Template), err)
	}
	if err != nil {
		return fmt.Errorf("send %s: %w", templateLabel(job.Template), err)
	}
	return nil
}

func templateLabel(t string) string {
	if t == "" {
		return "raw"
	}
	return t
}
