package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
)

// Envelope is the wire form of a domain event.
type Envelope struct {
	Name       string          `json:"name"`
	UserID     string          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type RegisteredPayload struct {
	Email  string `json:"email"`
	Method string `json:"method"`
}

type EmailVerifiedPayload struct {
	Email string `json:"email"`
}

type LoggedInPayload struct {
	Method    string `json:"method"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type StatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Reason    string `json:"reason,omitempty"`
}

type PasswordChangedPayload struct {
	Method string `json:"method"`
}

type RoleChangedPayload struct {
	OldRole string `json:"old_role"`
	NewRole string `json:"new_role"`
}

func payloadOf(e event.Event) (any, error) {
	switch ev := e.(type) {
	case event.UserRegistered:
		return RegisteredPayload{Email: ev.Email.String(), Method: ev.Method.String()}, nil
	case event.UserEmailVerified:
		return EmailVerifiedPayload{Email: ev.Email.String()}, nil
	case event.UserLoggedIn:
		return LoggedInPayload{Method: ev.Method.String(), IPAddress: ev.IPAddress, UserAgent: ev.UserAgent}, nil
	case event.UserStatusChanged:
		return StatusChangedPayload{OldStatus: ev.OldStatus.String(), NewStatus: ev.NewStatus.String(), Reason: ev.Reason}, nil
	case event.UserPasswordChanged:
		return PasswordChangedPayload{Method: ev.Method.String()}, nil
	case event.UserRoleChanged:
		return RoleChangedPayload{OldRole: ev.OldRole.String(), NewRole: ev.NewRole.String()}, nil
	default:
		return nil, fmt.Errorf("unsupported event %s", e.Name())
	}
}

func Encode(e event.Event) (Envelope, error) {
	p, err := payloadOf(e)
	if err != nil {
		return Envelope{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Name:       e.Name(),
		UserID:     e.AggregateID().String(),
		OccurredAt: e.OccurredAt().UTC(),
		Payload:    raw,
	}, nil
}

// DecodePayload unmarshals the envelope payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.Name, err)
	}
	return out, nil
}
