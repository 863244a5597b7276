// Package newsletter accepts subscription requests and forwards them to the
// mailing-list webhook.
package newsletter

import (
	"strings"
	"time"

	"aslipolitik/internal/notify"
	"aslipolitik/internal/validation"
)

// Subscription is the form submitted by a reader.
type Subscription struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// Normalize trims surrounding whitespace and lowercases the email.
func (s *Subscription) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
}

// Payload is what the mailing-list webhook receives.
type Payload struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// Service validates subscriptions and hands them to the webhook.
type Service struct {
	hook *notify.Webhook
	now  func() time.Time
}

// NewService creates a Service. hook may be disabled.
func NewService(hook *notify.Webhook) *Service {
	return &Service{hook: hook, now: time.Now}
}

// Subscribe validates sub and dispatches it. It does not wait for the
// webhook; the returned channel carries the delivery result.
func (s *Service) Subscribe(sub Subscription) (<-chan error, error) {
	sub.Normalize()
	if err := validation.Struct(sub); err != nil {
		return nil, err
	}

	return s.hook.Dispatch(Payload{
		Name:      sub.Name,
		Email:     sub.Email,
		Timestamp: s.now().UTC(),
	}), nil
}
