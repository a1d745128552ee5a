package notify

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrInvalidPhone rejects numbers that cannot be normalized to E.164.
var ErrInvalidPhone = errors.New("invalid phone number")

// MessageSender is the outbound transport. The Twilio client satisfies it
// in production; tests substitute a fake.
type MessageSender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender delivers WhatsApp messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom("whatsapp:" + s.from)
	params.SetBody(body)
	_, err := s.client.Api.CreateMessage(params)
	return err
}

// RetryPolicy bounds delivery attempts: a fixed attempt count with
// exponentially growing delays, capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries three times starting at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Notifier normalizes recipient numbers and sends with bounded retries.
// Terminal failure is surfaced to the caller; nothing is queued.
type Notifier struct {
	sender      MessageSender
	policy      RetryPolicy
	countryCode string
	log         logrus.FieldLogger
}

func NewNotifier(sender MessageSender, policy RetryPolicy, countryCode string, log logrus.FieldLogger) *Notifier {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Notifier{sender: sender, policy: policy, countryCode: countryCode, log: log}
}

// Send delivers one message, retrying transport failures per the policy.
func (n *Notifier) Send(ctx context.Context, phone, body string) error {
	to, err := NormalizePhone(phone, n.countryCode)
	if err != nil {
		return err
	}
	delay := n.policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= n.policy.MaxAttempts; attempt++ {
		lastErr = n.sender.Send(ctx, to, body)
		if lastErr == nil {
			return nil
		}
		n.log.WithFields(logrus.Fields{"attempt": attempt, "to": to}).
			WithError(lastErr).Warn("whatsapp send failed")
		if attempt == n.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if n.policy.MaxDelay > 0 && delay > n.policy.MaxDelay {
			delay = n.policy.MaxDelay
		}
	}
	return errors.Wrapf(lastErr, "whatsapp delivery failed after %d attempts", n.policy.MaxAttempts)
}

var nonPhone = regexp.MustCompile(`[\s\-().]`)
var digitsOnly = regexp.MustCompile(`^\d+$`)

// NormalizePhone converts a raw number to E.164. Local numbers written with
// a leading zero get the configured country code; numbers already carrying
// a plus prefix pass through unchanged.
func NormalizePhone(raw, countryCode string) (string, error) {
	cleaned := nonPhone.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return "", ErrInvalidPhone
	}
	if strings.HasPrefix(cleaned, "+") {
		if !digitsOnly.MatchString(cleaned[1:]) || len(cleaned) < 9 {
			return "", ErrInvalidPhone
		}
		return cleaned, nil
	}
	if !digitsOnly.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}
	if strings.HasPrefix(cleaned, "0") && len(cleaned) == 11 {
		return "+" + countryCode + cleaned[1:], nil
	}
	if strings.HasPrefix(cleaned, countryCode) {
		return "+" + cleaned, nil
	}
	return "", ErrInvalidPhone
}
