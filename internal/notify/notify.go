// Package notify delivers out-of-band completion notices. Video renders can
// outlive a chat turn, so users get an SMS when one finishes.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier announces that a long-running generation finished.
type Notifier interface {
	VideoReady(ctx context.Context, to, location string) error
}

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// TwilioNotifier sends completion notices over SMS.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier creates an SMS notifier. Credentials fall back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables.
func NewTwilioNotifier(opts ...Option) (*TwilioNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio notifier config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{client: client, from: cfg.FromNumber}, nil
}

// VideoReady sends the finished-video notice to the user's number.
func (n *TwilioNotifier) VideoReady(ctx context.Context, to, location string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(fmt.Sprintf("Your video is ready: %s", location))

	_, err := n.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio VideoReady failed", "to", to, "error", err)
		return fmt.Errorf("failed to notify %s: %w", to, err)
	}
	slog.Debug("Twilio video notice sent", "to", to)
	return nil
}

// NoopNotifier drops all notices. Used when no SMS credentials are configured.
type NoopNotifier struct{}

func (NoopNotifier) VideoReady(ctx context.Context, to, location string) error {
	slog.Debug("Video notice suppressed (no notifier configured)", "to", to)
	return nil
}

// MockNotifier records notices for tests.
type MockNotifier struct {
	Notices []SentNotice
}

// SentNotice is one recorded notification.
type SentNotice struct {
	To       string
	Location string
}

func (m *MockNotifier) VideoReady(ctx context.Context, to, location string) error {
	m.Notices = append(m.Notices, SentNotice{To: to, Location: location})
	return nil
}
