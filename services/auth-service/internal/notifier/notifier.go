package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
)

// Notifier delivers a one-time code to its owner.
type Notifier interface {
	Send(ctx context.Context, email string, code string, purpose model.OTPPurpose) error
}

// HTMLSender is the part of the shared mailer the email notifier needs.
type HTMLSender interface {
	SendHTML(ctx context.Context, to []string, subject, htmlBody, textBody string) error
}

type emailNotifier struct {
	sender  HTMLSender
	appName string
	timeout time.Duration
	ttls    map[model.OTPPurpose]time.Duration
}

// NewEmailNotifier creates a Notifier that emails codes. ttls is used only to
// tell the recipient how long the code stays valid.
func NewEmailNotifier(
	sender HTMLSender,
	appName string,
	timeout time.Duration,
	ttls map[model.OTPPurpose]time.Duration,
) Notifier {
	return &emailNotifier{
		sender:  sender,
		appName: appName,
		timeout: timeout,
		ttls:    ttls,
	}
}

func (n *emailNotifier) Send(ctx context.Context, email string, code string, purpose model.OTPPurpose) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	subject, htmlBody, textBody := n.render(code, purpose)
	if err := n.sender.SendHTML(ctx, []string{email}, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to deliver %s code: %w", purpose, err)
	}

	return nil
}

func (n *emailNotifier) render(code string, purpose model.OTPPurpose) (subject, htmlBody, textBody string) {
	validFor := n.ttls[purpose]

	var intro string
	switch purpose {
	case model.OTPPurposeSignup:
		subject = fmt.Sprintf("Confirm your %s registration", n.appName)
		intro = fmt.Sprintf("Use the code below to finish creating your %s account.", n.appName)
	default:
		subject = fmt.Sprintf("Your %s sign-in code", n.appName)
		intro = fmt.Sprintf("Use the code below to sign in to %s.", n.appName)
	}

	htmlBody = fmt.Sprintf(`
		<p>Hi,</p>
		<p>%s</p>

		<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>

		<p>This code will expire in %s and can only be used once.</p>
		<p>If you did not request it, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>%s Team</p>
	`, intro, code, validFor, n.appName)

	textBody = fmt.Sprintf(
		"%s\n\nCode: %s\n\nThis code will expire in %s and can only be used once.\n",
		intro, code, validFor,
	)

	return subject, htmlBody, textBody
}

type logNotifier struct {
	logger *zerolog.Logger
}

// NewLogNotifier creates a Notifier that writes codes to the log. Development only.
func NewLogNotifier(logger *zerolog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Send(_ context.Context, email string, code string, purpose model.OTPPurpose) error {
	n.logger.Warn().
		Str("email", email).
		Str("purpose", purpose.String()).
		Str("code", code).
		Msg("one-time code issued (log notifier)")
	return nil
}
