package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/BradenHooton/interplink/pkg/logger"
)

// ErrMailerDisabled is returned when credential e-mail is switched off
var ErrMailerDisabled = errors.New("credential email delivery is disabled")

// CredentialNotice is the content of a first-login credentials e-mail
type CredentialNotice struct {
	Email        string
	Name         string
	TempPassword string
	LoginToken   string
	ExpiresAt    time.Time
}

// CredentialMailer delivers first-login credentials out of band
type CredentialMailer interface {
	SendCredentials(ctx context.Context, notice CredentialNotice) error
}

// DisabledMailer refuses every delivery, so credentials are never issued
// without reaching the interpreter
type DisabledMailer struct{}

func (DisabledMailer) SendCredentials(context.Context, CredentialNotice) error {
	return ErrMailerDisabled
}

// sesSender is the part of the SES client used here
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESCredentialMailer sends credential e-mails using AWS SES
type SESCredentialMailer struct {
	client       sesSender
	fromAddress  string
	loginURLBase string
	logger       *slog.Logger
}

// NewSESCredentialMailer creates a mailer from the default AWS credential chain
func NewSESCredentialMailer(ctx context.Context, region, fromAddress, loginURLBase string, logger *slog.Logger) (*SESCredentialMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESCredentialMailer{
		client:       ses.NewFromConfig(cfg),
		fromAddress:  fromAddress,
		loginURLBase: loginURLBase,
		logger:       logger,
	}, nil
}

// LoginLink builds the one-click first-login URL for a notice
func (m *SESCredentialMailer) LoginLink(notice CredentialNotice) string {
	q := url.Values{}
	q.Set("email", notice.Email)
	q.Set("token", notice.LoginToken)
	return m.loginURLBase + "?" + q.Encode()
}

// SendCredentials e-mails the temporary password and login link
func (m *SESCredentialMailer) SendCredentials(ctx context.Context, notice CredentialNotice) error {
	link := m.LoginLink(notice)
	expires := notice.ExpiresAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST")

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <p>Hello %s,</p>
    <p>Your interpreter account is ready. Sign in with the link below before %s.</p>
    <p><a href="%s">Sign in to your account</a></p>
    <p>You can also sign in with this temporary password:</p>
    <p><code>%s</code></p>
    <p>You will be asked to choose a permanent password after signing in.</p>
    <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`, html.EscapeString(notice.Name), expires, html.EscapeString(link), html.EscapeString(notice.TempPassword))

	textBody := fmt.Sprintf(`Hello %s,

Your interpreter account is ready. Sign in with the link below before %s.

%s

You can also sign in with this temporary password:

    %s

You will be asked to choose a permanent password after signing in.
`, notice.Name, expires, link, notice.TempPassword)

	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{notice.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String("Your interpreter account sign-in details")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(textBody)},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("failed to send credentials email via SES",
			slog.String("email", pkglogger.SanitizedEmail(notice.Email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("credentials email sent",
		slog.String("email", pkglogger.SanitizedEmail(notice.Email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
