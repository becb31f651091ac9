package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"

	"github.com/bookkart/bookkart/internal/config"
)

// Sender delivers the transactional emails the auth flow depends on.
type Sender interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

type smtpSender struct {
	client      *gomail.Client
	from        string
	frontendURL string
}

func NewSMTPSender(cfg config.SMTPConfig, frontendURL string) (Sender, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.User),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to create SMTP client: %w", err)
	}

	return &smtpSender{client: client, from: cfg.From, frontendURL: frontendURL}, nil
}

func (s *smtpSender) SendVerification(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.frontendURL, token)
	body := fmt.Sprintf("Welcome to BookKart!\n\nPlease verify your email by clicking the link below:\n%s\n", link)

	return s.send(ctx, to, "Verify your BookKart account", body)
}

func (s *smtpSender) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	body := fmt.Sprintf("You requested a password reset.\n\nClick the link below to set a new password. The link expires in one hour:\n%s\n", link)

	return s.send(ctx, to, "Reset your BookKart password", body)
}

func (s *smtpSender) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail: invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("mail: failed to send email")
		return fmt.Errorf("mail: failed to send email: %w", err)
	}

	return nil
}
