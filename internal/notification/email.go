package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/tendant/krishi-auth/pkg/domain"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	// CodeTTL is quoted in the message body.
	CodeTTL time.Duration
}

// EmailService delivers one-time codes over SMTP.
type EmailService struct {
	config EmailConfig
	dialer net.Dialer
}

func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{
		config: config,
		dialer: net.Dialer{Timeout: 10 * time.Second},
	}
}

// SendCode mails a one-time code. The subject depends on why it was issued.
func (s *EmailService) SendCode(ctx context.Context, to, code string, purpose domain.CodePurpose) error {
	subject, body := codeMessage(code, purpose, s.config.CodeTTL)
	return s.sendEmail(ctx, to, subject, body)
}

func codeMessage(code string, purpose domain.CodePurpose, ttl time.Duration) (subject, body string) {
	intro := "Thank you for registering with Krishi Rakshak. Use the code below to verify your email address."
	subject = "Your Krishi Rakshak verification code"
	if purpose == domain.CodePurposeLogin {
		intro = "A sign-in to your Krishi Rakshak account was requested. Use the code below to continue."
		subject = "Your Krishi Rakshak login code"
	}

	expiry := ""
	if ttl > 0 {
		expiry = fmt.Sprintf("<p>This code expires in %s.</p>", humanDuration(ttl))
	}

	body = fmt.Sprintf(`<html><body>
		<h2>%s</h2>
		<p>%s</p>
		<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
		%s
		<p>If you did not request this code, please ignore this email.</p>
	</body></html>`, subject, intro, code, expiry)
	return subject, body
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}

func (s *EmailService) buildMessage(to, subject, body string) []byte {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)
	return []byte(msg)
}

func (s *EmailService) sendEmail(ctx context.Context, to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.config.User != "" {
		auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(s.config.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(s.buildMessage(to, subject, body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// LogSender writes codes to the log instead of mailing them.
// Development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(_ context.Context, to, code string, purpose domain.CodePurpose) error {
	s.logger.Warn("SMTP not configured, logging one-time code", "to", to, "code", code, "purpose", purpose)
	return nil
}
