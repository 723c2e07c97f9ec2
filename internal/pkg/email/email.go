package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error
	SendNotificationEmail(ctx context.Context, toEmail, toName, subject, message, actionURL string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string // Base URL for links in emails
	// Timeout bounds a whole SMTP exchange when the caller's context has no deadline
	Timeout time.Duration
}

const defaultSendTimeout = 15 * time.Second

// EmailServiceImpl implements EmailService over SMTP
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(ctx context.Context, toEmail string, message []byte) error
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	if config.FromName == "" {
		config.FromName = "VolunNet"
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultSendTimeout
	}
	s := &EmailServiceImpl{
		config: config,
		logger: logger,
	}
	s.send = s.deliver
	return s
}

// Configured reports whether SMTP credentials are present. Without them emails are only logged.
func (s *EmailServiceImpl) Configured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// SendVerificationEmail sends an email with a verification link/token
func (s *EmailServiceImpl) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", s.config.BaseURL, url.QueryEscape(token))
	if !s.Configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("verificationURL", link).
			Msg("SMTP credentials not configured - verification email not sent")
		return nil
	}

	body := layout(toName,
		"<p>Thanks for joining VolunNet. Please confirm your email address to start applying to events.</p>",
		link, "Verify Email")
	return s.sendHTMLEmail(ctx, toEmail, "Verify your email address - VolunNet", body)
}

// SendPasswordResetEmail sends a one-time password reset link
func (s *EmailServiceImpl) SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, url.QueryEscape(token))
	if !s.Configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("resetURL", link).
			Msg("SMTP credentials not configured - password reset email not sent")
		return nil
	}

	body := layout(toName,
		"<p>We received a request to reset your password. The link below can be used once.</p>"+
			"<p>If you did not ask for a reset, you can ignore this email.</p>",
		link, "Reset Password")
	return s.sendHTMLEmail(ctx, toEmail, "Reset your password - VolunNet", body)
}

// SendNotificationEmail mirrors an in-app notification by email
func (s *EmailServiceImpl) SendNotificationEmail(ctx context.Context, toEmail, toName, subject, message, actionURL string) error {
	if !s.Configured() {
		s.logger.Info().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP credentials not configured - notification email logged only")
		return nil
	}

	link := ""
	if actionURL != "" {
		link = s.config.BaseURL + actionURL
	}
	body := layout(toName, "<p>"+html.EscapeString(message)+"</p>", link, "Open VolunNet")
	return s.sendHTMLEmail(ctx, toEmail, subject+" - VolunNet", body)
}

func layout(toName, content, link, button string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	fmt.Fprintf(&b, "<p>Hello %s,</p>", html.EscapeString(toName))
	b.WriteString(content)
	if link != "" {
		fmt.Fprintf(&b, `<div style="text-align: center; margin: 30px 0;"><a href="%s" style="background-color: #2f9e6e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">%s</a></div>`,
			html.EscapeString(link), button)
	}
	b.WriteString("<p>Best regards,<br>The VolunNet Team</p></div></body></html>")
	return b.String()
}

// buildMessage renders the MIME message with headers in a stable order
func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)},
		{"To", toEmail},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func (s *EmailServiceImpl) sendHTMLEmail(ctx context.Context, toEmail, subject, htmlBody string) error {
	return s.send(ctx, toEmail, s.buildMessage(toEmail, subject, htmlBody))
}

// deliver runs one SMTP exchange. The connection deadline follows ctx and the
// connection is closed as soon as ctx is cancelled.
func (s *EmailServiceImpl) deliver(ctx context.Context, toEmail string, message []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	serverAddress := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", serverAddress)
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	tlsConfig := &tls.Config{ServerName: s.config.Host}
	if s.config.UseTLS {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to create SMTP client")
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if !s.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}
