package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
)

const defaultDialTimeout = 30 * time.Second

// Sender delivers one message and returns its Message-ID.
type Sender interface {
	Send(ctx context.Context, msg *OutgoingMessage) (string, error)
	Configured() bool
}

// SMTPSender submits mail to an SMTP relay, upgrading with STARTTLS when the
// server offers it, or over implicit TLS when Secure is set.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	now    func() time.Time
}

var _ Sender = (*SMTPSender)(nil)

// NewSender returns an SMTP sender, or one that fails every send with a
// not_configured TransportError when the SMTP host or credentials are missing.
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) Sender {
	logger = logger.Named("smtp")
	if !cfg.IsConfigured() {
		logger.Warn("SMTP is not configured; RFP emails will be recorded but not delivered")
		return unconfiguredSender{}
	}
	return &SMTPSender{cfg: cfg, logger: logger, now: time.Now}
}

func (s *SMTPSender) Configured() bool {
	return true
}

func (s *SMTPSender) Send(ctx context.Context, out *OutgoingMessage) (string, error) {
	msg := *out
	if msg.From == "" {
		msg.From = s.cfg.FromAddress()
	}
	if msg.FromName == "" {
		msg.FromName = s.cfg.SenderName
	}

	raw, messageID, err := Compose(&msg, messageIDDomain(msg.From), s.now())
	if err != nil {
		return "", err
	}

	if err := s.deliver(ctx, msg.From, msg.To, raw); err != nil {
		return "", ClassifyTransportError("send", err)
	}

	s.logger.Info("Sent email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("message_id", messageID))
	return messageID, nil
}

func (s *SMTPSender) deliver(ctx context.Context, from, to string, raw []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	dialer := &net.Dialer{Timeout: defaultDialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Secure {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultDialTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer c.Close()

	if !s.cfg.Secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO rejected: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := bytes.NewReader(raw).WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	return c.Quit()
}

func messageIDDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "ekaya-procure"
}

type unconfiguredSender struct{}

func (unconfiguredSender) Configured() bool {
	return false
}

func (unconfiguredSender) Send(context.Context, *OutgoingMessage) (string, error) {
	return "", notConfigured("send", "Email is not configured. Set SMTP_HOST, SMTP_USER and SMTP_PASSWORD to deliver RFPs.")
}
