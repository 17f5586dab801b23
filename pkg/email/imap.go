package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// Mailbox yields unread vendor replies. Messages returned are marked read.
type Mailbox interface {
	FetchUnseen(ctx context.Context) ([]*models.InboundEmail, error)
}

// IMAPMailbox reads one IMAP folder.
type IMAPMailbox struct {
	cfg    config.IMAPConfig
	logger *zap.Logger
}

var _ Mailbox = (*IMAPMailbox)(nil)

// NewMailbox returns an IMAP mailbox, or one that fails every fetch with a
// not_configured TransportError when the IMAP host or credentials are missing.
func NewMailbox(cfg config.IMAPConfig, logger *zap.Logger) Mailbox {
	logger = logger.Named("imap")
	if !cfg.IsConfigured() {
		logger.Warn("IMAP is not configured; checking for vendor replies is disabled")
		return unconfiguredMailbox{}
	}
	return &IMAPMailbox{cfg: cfg, logger: logger}
}

func (m *IMAPMailbox) FetchUnseen(ctx context.Context) ([]*models.InboundEmail, error) {
	emails, err := m.fetchUnseen(ctx)
	if err != nil {
		return nil, ClassifyTransportError("fetch", err)
	}
	return emails, nil
}

func (m *IMAPMailbox) fetchUnseen(ctx context.Context) ([]*models.InboundEmail, error) {
	c, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			m.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()

	if err := c.Login(m.cfg.User, m.cfg.Password); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if _, err := c.Select(m.cfg.Mailbox, false); err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", m.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen messages: %w", err)
	}
	if len(uids) == 0 {
		return []*models.InboundEmail{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	emails := make([]*models.InboundEmail, 0, len(uids))
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			m.logger.Warn("Message without body", zap.Uint32("uid", msg.Uid))
			continue
		}
		parsed, err := ParseMessage(body)
		if err != nil {
			m.logger.Warn("Failed to parse message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		emails = append(emails, parsed)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	flags := []interface{}{imap.SeenFlag}
	if err := c.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
		m.logger.Warn("Failed to mark messages as read", zap.Error(err))
	}

	m.logger.Info("Fetched unread messages",
		zap.Int("count", len(emails)),
		zap.String("mailbox", m.cfg.Mailbox))
	return emails, nil
}

func (m *IMAPMailbox) dial(ctx context.Context) (*client.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	timeout := m.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout || timeout == 0 {
			timeout = d
		}
	}
	dialer := &net.Dialer{Timeout: timeout}

	var (
		c   *client.Client
		err error
	)
	if m.cfg.TLS {
		c, err = client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: m.cfg.Host})
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c.Timeout = timeout
	return c, nil
}

type unconfiguredMailbox struct{}

func (unconfiguredMailbox) FetchUnseen(context.Context) ([]*models.InboundEmail, error) {
	return nil, notConfigured("fetch", "Email checking is not configured. Set IMAP_HOST, IMAP_USER and IMAP_PASSWORD to read vendor replies.")
}
