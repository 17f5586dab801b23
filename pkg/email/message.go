package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset" // decodes non-UTF-8 vendor replies
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// OutgoingMessage is a plain-text email to a single recipient.
type OutgoingMessage struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	Text     string
}

// Compose renders msg as multipart/alternative MIME with a text part and an
// HTML rendering of the same text. It returns the message and its generated
// Message-ID in angle brackets.
func Compose(msg *OutgoingMessage, domain string, now time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.From}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)

	id := uuid.NewString() + "@" + domain
	h.SetMessageID(id)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create message writer: %w", err)
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create inline writer: %w", err)
	}

	if err := writePart(tw, "text/plain", msg.Text); err != nil {
		return nil, "", err
	}
	if err := writePart(tw, "text/html", textToHTML(msg.Text)); err != nil {
		return nil, "", err
	}

	if err := tw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close message writer: %w", err)
	}
	return buf.Bytes(), "<" + id + ">", nil
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := tw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}

func textToHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>\n")
}

// ParseMessage reads a raw RFC 5322 message. The body is the first
// text/plain part, or the first text/html part flattened to text when the
// message has no plain part. Attachments are ignored.
func ParseMessage(r io.Reader) (*models.InboundEmail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	defer mr.Close()

	out := &models.InboundEmail{}
	if subject, err := mr.Header.Subject(); err == nil {
		out.Subject = subject
	} else {
		out.Subject = mr.Header.Get("Subject")
	}
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		out.From = addrs[0].String()
	} else {
		out.From = mr.Header.Get("From")
	}
	if id, err := mr.Header.MessageID(); err == nil && id != "" {
		out.MessageID = "<" + id + ">"
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		out.ReceivedAt = &date
	}

	var plain, htmlBody string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "text/plain" && contentType != "text/html" {
			continue
		}
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s body: %w", contentType, err)
		}
		if contentType == "text/plain" && plain == "" {
			plain = strings.ReplaceAll(string(b), "\r\n", "\n")
		} else if contentType == "text/html" && htmlBody == "" {
			htmlBody = string(b)
		}
	}

	switch {
	case strings.TrimSpace(plain) != "":
		out.Body = strings.TrimSpace(plain)
	case htmlBody != "":
		out.Body = HTMLToText(htmlBody)
	}
	return out, nil
}
