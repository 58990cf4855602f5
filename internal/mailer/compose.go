package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Composer renders Messages as HTML mail from a fixed sender.
type Composer struct {
	From   mail.Address
	Domain string
	Now    func() time.Time
}

func NewComposer(fromAddress, fromName, domain string) (*Composer, error) {
	if strings.TrimSpace(fromAddress) == "" {
		return nil, errors.New("mail from address required")
	}
	if strings.TrimSpace(domain) == "" {
		return nil, errors.New("mail domain required")
	}
	return &Composer{
		From:   mail.Address{Name: fromName, Address: fromAddress},
		Domain: domain,
		Now:    time.Now,
	}, nil
}

// MessageID returns the Message-ID (without angle brackets) of a notification mail.
func (c *Composer) MessageID(msg Message) string {
	return fmt.Sprintf("%s@%s", msg.NotificationID, c.Domain)
}

// ThreadID returns the shared id referenced by every mail in a thread.
func (c *Composer) ThreadID(msg Message) string {
	return fmt.Sprintf("%s@%s", msg.ThreadKey, c.Domain)
}

func (c *Composer) Compose(msg Message) (Envelope, error) {
	if strings.TrimSpace(msg.To) == "" {
		return Envelope{}, errors.New("recipient address required")
	}

	var h mail.Header
	h.SetDate(c.Now())
	h.SetAddressList("From", []*mail.Address{&c.From})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	messageID := c.MessageID(msg)
	h.SetMessageID(messageID)
	if msg.ThreadKey != "" {
		thread := []string{c.ThreadID(msg)}
		h.SetMsgIDList("In-Reply-To", thread)
		h.SetMsgIDList("References", thread)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return Envelope{}, fmt.Errorf("create mail writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.HTMLBody); err != nil {
		_ = w.Close()
		return Envelope{}, fmt.Errorf("write mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return Envelope{}, fmt.Errorf("close mail writer: %w", err)
	}

	return Envelope{
		To:        msg.To,
		MessageID: messageID,
		ThreadKey: msg.ThreadKey,
		Raw:       buf.Bytes(),
	}, nil
}
