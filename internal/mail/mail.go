// Package mail renders and delivers outbound notification email. Delivery
// failures are surfaced to the calling task and never propagate into ledger
// writes.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a single outbound email with an HTML body.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender creates a sender for the given relay. Username may be empty
// for unauthenticated relays.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		auth: auth,
		from: from,
	}
}

// Send delivers a single message.
func (s *SMTPSender) Send(msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
