package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer sends plain-text mail over SMTP with STARTTLS when the
// server offers it (the coordination mailbox uses submission port 587).
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		Host: strings.TrimSpace(host),
		Port: port,
		User: strings.TrimSpace(user),
		Pass: strings.TrimSpace(pass),
		From: strings.TrimSpace(from),
	}
}

func (s *SMTPMailer) Send(msg Message) error {
	if s.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	buf.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	return smtp.SendMail(addr, auth, s.From, []string{to}, buf.Bytes())
}
