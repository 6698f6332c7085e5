// Package inbox pulls coordination request emails from an IMAP mailbox
// and feeds their bodies to the request processor.
package inbox

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/construction-robotics/site-coordination/internal/processor"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

// Message is one fetched email, reduced to what the processor needs.
type Message struct {
	Subject string
	Body    string
}

type Fetcher interface {
	FetchUnseen() ([]Message, error)
}

// IMAPFetcher fetches unseen messages over IMAP with TLS. Fetching the
// body without PEEK marks the message seen on the server, so a message
// is only ever handed over once.
type IMAPFetcher struct {
	host     string
	user     string
	password string
	mailbox  string
}

func NewIMAPFetcher(host, user, password, mailbox string) *IMAPFetcher {
	return &IMAPFetcher{host: host, user: user, password: password, mailbox: mailbox}
}

func (f *IMAPFetcher) FetchUnseen() ([]Message, error) {
	addr := f.host
	if !strings.Contains(addr, ":") {
		addr += ":993"
	}
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap: %w", err)
	}
	defer c.Logout()

	if err := c.Login(f.user, f.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}

	mailbox := f.mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, false); err != nil {
		return nil, fmt.Errorf("select mailbox %q: %w", mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	ch := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, ch)
	}()

	var messages []Message
	for msg := range ch {
		var subject string
		if msg.Envelope != nil {
			subject = msg.Envelope.Subject
		}
		r := msg.GetBody(section)
		if r == nil {
			logger.Warn("Fetched message has no body", "subject", subject)
			continue
		}
		body, err := extractText(r)
		if err != nil {
			logger.Warn("Failed to read message body", "subject", subject, "error", err)
			continue
		}
		messages = append(messages, Message{Subject: subject, Body: body})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return messages, nil
}

// extractText returns the first text/plain part, falling back to the
// first inline part of any type.
func extractText(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}

	var fallback string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if _, ok := part.Header.(*mail.InlineHeader); !ok {
			continue
		}
		contentType, _, _ := part.Header.(*mail.InlineHeader).ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return "", err
		}
		if contentType == "text/plain" {
			return string(data), nil
		}
		if fallback == "" {
			fallback = string(data)
		}
	}
	return fallback, nil
}

// Process fetches all unseen messages and runs each body through the
// processor. A message that fails to parse is reported and skipped; it
// never aborts the batch.
func Process(ctx context.Context, fetcher Fetcher, proc *processor.Processor) ([]string, error) {
	messages, err := fetcher.FetchUnseen()
	if err != nil {
		return nil, err
	}

	results := make([]string, 0, len(messages))
	for _, msg := range messages {
		result, err := proc.HandleBody(ctx, msg.Body)
		if err != nil {
			logger.WarnContext(ctx, "Skipping message", "subject", msg.Subject, "error", err)
			results = append(results, fmt.Sprintf("skipped %q: %v", msg.Subject, err))
			continue
		}
		results = append(results, result.Message)
	}
	return results, nil
}
