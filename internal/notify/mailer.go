package notify

// Mailer delivers a rendered message. Implementations never retry;
// callers log failures and move on.
type Mailer interface {
	Send(msg Message) error
}
