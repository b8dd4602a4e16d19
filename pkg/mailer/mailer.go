package mailer

import "context"

// Message is a single outbound email. Bodies are pre-rendered HTML; the
// transport adds nothing beyond the sender identity.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	HTML      string
}

// Mailer is any transport that can deliver a message. Delivery is
// best-effort: callers log failures and never fail the request.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
