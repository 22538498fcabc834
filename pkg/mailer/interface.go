// Package mailer defines the outbound email transport used to deliver
// registration confirmations and classifies its failures into the small set of
// causes the dispatcher reports to callers.
package mailer

import "context"

// Message is a single HTML email addressed to one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport is the abstraction for email providers. Implementations must not
// keep session state between calls: every Send authenticates on its own.
//
//go:generate mockgen -package mockmailer -source=interface.go -destination=mock/mockmailer.go *
type Transport interface {
	// Ready reports a configuration error when required credentials are absent.
	// It performs no network access.
	Ready() error
	// Verify connects and authenticates without sending anything.
	Verify(ctx context.Context) error
	// Send delivers msg and returns the provider message ID.
	Send(ctx context.Context, msg Message) (string, error)
}
