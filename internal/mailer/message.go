// Package mailer composes notification mail and hands it to a transport off the request path.
package mailer

import "github.com/google/uuid"

// Message is one notification mail waiting to be composed and sent.
type Message struct {
	NotificationID uuid.UUID
	To             string
	ToName         string
	Subject        string
	HTMLBody       string
	// ThreadKey groups related mails (In-Reply-To / References).
	ThreadKey string
}

// Envelope is a composed RFC 5322 message ready for a transport.
type Envelope struct {
	To        string
	MessageID string
	ThreadKey string
	Raw       []byte
}
