package mailstore

import (
	"context"

	"github.com/mailsonar/mailsonar/core"
)

const (
	// DefaultFolder is the mailbox folder used when none is specified.
	DefaultFolder = "INBOX"

	// PreviewLen is the number of characters of the full body kept in the
	// preview body for listings.
	PreviewLen = 200
)

// Store retrieves email from a mailbox. Implementations add no
// interpretation to transport or auth failures: errors propagate to the
// caller unmodified, and no retries are performed.
type Store interface {
	// FetchAll retrieves every message in the folder, newest first.
	FetchAll(ctx context.Context, folder string) ([]*core.Email, error)

	// Close releases the connection to the mail server.
	Close() error
}
