package mailstore

import (
	"context"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset" // register extended charsets for MIME decoding

	"github.com/mailsonar/mailsonar/core"
)

const defaultIMAPPort = "993"

// IMAPStore is a Store backed by an IMAP mailbox over TLS.
type IMAPStore struct {
	client *imapclient.Client
	logger *slog.Logger
}

var _ Store = (*IMAPStore)(nil)

// Option configures an IMAPStore.
type Option func(*IMAPStore)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *IMAPStore) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// Dial connects to the IMAP server over TLS and logs in. A host without a
// port gets the standard IMAPS port 993. Connection and auth failures are
// returned as-is.
func Dial(host, username, password string, opts ...Option) (*IMAPStore, error) {
	addr := host
	if !strings.Contains(addr, ":") {
		addr = addr + ":" + defaultIMAPPort
	}

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, err
	}

	if err := client.Login(username, password).Wait(); err != nil {
		client.Close()
		return nil, err
	}

	s := &IMAPStore{
		client: client,
		logger: slog.Default().With("component", "imap-store", "host", host),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FetchAll retrieves every message in the folder, newest first. The
// context is accepted for interface symmetry; the underlying IMAP client
// does not support per-command cancellation.
func (s *IMAPStore) FetchAll(ctx context.Context, folder string) ([]*core.Email, error) {
	if folder == "" {
		folder = DefaultFolder
	}

	selected, err := s.client.Select(folder, nil).Wait()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("selected folder", "folder", folder, "messages", selected.NumMessages)
	if selected.NumMessages == 0 {
		return []*core.Email{}, nil
	}

	var seqSet imap.SeqSet
	seqSet.AddRange(1, selected.NumMessages)

	bodySection := &imap.FetchItemBodySection{}
	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	messages, err := s.client.Fetch(seqSet, fetchOptions).Collect()
	if err != nil {
		return nil, err
	}

	// IMAP returns oldest first; listings and search want newest first.
	emails := make([]*core.Email, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		raw := messages[i].FindBodySection(bodySection)
		emails = append(emails, parseMessage(messages[i].Envelope, raw))
	}
	return emails, nil
}

// Close logs out and drops the connection.
func (s *IMAPStore) Close() error {
	defer s.client.Close()
	return s.client.Logout().Wait()
}
