package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is derived from message content so that the same message always
// receives the same ID, no matter when or how it was fetched.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Email is a single mail item as retrieved from a mail store.
// Records are immutable once built: the search engine never modifies
// or persists them.
type Email struct {
	Id       ID
	Subject  string
	From     string
	Date     string
	Body     string // preview, at most the first 200 characters of FullBody
	FullBody string
}

// ContentID computes the content-derived identifier for an email.
// From, date and subject together identify a message well enough for
// snapshot deduplication and display purposes.
func (e *Email) ContentID() ID {
	return IDFromContent(e.From + "|" + e.Date + "|" + e.Subject)
}

// SearchResult pairs an email with its cosine similarity score against
// a query. Scores are nominally in [-1, 1].
type SearchResult struct {
	Email *Email
	Score float32
}
