package badgercache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsonar/mailsonar/core"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := NewMemoryCache()
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testEmails() []*core.Email {
	emails := []*core.Email{
		{Subject: "Invoice due", From: "billing@example.com", Date: "Fri, 02 Jan 2026 15:04:05 +0000", Body: "pay up", FullBody: "pay up, please"},
		{Subject: "Lunch?", From: "alice@example.com", Date: "Thu, 01 Jan 2026 12:00:00 +0000", Body: "tacos", FullBody: "tacos at noon"},
		{Subject: "Réunion", From: "bob@example.com", Date: "Wed, 31 Dec 2025 09:00:00 +0000", Body: "à demain", FullBody: "à demain"},
	}
	for _, e := range emails {
		e.Id = e.ContentID()
	}
	return emails
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	cache := newTestCache(t)
	emails := testEmails()

	require.NoError(t, cache.SaveSnapshot("INBOX", emails))

	snapshot, err := cache.LoadSnapshot("INBOX")
	require.NoError(t, err)

	assert.Equal(t, "INBOX", snapshot.Folder)
	assert.False(t, snapshot.FetchedAt.IsZero())
	assert.WithinDuration(t, time.Now(), snapshot.FetchedAt, time.Minute)

	require.Len(t, snapshot.Emails, len(emails))
	for i, email := range emails {
		assert.Equal(t, *email, *snapshot.Emails[i], "order and content must survive the round trip")
	}
}

func TestSaveSnapshot_Overwrites(t *testing.T) {
	cache := newTestCache(t)
	emails := testEmails()

	require.NoError(t, cache.SaveSnapshot("INBOX", emails))
	require.NoError(t, cache.SaveSnapshot("INBOX", emails[:1]))

	snapshot, err := cache.LoadSnapshot("INBOX")
	require.NoError(t, err)
	assert.Len(t, snapshot.Emails, 1)
}

func TestSaveSnapshot_Empty(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.SaveSnapshot("Archive", nil))

	snapshot, err := cache.LoadSnapshot("Archive")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Emails)
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.LoadSnapshot("Nope")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestDeleteSnapshot(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.SaveSnapshot("INBOX", testEmails()))
	require.NoError(t, cache.DeleteSnapshot("INBOX"))

	_, err := cache.LoadSnapshot("INBOX")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	// Deleting again is fine.
	assert.NoError(t, cache.DeleteSnapshot("INBOX"))
}

func TestFolders(t *testing.T) {
	cache := newTestCache(t)

	folders, err := cache.Folders()
	require.NoError(t, err)
	assert.Empty(t, folders)

	require.NoError(t, cache.SaveSnapshot("INBOX", testEmails()))
	require.NoError(t, cache.SaveSnapshot("Archive", nil))

	folders, err = cache.Folders()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"INBOX", "Archive"}, folders)
}

func TestEmptyFolderName(t *testing.T) {
	cache := newTestCache(t)

	assert.ErrorIs(t, cache.SaveSnapshot("", nil), ErrFolderRequired)
	_, err := cache.LoadSnapshot("")
	assert.ErrorIs(t, err, ErrFolderRequired)
	assert.ErrorIs(t, cache.DeleteSnapshot(""), ErrFolderRequired)
}

func TestSnapshotSerialization_RoundTrip(t *testing.T) {
	original := &Snapshot{
		Folder:    "INBOX",
		FetchedAt: time.Date(2026, 1, 2, 15, 4, 5, 123456000, time.UTC),
		Emails:    testEmails(),
	}

	restored, err := UnmarshalSnapshot(MarshalSnapshot(original))
	require.NoError(t, err)

	assert.Equal(t, original.Folder, restored.Folder)
	assert.True(t, original.FetchedAt.Equal(restored.FetchedAt), "timestamps carry microsecond precision")
	require.Len(t, restored.Emails, len(original.Emails))
	for i := range original.Emails {
		assert.Equal(t, *original.Emails[i], *restored.Emails[i])
	}
}

func TestSnapshotSerialization_Truncated(t *testing.T) {
	data := MarshalSnapshot(&Snapshot{
		Folder:    "INBOX",
		FetchedAt: time.Now(),
		Emails:    testEmails(),
	})

	_, err := UnmarshalSnapshot(data[:len(data)/2])
	assert.Error(t, err)
}
