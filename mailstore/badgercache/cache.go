package badgercache

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/mailsonar/mailsonar/core"
)

const snapshotKeyPrefix = "snap:"

// Snapshot is a saved copy of a mailbox folder: the raw messages in their
// fetched (newest-first) order and when they were fetched. No embeddings
// and no index are ever stored; the snapshot only spares a network round
// trip, it does not precompute anything.
type Snapshot struct {
	Folder    string
	FetchedAt time.Time
	Emails    []*core.Email
}

// Cache stores folder snapshots in a BadgerDB database.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a snapshot cache at the specified path.
// Creates the directory if it doesn't exist.
func Open(filePath string, inMemory bool) (*Cache, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Cache{
		db:     db,
		logger: slog.Default().With("component", "badgercache"),
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func snapshotKey(folder string) []byte {
	return []byte(snapshotKeyPrefix + folder)
}

// SaveSnapshot stores the folder's messages, replacing any previous
// snapshot of the same folder. Message order is preserved exactly.
func (c *Cache) SaveSnapshot(folder string, emails []*core.Email) error {
	if folder == "" {
		return ErrFolderRequired
	}

	snapshot := &Snapshot{
		Folder:    folder,
		FetchedAt: time.Now().UTC(),
		Emails:    emails,
	}
	data := MarshalSnapshot(snapshot)

	err := c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(snapshotKey(folder), data)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("saved folder snapshot", "folder", folder, "emails", len(emails))
	return nil
}

// LoadSnapshot retrieves the stored snapshot for a folder.
// Returns ErrSnapshotNotFound if the folder was never saved.
func (c *Cache) LoadSnapshot(folder string) (*Snapshot, error) {
	if folder == "" {
		return nil, ErrFolderRequired
	}

	var snapshot *Snapshot
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(snapshotKey(folder))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: folder %q", ErrSnapshotNotFound, folder)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			snapshot, err = UnmarshalSnapshot(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// DeleteSnapshot removes a folder's snapshot. Deleting a folder that was
// never saved is not an error.
func (c *Cache) DeleteSnapshot(folder string) error {
	if folder == "" {
		return ErrFolderRequired
	}
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(snapshotKey(folder))
	})
}

// Folders lists the folders with a stored snapshot.
func (c *Cache) Folders() ([]string, error) {
	var folders []string
	err := c.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(snapshotKeyPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			folders = append(folders, strings.TrimPrefix(key, snapshotKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}
