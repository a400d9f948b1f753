package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/logger"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dgraph-io/badger/v4"
)

// Config configures the badger-backed cache.
type Config struct {
	// Path is the cache directory. Ignored when InMemory is true.
	Path     string
	InMemory bool
	// TTL expires cached entries; zero keeps them forever.
	TTL    time.Duration
	Logger logger.Logger
}

// entry is the on-disk value, CBOR encoded.
type entry struct {
	ID       models.ID `cbor:"id"`
	Data     []byte    `cbor:"data"`
	StoredAt time.Time `cbor:"stored_at"`
}

// Badger fronts a badger database with a Memory layer. Raw content set
// through SetRawContent stays in memory; StoreInCache writes through to disk.
// ClearRawContent drops the memory copy only.
type Badger struct {
	*Memory

	db          *badger.DB
	ttl         time.Duration
	marshaler   models.CborMarshaler
	unmarshaler models.CborUnmarshaler
}

var _ Provider = (*Badger)(nil)

type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates the cache described by cfg. The caller must Close it.
func Open(cfg Config) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open content cache: %w", err)
	}

	return &Badger{Memory: NewMemory(), db: db, ttl: cfg.TTL}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// GetFromCache looks in memory first, then on disk. A disk hit is promoted
// to memory.
func (b *Badger) GetFromCache(ctx context.Context, id models.ID) ([]byte, bool, error) {
	if raw, ok := b.RawContent(id); ok {
		return raw, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var e entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return b.unmarshaler.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached content %s: %w", id, err)
	}
	if e.ID != id {
		return nil, false, fmt.Errorf("cached content %s: stored under %s", id, e.ID)
	}

	b.SetRawContent(id, e.Data)
	return e.Data, true, nil
}

// StoreInCache writes raw to memory and disk.
func (b *Badger) StoreInCache(ctx context.Context, id models.ID, raw []byte) error {
	if !id.Valid() {
		return fmt.Errorf("store content: %w", constants.ErrInvalidID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	val, err := b.marshaler.Marshal(entry{ID: id, Data: raw, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode content %s: %w", id, err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(id.String()), val)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write content %s: %w", id, err)
	}

	b.SetRawContent(id, raw)
	return nil
}

// Evict removes id from both layers.
func (b *Badger) Evict(id models.ID) error {
	b.Memory.ClearRawContent(id)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(id.String()))
	})
}
