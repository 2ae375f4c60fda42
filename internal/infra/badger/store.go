package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"video-quiz-service/internal/logging"
)

// Key layout:
//
//	user:{id}           -> user document
//	user_email:{email}  -> user id
//	user_phone:{phone}  -> user id
//	video:{id}          -> video document (ids are UUIDv7, so key order is creation order)
const (
	userPrefix       = "user:"
	userEmailPrefix  = "user_email:"
	userPhonePrefix  = "user_phone:"
	videoPrefix      = "video:"
	maxCommitRetries = 50
)

// Store is an embedded document store for users and videos.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store at path.
func Open(path string) (*Store, error) {
	return open(badger.DefaultOptions(path))
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(zerologAdapter{logging.Component("badger")}))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying on optimistic conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxCommitRetries {
			continue
		}
		return err
	}
}

func getJSON(txn *badger.Txn, key string, dst any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// scan decodes every value under prefix, in key order.
func scan[T any](txn *badger.Txn, prefix string) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []T
	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// zerologAdapter routes badger's internal logging to zerolog.
type zerologAdapter struct {
	log zerolog.Logger
}

func (a zerologAdapter) Errorf(format string, args ...interface{}) {
	a.log.Error().Msgf(format, args...)
}

func (a zerologAdapter) Warningf(format string, args ...interface{}) {
	a.log.Warn().Msgf(format, args...)
}

func (a zerologAdapter) Infof(format string, args ...interface{}) {
	a.log.Debug().Msgf(format, args...)
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.log.Trace().Msgf(format, args...)
}
