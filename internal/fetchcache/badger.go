package fetchcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const pageKeyPrefix = "page:"

// badgerCache persists page bodies across restarts. Keys are
// "page:<url>", values a small JSON envelope so the fetch time survives
// for status reporting. Badger's own TTL handles expiry.
type badgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

type pageEnvelope struct {
	FetchedAt time.Time `json:"fetched_at"`
	Body      []byte    `json:"body"`
}

func newBadgerCache(dir string, ttl time.Duration) (*badgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerCache{db: db, ttl: ttl}, nil
}

func (c *badgerCache) Get(_ context.Context, url string) ([]byte, bool, error) {
	key := []byte(pageKeyPrefix + url)
	var env pageEnvelope
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		cacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	cacheHits.Inc()
	return env.Body, true, nil
}

func (c *badgerCache) Set(_ context.Context, url string, body []byte) error {
	key := []byte(pageKeyPrefix + url)
	buf, err := json.Marshal(pageEnvelope{FetchedAt: time.Now().UTC(), Body: body})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, buf).WithTTL(c.ttl))
	})
}

func (c *badgerCache) Close() error {
	return c.db.Close()
}
