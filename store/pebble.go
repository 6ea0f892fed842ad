package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"
)

// PebbleStoreConfig configures a durable on-disk snapshot store.
type PebbleStoreConfig struct {
	Path   string
	Prefix string // key namespace, defaults to "snapshot:"
	Opts   *pebble.Options
}

// PebbleStore persists values to an embedded LSM-tree database, for a
// host that wants charge-point snapshots to survive a process crash
// without standing up an external dependency.
type PebbleStore[T any] struct {
	db     *pebble.DB
	prefix []byte

	mu     sync.RWMutex
	closed bool
}

// NewPebbleStore opens (or creates) the database at cfg.Path.
func NewPebbleStore[T any](cfg PebbleStoreConfig) (*PebbleStore[T], error) {
	opts := cfg.Opts
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, errors.Wrap(err, "store: open pebble database")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "snapshot:"
	}
	return &PebbleStore[T]{db: db, prefix: []byte(prefix)}, nil
}

func (p *PebbleStore[T]) key(id string) []byte {
	k := make([]byte, len(p.prefix)+len(id))
	copy(k, p.prefix)
	copy(k[len(p.prefix):], id)
	return k
}

func (p *PebbleStore[T]) checkOpen() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrStoreClosed
	}
	return nil
}

func (p *PebbleStore[T]) Save(ctx context.Context, key string, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.checkOpen(); err != nil {
		return err
	}
	data, err := cbor.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "store: encode value")
	}
	return p.db.Set(p.key(key), data, pebble.Sync)
}

func (p *PebbleStore[T]) Load(ctx context.Context, key string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := p.checkOpen(); err != nil {
		return zero, err
	}
	data, closer, err := p.db.Get(p.key(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return zero, ErrNotFound
		}
		return zero, errors.Wrap(err, "store: read value")
	}
	defer closer.Close()

	var value T
	if err := cbor.Unmarshal(data, &value); err != nil {
		return zero, errors.Wrap(err, "store: decode value")
	}
	return value, nil
}

func (p *PebbleStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := p.checkOpen(); err != nil {
		return false, err
	}
	_, closer, err := p.db.Get(p.key(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "store: check existence")
	}
	closer.Close()
	return true, nil
}

func (p *PebbleStore[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.checkOpen(); err != nil {
		return err
	}
	return p.db.Delete(p.key(key), pebble.Sync)
}

func (p *PebbleStore[T]) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.checkOpen(); err != nil {
		return nil, err
	}

	upper := append(append([]byte{}, p.prefix...), 0xff)
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: p.prefix, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, "store: iterate")
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()[len(p.prefix):]))
	}
	return keys, iter.Error()
}

func (p *PebbleStore[T]) Count(ctx context.Context) (int64, error) {
	keys, err := p.List(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}

func (p *PebbleStore[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrStoreClosed
	}
	p.closed = true
	return p.db.Close()
}
