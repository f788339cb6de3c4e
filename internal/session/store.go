package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrCorruptSession = errors.New("session record is corrupt")
)

type Flash struct {
	Kind    string `msgpack:"kind"`
	Title   string `msgpack:"title"`
	Message string `msgpack:"message"`
}

// Record is everything stored for one signed-in employer.
type Record struct {
	ID          string      `msgpack:"id"`
	Token       string      `msgpack:"token"`
	// CSRF must accompany every form post of this session.
	CSRF        string      `msgpack:"csrf"`
	User        domain.User `msgpack:"user"`
	IdleMinutes int         `msgpack:"idle_minutes"`
	CreatedAt   time.Time   `msgpack:"created_at"`
	LastSeen    time.Time   `msgpack:"last_seen"`
	Flash       *Flash      `msgpack:"flash,omitempty"`
}

// Store persists records by id. Load returns ErrNotFound for unknown ids
// and ErrCorruptSession when the stored bytes do not decode.
//
// Update applies fn to the stored record and saves it with the record's
// idle timeout as TTL, with no other write to the same id in between. An
// error from fn leaves the stored record untouched. fn may run more than
// once.
type Store interface {
	Load(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record, ttl time.Duration) error
	Update(ctx context.Context, id string, fn func(*Record) error) (Record, error)
	Delete(ctx context.Context, id string) error
}

func encodeRecord(rec Record) ([]byte, error) {
	return msgpack.Marshal(&rec)
}

func decodeRecord(raw []byte) (Record, error) {
	var rec Record
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("%w: missing id", ErrCorruptSession)
	}
	return rec, nil
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

// MemoryStore keeps encoded records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

// load expects m.mu held.
func (m *MemoryStore) load(id string) (Record, error) {
	entry, ok := m.entries[id]
	if ok && !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.entries, id)
		ok = false
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return decodeRecord(entry.raw)
}

func (m *MemoryStore) Save(_ context.Context, rec Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(rec, ttl)
}

func (m *MemoryStore) save(rec Record, ttl time.Duration) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	entry := memoryEntry{raw: raw}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.entries[rec.ID] = entry
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Record) error) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.load(id)
	if err != nil {
		return Record{}, err
	}
	if err := fn(&rec); err != nil {
		return Record{}, err
	}
	if err := m.save(rec, rec.idle()); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// PutRaw stores bytes as is, bypassing encoding.
func (m *MemoryStore) PutRaw(id string, raw []byte) {
	m.mu.Lock()
	m.entries[id] = memoryEntry{raw: raw}
	m.mu.Unlock()
}

// RedisStore keeps records under prefix:id with a TTL, so idle sessions
// disappear on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "panel:session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + ":" + id
}

func (r *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeRecord(raw)
}

func (r *RedisStore) Save(ctx context.Context, rec Record, ttl time.Duration) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(rec.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// maxUpdateAttempts bounds retries when another writer touches the key
// between WATCH and EXEC.
const maxUpdateAttempts = 5

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Record) error) (Record, error) {
	key := r.key(id)
	var rec Record
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}
		rec, err = decodeRecord(raw)
		if err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
		encoded, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, rec.idle())
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return Record{}, err
		}
	}
	return Record{}, fmt.Errorf("redis update %s: too much contention", id)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
