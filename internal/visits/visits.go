package visits

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const keyPrefix = "last_visit:"

// KV is the get/set storage capability the tracker needs.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryKV is a concurrency-safe in-memory KV.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Visit describes one client visit.
type Visit struct {
	ClientID string `json:"clientId"`
	// Previous is the unix time of the client's prior visit, nil on a first visit.
	Previous *int64 `json:"previous,omitempty"`
	Current  int64  `json:"current"`
}

// Tracker records the last visit of each client.
type Tracker struct {
	kv KV
}

func NewTracker(kv KV) *Tracker {
	return &Tracker{kv: kv}
}

// Visit records a visit by clientID at now and returns the previous one.
// Empty or malformed client IDs are replaced by a freshly generated one.
func (t *Tracker) Visit(clientID string, now time.Time) (Visit, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		id = uuid.New()
	}

	v := Visit{ClientID: id.String(), Current: now.Unix()}
	key := keyPrefix + v.ClientID

	if raw, ok := t.kv.Get(key); ok {
		prev, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Visit{}, fmt.Errorf("corrupt last visit for %s: %w", v.ClientID, err)
		}
		v.Previous = &prev
	}

	t.kv.Set(key, strconv.FormatInt(v.Current, 10))
	return v, nil
}
