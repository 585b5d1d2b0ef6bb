// Package dedup drops duplicate bus deliveries. The broker gives
// at-least-once on QoS1 topics, so a handler can see the same message
// twice; redeliveries carry an identical payload, which makes a
// topic+payload hash a stable identity.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Deduper remembers message identities for a TTL window, capped in size.
type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
	now  func() time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time, 64), now: time.Now}
}

// Key builds the dedup identity for a delivery.
func Key(topic string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(topic))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Seen records the delivery and reports whether it was already seen
// within the TTL. First sight returns false.
func (d *Deduper) Seen(topic string, payload []byte) bool {
	if d == nil {
		return false
	}
	id := Key(topic, payload)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return true
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.prune(now)
	}
	return false
}

// prune evicts expired entries; caller holds the lock.
func (d *Deduper) prune(now time.Time) {
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
		if len(d.seen) <= d.max {
			return
		}
	}
}
