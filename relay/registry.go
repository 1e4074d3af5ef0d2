// Package relay implements the lobby-rendezvous TCP server: accepting
// client connections, handling the create/join lobby control protocol,
// and funneling input frames between the two peers of a match once
// they are paired.
package relay

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultHostWait bounds how long a lobby's creator waits for a joiner
// before giving up, so an abandoned lobby never pins a goroutine and
// a connection open indefinitely.
const DefaultHostWait = 2 * time.Minute

const (
	registryTTL     = 5 * time.Minute
	maxCodeAttempts = 8
)

// Registry maps a lobby code to the one-shot channel its host is
// waiting on. It wraps go-cache purely for Add's atomic
// insert-if-absent (used to retry on a random code collision without a
// second lock alongside the cache's own) and for its built-in
// expiration, which reaps abandoned lobbies even if a host's process
// vanishes without calling Cancel.
type Registry struct {
	cache *cache.Cache
}

// NewRegistry builds an empty lobby registry.
func NewRegistry() *Registry {
	return &Registry{cache: cache.New(registryTTL, registryTTL/2)}
}

// Create allocates a random lobby code not currently in use and returns
// the channel its caller should select on (paired with its own
// timeout) to receive the joiner's connection.
func (r *Registry) Create() (int32, <-chan net.Conn, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := rand.Int31()
		handoff := make(chan net.Conn, 1)
		if err := r.cache.Add(key(code), handoff, cache.DefaultExpiration); err == nil {
			return code, handoff, nil
		}
	}
	return 0, nil, fmt.Errorf("relay: no free lobby code after %d attempts", maxCodeAttempts)
}

// Exists reports whether code currently names a lobby waiting for a
// joiner. Callers use this to decide which status to write back to
// the joiner before attempting the actual handoff, so that write
// happens before conn is handed to the host (who may start writing to
// it immediately).
func (r *Registry) Exists(code int32) bool {
	_, found := r.cache.Get(key(code))
	return found
}

// Join hands conn off to the lobby identified by code, if one is still
// registered. It reports false for an unknown, expired, or
// already-claimed code; the caller should reply JoinUnknown in that
// case.
func (r *Registry) Join(code int32, conn net.Conn) bool {
	v, found := r.cache.Get(key(code))
	if !found {
		return false
	}
	handoff := v.(chan net.Conn)
	r.cache.Delete(key(code))

	select {
	case handoff <- conn:
		return true
	default:
		// The one-slot handoff channel already holds another joiner's
		// connection; treat this the same as an unknown lobby.
		return false
	}
}

// Cancel removes a lobby that nobody joined, e.g. after the host's
// wait timer expires or the host disconnects first.
func (r *Registry) Cancel(code int32) {
	r.cache.Delete(key(code))
}

func key(code int32) string {
	return fmt.Sprintf("%d", code)
}
