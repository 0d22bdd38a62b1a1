// Package keypool holds an ordered pool of API credentials with a rotating
// cursor. Rotation is advisory: concurrent requests may observe the same or an
// adjacent key, which is harmless because keys are interchangeable.
package keypool

import (
	"strings"
	"sync/atomic"
)

type Pool struct {
	keys   []string
	cursor atomic.Uint64
}

// New builds a pool from the given keys, dropping empty entries.
func New(keys []string) *Pool {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}

	return &Pool{keys: cleaned}
}

func (p *Pool) Len() int {
	return len(p.keys)
}

// Current returns the key at the cursor without moving it.
func (p *Pool) Current() string {
	if len(p.keys) == 0 {
		return ""
	}

	return p.keys[p.cursor.Load()%uint64(len(p.keys))]
}

// Advance moves the cursor to the next key, wrapping around, and returns it.
func (p *Pool) Advance() string {
	if len(p.keys) == 0 {
		return ""
	}

	return p.keys[p.cursor.Add(1)%uint64(len(p.keys))]
}
