// Package ids mints the sortable identifiers used for request and audit event ids.
package ids

import (
	"io"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Source mints ULIDs that increase strictly within one process, including
// several ids minted in the same millisecond.
type Source struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewSource returns a Source reading time from now. A nil now uses time.Now.
func NewSource(now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	seed := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	return &Source{now: now, entropy: ulid.Monotonic(seed, 0)}
}

// New returns the next id.
func (s *Source) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

var defaultSource = NewSource(nil)

// New returns the next id from the process-wide source.
func New() string { return defaultSource.New() }

// Time reports when id was minted, to millisecond precision.
func Time(id string) (time.Time, bool) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()).UTC(), true
}
