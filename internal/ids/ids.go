package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewAuditID returns a ULID for an audit entry. Ids minted in the same process
// and millisecond still sort in creation order.
func NewAuditID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// NewRequestID returns a ULID for tagging an HTTP request.
func NewRequestID() string {
	return NewAuditID(time.Now())
}
