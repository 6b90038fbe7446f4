package id

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// CorrelationPrefix starts every dispatcher correlation id
const CorrelationPrefix = "req_"

// Correlator issues correlation ids of the form req_<unix-millis>_<counter>.
// The counter is strictly increasing for the life of the Correlator.
type Correlator struct {
	counter atomic.Uint64
	now     func() time.Time
}

// NewCorrelator creates a Correlator using the wall clock
func NewCorrelator() *Correlator {
	return &Correlator{now: time.Now}
}

// Next returns the next correlation id
func (c *Correlator) Next() string {
	n := c.counter.Add(1)
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	buf := make([]byte, 0, 32)
	buf = append(buf, CorrelationPrefix...)
	buf = strconv.AppendInt(buf, now().UnixMilli(), 10)
	buf = append(buf, '_')
	buf = strconv.AppendUint(buf, n, 10)
	return string(buf)
}

// NewUUID generates a new UUID v4
func NewUUID() string {
	return uuid.New().String()
}

// ValidateUUID validates a UUID format
func ValidateUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
