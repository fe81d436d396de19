package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// NewOrderNumber builds a public order reference of the form "AT" followed
// by digits. The millisecond timestamp keeps numbers roughly sortable and
// the random suffix avoids collisions within the same millisecond.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("AT%d%03d", now.UnixMilli(), rand.Intn(1000))
}
