// internal/poller/types.go
package poller

import (
	"time"

	"github.com/svenk123/dps150tool/internal/session"
)

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Name string
	At   time.Time

	// Model is the device model name, read once per connection.
	// Empty until a connection has identified itself.
	Model string

	Telemetry session.Telemetry

	// ChecksumFailures counts fields whose response failed checksum
	// verification in this cycle. Their values are still reported.
	ChecksumFailures int

	// Err is non-nil only when no field could be read, or no client
	// could be created.
	Err error
}
