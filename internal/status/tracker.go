// internal/status/tracker.go
package status

// Tracker owns the live Snapshot for one device.
// It is runner-owned state: not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown with no error.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one poll outcome into the snapshot.
// err is the cycle error (every field failed), failed is the number of
// fields that failed, badSums is the number of checksum mismatches.
// It reports whether anything changed.
func (t *Tracker) Observe(err error, failed, badSums int) (Snapshot, bool) {
	next := t.snap

	if badSums > 0 {
		sum := int(next.ChecksumFailures) + badSums
		if sum > 65535 {
			sum = 65535
		}
		next.ChecksumFailures = uint16(sum)
	}

	switch {
	case err != nil:
		next.Health = HealthError
		next.LastErrorCode = ErrorCode(err)
		// seconds_in_error increments on Tick only.

	case failed > 0:
		next.Health = HealthStale
		// Partial reads keep the previous error code and timer.

	default:
		// Recovery / OK
		next.Health = HealthOK
		next.LastErrorCode = CodeNone
		next.SecondsInError = 0
	}

	changed := next != t.snap
	t.snap = next
	return next, changed
}

// Tick advances seconds_in_error once while not OK. It never wraps.
func (t *Tracker) Tick() (Snapshot, bool) {
	if t.snap.Health == HealthOK || t.snap.Health == HealthUnknown {
		return t.snap, false
	}
	if t.snap.SecondsInError == 65535 {
		return t.snap, false
	}
	t.snap.SecondsInError++
	return t.snap, true
}
