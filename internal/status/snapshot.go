// internal/status/snapshot.go
package status

// Snapshot is exactly what the status writer is allowed to deliver.
// It holds no logic and no memory beyond the current state.
type Snapshot struct {
	Health           uint16
	LastErrorCode    uint16
	SecondsInError   uint16
	ChecksumFailures uint16
}
