package server

import "sync/atomic"

// Stats holds connection and per-service counters, read with Snapshot.
// Modeled on the teacher's progress-counter idiom in dicom/directory_reader.go
// (plain sync/atomic fields rather than a mutex-guarded struct, since
// every field here is updated independently and never needs a combined
// atomic view across fields).
type Stats struct {
	ConnectionsTotal  atomic.Int64
	ConnectionsActive atomic.Int64
	ConnectionsFailed atomic.Int64

	EchoRequests  atomic.Int64
	StoreRequests atomic.Int64
	StoreFailures atomic.Int64
	FindRequests  atomic.Int64
	GetRequests   atomic.Int64
	MoveRequests  atomic.Int64

	InstancesStored atomic.Int64
	BytesReceived   atomic.Int64
}

// Snapshot is a point-in-time copy of Stats suitable for logging or a
// status endpoint.
type Snapshot struct {
	ConnectionsTotal  int64
	ConnectionsActive int64
	ConnectionsFailed int64
	EchoRequests      int64
	StoreRequests     int64
	StoreFailures     int64
	FindRequests      int64
	GetRequests       int64
	MoveRequests      int64
	InstancesStored   int64
	BytesReceived     int64
}

// Snapshot reads every counter into a plain value.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		ConnectionsTotal:  s.ConnectionsTotal.Load(),
		ConnectionsActive: s.ConnectionsActive.Load(),
		ConnectionsFailed: s.ConnectionsFailed.Load(),
		EchoRequests:      s.EchoRequests.Load(),
		StoreRequests:     s.StoreRequests.Load(),
		StoreFailures:     s.StoreFailures.Load(),
		FindRequests:      s.FindRequests.Load(),
		GetRequests:       s.GetRequests.Load(),
		MoveRequests:      s.MoveRequests.Load(),
		InstancesStored:   s.InstancesStored.Load(),
		BytesReceived:     s.BytesReceived.Load(),
	}
}
