// Package api holds Timeship's HTTP wire types: the JSON shapes exchanged
// with clients, kept separate from the internal storage/listing/snapshot
// types they're built from.
package api

// StorageInfo describes one registered storage for GET /storages. The
// capability list supplements the bare sorted-name array a minimal
// listing would return; storages[i].name alone still satisfies that
// sorted-name invariant on its own.
type StorageInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	ReadOnly     bool     `json:"read_only"`
	Capabilities []string `json:"capabilities"`
}

// StoragesList is the GET /storages response body.
type StoragesList struct {
	Storages []StorageInfo `json:"storages"`
}

// Snapshot is one entry in a SnapshotList.
type Snapshot struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Timestamp int64             `json:"timestamp"`
	Name      string            `json:"name"`
	Size      *int64            `json:"size,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SnapshotList is the GET /storages/{storage}/snapshots[/{path}] response
// body.
type SnapshotList struct {
	Storage   string     `json:"storage"`
	Path      string     `json:"path"`
	Snapshots []Snapshot `json:"snapshots"`
}
