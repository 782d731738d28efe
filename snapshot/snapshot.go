// Package snapshot implements spec.md §6's persistence schema and the
// Repository/Publisher capability boundaries: once a Snapshot is sealed
// it becomes shared-read, and no component mutates it thereafter.
package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/shadowatlas/atlas/poseidon"
)

// Snapshot is an immutable record of one completed build (spec.md §3).
type Snapshot struct {
	SnapshotID     string
	GlobalRoot     poseidon.Field
	ContentAddress string
	CountryRoots   map[string]CountryRootRecord
	BoundaryCount  int
	CellCount      int
	CreatedAt      time.Time
	SupersededAt   *time.Time
	ArchivedAt     *time.Time
}

// CountryRootRecord is one country's root and content address within a
// sealed Snapshot.
type CountryRootRecord struct {
	Root           poseidon.Field
	ContentAddress string
	CellCount      int
}

// NewSnapshotID mints a UUIDv4 identifier; spec.md §6 requires
// "ULID-shaped or UUIDv4" — this module uses UUIDv4, the library already
// present in its dependency stack.
func NewSnapshotID() string {
	return uuid.NewString()
}

// Seal finalizes a Snapshot. Once returned, the caller must treat it as
// read-only (spec.md §3: "no component mutates a sealed Snapshot").
func Seal(globalRoot poseidon.Field, contentAddress string, countryRoots map[string]CountryRootRecord, boundaryCount, cellCount int, createdAt time.Time) Snapshot {
	return Snapshot{
		SnapshotID:     NewSnapshotID(),
		GlobalRoot:     globalRoot,
		ContentAddress: contentAddress,
		CountryRoots:   countryRoots,
		BoundaryCount:  boundaryCount,
		CellCount:      cellCount,
		CreatedAt:      createdAt,
	}
}
