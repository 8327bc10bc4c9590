// Package ferris holds the entity snapshot types of the FerrisChat API.
//
// Snapshots are plain value structs identified by a snowflake ID. The cache
// package owns the canonical copy of every snapshot; application code only
// ever sees value copies, so mutating a snapshot you were handed never
// corrupts cached state.
package ferris

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ID is the universal 64-bit entity identifier. The upper bits encode the
// creation timestamp, so IDs sort by creation order.
type ID = snowflake.ID

// Epoch is the FerrisChat epoch, 2020-01-01T00:00:00 UTC, in milliseconds.
const Epoch int64 = 1_577_836_800_000

// timestamp lives in bits 22..63, milliseconds since Epoch
const timestampShift = 22

// CreationTime derives the wall-clock creation time of id without a server
// round-trip.
func CreationTime(id ID) time.Time {
	ms := int64(uint64(id)>>timestampShift) + Epoch
	return time.UnixMilli(ms).UTC()
}

// LowestIDAt returns the smallest ID a snapshot created at t can have.
// Useful as a paging boundary.
func LowestIDAt(t time.Time) ID {
	ms := t.UnixMilli() - Epoch
	if ms < 0 {
		ms = 0
	}
	return ID(uint64(ms) << timestampShift)
}
