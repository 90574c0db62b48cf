package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection paths. Each holds one whole JSON document.
const (
	PathRides                  = "rides"
	PathOperators              = "operators"
	PathTicketSalesPersonnel   = "ticketSalesPersonnel"
	PathCounters               = "counters"
	PathDailyCounts            = "dailyCounts"
	PathDailyCountDetails      = "dailyCountDetails"
	PathTicketSalesData        = "ticketSalesData"
	PathOperatorAssignments    = "operatorAssignments"
	PathTicketSalesAssignments = "ticketSalesAssignments"
	PathAttendance             = "attendance"
	PathHistoryLog             = "historyLog"
	PathHandovers              = "handovers"
	PathPackageSales           = "packageSales"
)

// Paths lists every collection in backup order.
var Paths = []string{
	PathRides,
	PathOperators,
	PathTicketSalesPersonnel,
	PathCounters,
	PathDailyCounts,
	PathDailyCountDetails,
	PathTicketSalesData,
	PathOperatorAssignments,
	PathTicketSalesAssignments,
	PathAttendance,
	PathHistoryLog,
	PathHandovers,
	PathPackageSales,
}

// KnownPath reports whether path names a collection.
func KnownPath(path string) bool {
	for _, p := range Paths {
		if p == path {
			return true
		}
	}
	return false
}

var (
	// ErrConflict is returned when an Update keeps losing to concurrent writers.
	ErrConflict = errors.New("store: concurrent update conflict")
	// ErrUnknownPath is returned for paths outside Paths.
	ErrUnknownPath = errors.New("store: unknown path")
)

// Snapshot is the full value of one collection at a point in time. A nil
// Value means the path is unset.
type Snapshot struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// UpdateFunc receives the current value (nil when unset) and returns the value
// to store. Returning an error aborts the update.
type UpdateFunc func(current json.RawMessage) (json.RawMessage, error)

// SnapshotStore is the record store. There are no deltas and no locking across
// paths: every write replaces a whole collection and the last write wins.
type SnapshotStore interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Set(ctx context.Context, path string, value json.RawMessage) error
	// Update is a transactional read-modify-write of a single path.
	Update(ctx context.Context, path string, fn UpdateFunc) error
	// Subscribe delivers the current value and then every change until ctx is done.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, error)
}

func checkPath(path string) error {
	if !KnownPath(path) {
		return fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	return nil
}

// IsUnset reports whether a raw value represents an unset path.
func IsUnset(v json.RawMessage) bool {
	return len(v) == 0 || string(v) == "null"
}
