package domain

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
)

// Filter selects records by field equality
type Filter map[string]any

// Record is a stored row
type Record struct {
	ID   any            `json:"id"`
	Data map[string]any `json:"data"`
}

// Store is the storage collaborator used by the batch processor and the
// user handlers. Implementations provide their own concurrency safety.
type Store interface {
	Insert(ctx context.Context, target string, data map[string]any) (*Record, error)
	Update(ctx context.Context, target string, filter Filter, data map[string]any) (int64, error)
	Delete(ctx context.Context, target string, filter Filter) (int64, error)
}

// RecordReader reads records back for the query handlers
type RecordReader interface {
	List(ctx context.Context, target string) ([]Record, error)
	Get(ctx context.Context, target string, id any) (*Record, error)
}

// RecordStore combines both sides of the storage collaborator
type RecordStore interface {
	Store
	RecordReader
}

// ParseRecordID normalises an id taken from a path, a JSON payload or a
// storage driver to int64. Integral floats and decimal strings are accepted.
func ParseRecordID(v any) (int64, bool) {
	switch id := v.(type) {
	case int:
		return int64(id), true
	case int32:
		return int64(id), true
	case int64:
		return id, true
	case float64:
		if math.IsNaN(id) || id != math.Trunc(id) || id < math.MinInt64 || id >= -math.MinInt64 {
			return 0, false
		}
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	}
	return 0, false
}
