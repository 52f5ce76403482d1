// Package storage holds the single-table record stores that seeded
// topologies are written to.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// MaxBatchItems is the per-request item limit shared by every backend
const MaxBatchItems = 25

var (
	ErrNotFound       = errors.New("record not found")
	ErrThrottled      = errors.New("store throttled the request")
	ErrBatchTooLarge  = errors.New("batch exceeds the store item limit")
	ErrInvalidKey     = errors.New("record key must have a partition and sort key")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Key addresses one record: a partition key and a sort key
type Key struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

func (k Key) String() string {
	return k.PK + "/" + k.SK
}

// Record is one item of the single table. GSI1PK/GSI1SK form the optional
// secondary index used to walk from a parent entity to its children.
type Record struct {
	PK         string          `json:"pk"`
	SK         string          `json:"sk"`
	GSI1PK     string          `json:"gsi1pk,omitempty"`
	GSI1SK     string          `json:"gsi1sk,omitempty"`
	EntityType string          `json:"entity_type,omitempty"`
	Topology   string          `json:"topology,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Key returns the record's primary key
func (r Record) Key() Key {
	return Key{PK: r.PK, SK: r.SK}
}

// Store is a namespaced single-table key/value store.
//
// BatchPut and BatchDelete accept at most MaxBatchItems entries. Items the
// backend could not apply right now are returned as unprocessed with a nil
// error; the caller decides whether to retry them. Any other failure is
// returned as an error and nothing should be assumed written.
type Store interface {
	BatchPut(ctx context.Context, records []Record) ([]Record, error)
	BatchDelete(ctx context.Context, keys []Key) ([]Key, error)
	Get(ctx context.Context, key Key) (Record, error)
	Put(ctx context.Context, record Record) error
	// Query returns every record with partition key pk, ordered by sort key
	Query(ctx context.Context, pk string) ([]Record, error)
	// QueryIndex returns every record whose GSI1PK is gsi1pk, ordered by GSI1SK
	QueryIndex(ctx context.Context, gsi1pk string) ([]Record, error)
	// ScanPrefix returns every record whose partition key starts with prefix,
	// ordered by partition key then sort key
	ScanPrefix(ctx context.Context, prefix string) ([]Record, error)
	MaxBatchSize() int
	Close() error
}

// Keys returns the primary keys of records
func Keys(records []Record) []Key {
	keys := make([]Key, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}

func checkBatch(n int) error {
	if n > MaxBatchItems {
		return ErrBatchTooLarge
	}
	return nil
}

func checkKey(k Key) error {
	if k.PK == "" || k.SK == "" {
		return ErrInvalidKey
	}
	return nil
}

// SortRecords orders records by partition key then sort key
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].PK != records[j].PK {
			return records[i].PK < records[j].PK
		}
		return records[i].SK < records[j].SK
	})
}

func sortByIndex(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].GSI1SK != records[j].GSI1SK {
			return records[i].GSI1SK < records[j].GSI1SK
		}
		if records[i].PK != records[j].PK {
			return records[i].PK < records[j].PK
		}
		return records[i].SK < records[j].SK
	})
}

func hasPrefix(pk, prefix string) bool {
	return strings.HasPrefix(pk, prefix)
}
