package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store in memory and persists the whole table to a
// JSON file after every change. It suits small topologies and fixtures.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	items map[Key]Record
}

// NewFileStore loads (or creates) toposeed.json inside dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	fs := &FileStore{
		path:  filepath.Join(dataDir, "toposeed.json"),
		items: make(map[Key]Record),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	f, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", fs.path, err)
	}
	defer f.Close()

	var records []Record
	if err := loadJSON(f, &records); err != nil {
		return fmt.Errorf("decoding %s: %w", fs.path, err)
	}
	for _, r := range records {
		fs.items[r.Key()] = r
	}
	return nil
}

// save writes the table through a temporary file so a crash never leaves a
// truncated store behind
func (fs *FileStore) save() error {
	records := make([]Record, 0, len(fs.items))
	for _, r := range fs.items {
		records = append(records, r)
	}
	SortRecords(records)

	tmp := fs.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := saveJSON(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

// Close is a no-op; every change is already on disk
func (fs *FileStore) Close() error {
	return nil
}

// MaxBatchSize returns the per-request item limit
func (fs *FileStore) MaxBatchSize() int {
	return MaxBatchItems
}

// BatchPut upserts records
func (fs *FileStore) BatchPut(ctx context.Context, records []Record) ([]Record, error) {
	if err := checkBatch(len(records)); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := checkKey(r.Key()); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, r := range records {
		r.Data = append(json.RawMessage(nil), r.Data...)
		fs.items[r.Key()] = r
	}
	return nil, fs.save()
}

// BatchDelete removes keys. Missing keys are not an error.
func (fs *FileStore) BatchDelete(ctx context.Context, keys []Key) ([]Key, error) {
	if err := checkBatch(len(keys)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, k := range keys {
		delete(fs.items, k)
	}
	return nil, fs.save()
}

// Get retrieves one record
func (fs *FileStore) Get(ctx context.Context, key Key) (Record, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	r, ok := fs.items[key]
	if !ok {
		return Record{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return r, nil
}

// Put writes a single record
func (fs *FileStore) Put(ctx context.Context, record Record) error {
	_, err := fs.BatchPut(ctx, []Record{record})
	return err
}

// Query returns the records of one partition
func (fs *FileStore) Query(ctx context.Context, pk string) ([]Record, error) {
	return fs.filter(func(r Record) bool { return r.PK == pk }, SortRecords), nil
}

// QueryIndex returns the records of one secondary index partition
func (fs *FileStore) QueryIndex(ctx context.Context, gsi1pk string) ([]Record, error) {
	return fs.filter(func(r Record) bool { return gsi1pk != "" && r.GSI1PK == gsi1pk }, sortByIndex), nil
}

// ScanPrefix returns the records of every partition starting with prefix
func (fs *FileStore) ScanPrefix(ctx context.Context, prefix string) ([]Record, error) {
	return fs.filter(func(r Record) bool { return hasPrefix(r.PK, prefix) }, SortRecords), nil
}

func (fs *FileStore) filter(match func(Record) bool, order func([]Record)) []Record {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	records := []Record{}
	for _, r := range fs.items {
		if match(r) {
			records = append(records, r)
		}
	}
	order(records)
	return records
}

// saveJSON writes compact JSON so raw record data survives a reload unchanged
func saveJSON(w io.Writer, data any) error {
	return json.NewEncoder(w).Encode(data)
}

func loadJSON(r io.Reader, data any) error {
	return json.NewDecoder(r).Decode(data)
}
