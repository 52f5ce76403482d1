package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// redisAddr is the server the redis backend tests run against. It is an
// in-process server unless TOPOSEED_TEST_REDIS_ADDR names a real one.
var redisAddr string

func TestMain(m *testing.M) {
	redisAddr = os.Getenv("TOPOSEED_TEST_REDIS_ADDR")
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start in-process redis: %v\n", err)
			os.Exit(1)
		}
		redisAddr = mr.Addr()
		code := m.Run()
		mr.Close()
		os.Exit(code)
	}
	os.Exit(m.Run())
}

// setupTestStore opens an empty store of the given backend for testing
func setupTestStore(t *testing.T, backend string) Store {
	t.Helper()

	opts := Options{Backend: backend, DataDir: t.TempDir()}
	if backend == "redis" {
		opts.Redis = RedisConfig{Addr: redisAddr, KeyPrefix: fmt.Sprintf("toposeed-test-%s", t.Name())}
	}

	store, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Failed to open %s store: %v", backend, err)
	}
	t.Cleanup(func() {
		if rs, ok := store.(*RedisStore); ok {
			cleanRedis(t, rs)
		}
		store.Close()
	})
	return store
}

func cleanRedis(t *testing.T, rs *RedisStore) {
	t.Helper()

	ctx := context.Background()
	keys, err := rs.rdb.Keys(ctx, rs.prefix+":*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	rs.rdb.Del(ctx, keys...)
}

var backends = []string{"sqlite", "file", "redis"}

func record(pk, sk, gsi1pk, gsi1sk string) Record {
	return Record{
		PK:         pk,
		SK:         sk,
		GSI1PK:     gsi1pk,
		GSI1SK:     gsi1sk,
		EntityType: "device",
		Topology:   "lab",
		Data:       []byte(fmt.Sprintf(`{"id":%q}`, sk)),
	}
}

func mustPut(t *testing.T, s Store, records ...Record) {
	t.Helper()

	unprocessed, err := s.BatchPut(context.Background(), records)
	if err != nil {
		t.Fatalf("BatchPut() error = %v", err)
	}
	if len(unprocessed) != 0 {
		t.Fatalf("BatchPut() left %d unprocessed", len(unprocessed))
	}
}

func TestStore_PutGet(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			s := setupTestStore(t, backend)
			ctx := context.Background()

			r := record("lab#device", "Q2AA", "lab#organization#1", "device#Q2AA")
			if err := s.Put(ctx, r); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := s.Get(ctx, r.Key())
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !reflect.DeepEqual(got, r) {
				t.Errorf("Get() = %+v, want %+v", got, r)
			}

			_, err = s.Get(ctx, Key{PK: "lab#device", SK: "missing"})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			s := setupTestStore(t, backend)
			ctx := context.Background()

			mustPut(t, s, record("lab#device", "Q2AA", "lab#organization#1", "device#Q2AA"))
			moved := record("lab#device", "Q2AA", "lab#organization#2", "device#Q2AA")
			mustPut(t, s, moved)

			old, err := s.QueryIndex(ctx, "lab#organization#1")
			if err != nil {
				t.Fatal(err)
			}
			if len(old) != 0 {
				t.Errorf("stale index entries: %+v", old)
			}
			got, err := s.QueryIndex(ctx, "lab#organization#2")
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || !reflect.DeepEqual(got[0], moved) {
				t.Errorf("QueryIndex() = %+v", got)
			}
		})
	}
}

func TestStore_QueryOrdering(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			s := setupTestStore(t, backend)
			ctx := context.Background()

			mustPut(t, s,
				record("lab#vlan", "N1#20", "lab#network#N1", "vlan#20"),
				record("lab#vlan", "N1#10", "lab#network#N1", "vlan#10"),
				record("lab#vpn_config", "N1", "lab#network#N1", "vpn_config#N1"),
				record("lab#vlan", "N2#10", "lab#network#N2", "vlan#10"),
				record("labx#vlan", "N9#10", "", ""),
			)

			vlans, err := s.Query(ctx, "lab#vlan")
			if err != nil {
				t.Fatal(err)
			}
			if got := sortKeys(vlans); !reflect.DeepEqual(got, []string{"N1#10", "N1#20", "N2#10"}) {
				t.Errorf("Query() sort keys = %v", got)
			}

			children, err := s.QueryIndex(ctx, "lab#network#N1")
			if err != nil {
				t.Fatal(err)
			}
			if got := sortKeys(children); !reflect.DeepEqual(got, []string{"N1#10", "N1#20", "N1"}) {
				t.Errorf("QueryIndex() sort keys = %v", got)
			}

			scoped, err := s.ScanPrefix(ctx, "lab#")
			if err != nil {
				t.Fatal(err)
			}
			if len(scoped) != 4 {
				t.Errorf("ScanPrefix(lab#) = %d records, want 4", len(scoped))
			}
			all, err := s.ScanPrefix(ctx, "lab")
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 5 {
				t.Errorf("ScanPrefix(lab) = %d records, want 5", len(all))
			}
		})
	}
}

func TestStore_BatchDelete(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			s := setupTestStore(t, backend)
			ctx := context.Background()

			a := record("lab#device", "A", "lab#organization#1", "device#A")
			b := record("lab#device", "B", "lab#organization#1", "device#B")
			mustPut(t, s, a, b)

			unprocessed, err := s.BatchDelete(ctx, []Key{a.Key(), {PK: "lab#device", SK: "missing"}})
			if err != nil || len(unprocessed) != 0 {
				t.Fatalf("BatchDelete() = %v, %v", unprocessed, err)
			}

			left, err := s.ScanPrefix(ctx, "lab#")
			if err != nil {
				t.Fatal(err)
			}
			if len(left) != 1 || left[0].SK != "B" {
				t.Errorf("remaining = %+v", left)
			}
			idx, err := s.QueryIndex(ctx, "lab#organization#1")
			if err != nil {
				t.Fatal(err)
			}
			if len(idx) != 1 {
				t.Errorf("index entries = %d, want 1", len(idx))
			}

			// deleting twice is a no-op
			if _, err := s.BatchDelete(ctx, []Key{a.Key()}); err != nil {
				t.Errorf("second BatchDelete() error = %v", err)
			}
		})
	}
}

func TestStore_BatchLimits(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			s := setupTestStore(t, backend)
			ctx := context.Background()

			if s.MaxBatchSize() != MaxBatchItems {
				t.Errorf("MaxBatchSize() = %d", s.MaxBatchSize())
			}

			big := make([]Record, MaxBatchItems+1)
			for i := range big {
				big[i] = record("lab#device", fmt.Sprintf("D%02d", i), "", "")
			}
			if _, err := s.BatchPut(ctx, big); !errors.Is(err, ErrBatchTooLarge) {
				t.Errorf("BatchPut(26) error = %v, want ErrBatchTooLarge", err)
			}
			if _, err := s.BatchDelete(ctx, Keys(big)); !errors.Is(err, ErrBatchTooLarge) {
				t.Errorf("BatchDelete(26) error = %v, want ErrBatchTooLarge", err)
			}
			if _, err := s.BatchPut(ctx, []Record{record("", "x", "", "")}); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("BatchPut(empty pk) error = %v, want ErrInvalidKey", err)
			}
			mustPut(t, s, big[:MaxBatchItems]...)
		})
	}
}

func TestFileStore_Reload(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := record("lab#device", "Q2AA", "lab#organization#1", "device#Q2AA")
	mustPut(t, fs, r)

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Get(context.Background(), r.Key())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, r) {
		t.Errorf("reloaded = %+v, want %+v", got, r)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ss, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	mustPut(t, ss, record("lab#device", "Q2AA", "", ""))
	ss.Close()

	reopened, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	version, err := reopened.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != migrations[len(migrations)-1].version {
		t.Errorf("SchemaVersion() = %d", version)
	}
	got, err := reopened.Get(context.Background(), Key{PK: "lab#device", SK: "Q2AA"})
	if err != nil {
		t.Fatal(err)
	}
	if got.GSI1PK != "" {
		t.Errorf("GSI1PK = %q, want empty", got.GSI1PK)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "dynamo", DataDir: t.TempDir()})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("UNIQUE constraint failed: items.pk"), false},
	}
	for _, tt := range tests {
		if got := isBusy(tt.err); got != tt.want {
			t.Errorf("isBusy(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func sortKeys(records []Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.SK
	}
	return keys
}
