package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisConfig addresses the Redis server behind a RedisStore
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore implements Store on Redis. Each partition is a hash keyed by
// sort key, each secondary index partition is a hash holding a copy of its
// records, and a sorted set of partition keys serves prefix scans.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Addr, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "toposeed"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (rs *RedisStore) itemKey(pk string) string   { return rs.prefix + ":item:" + pk }
func (rs *RedisStore) indexKey(gsi string) string { return rs.prefix + ":gsi:" + gsi }
func (rs *RedisStore) partitions() string         { return rs.prefix + ":partitions" }

func indexField(r Record) string {
	return r.GSI1SK + "\x00" + r.PK + "\x00" + r.SK
}

// Close closes the client
func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}

// MaxBatchSize returns the per-request item limit
func (rs *RedisStore) MaxBatchSize() int {
	return MaxBatchItems
}

// BatchPut writes records in one MULTI/EXEC. A timed out or loading server
// leaves the whole batch unprocessed.
func (rs *RedisStore) BatchPut(ctx context.Context, records []Record) ([]Record, error) {
	if err := checkBatch(len(records)); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	for _, r := range records {
		if err := checkKey(r.Key()); err != nil {
			return nil, err
		}
	}

	previous, err := rs.fetch(ctx, Keys(records))
	if isTransient(err) {
		return records, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = rs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, old := range previous {
			if old.GSI1PK != "" {
				pipe.HDel(ctx, rs.indexKey(old.GSI1PK), indexField(old))
			}
		}
		for _, r := range records {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			pipe.HSet(ctx, rs.itemKey(r.PK), r.SK, data)
			pipe.ZAdd(ctx, rs.partitions(), redis.Z{Member: r.PK})
			if r.GSI1PK != "" {
				pipe.HSet(ctx, rs.indexKey(r.GSI1PK), indexField(r), data)
			}
		}
		return nil
	})
	if isTransient(err) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("writing batch: %w", err)
	}
	return nil, nil
}

// BatchDelete removes keys and their index entries
func (rs *RedisStore) BatchDelete(ctx context.Context, keys []Key) ([]Key, error) {
	if err := checkBatch(len(keys)); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	previous, err := rs.fetch(ctx, keys)
	if isTransient(err) {
		return keys, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = rs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.HDel(ctx, rs.itemKey(k.PK), k.SK)
		}
		for _, old := range previous {
			if old.GSI1PK != "" {
				pipe.HDel(ctx, rs.indexKey(old.GSI1PK), indexField(old))
			}
		}
		return nil
	})
	if isTransient(err) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deleting batch: %w", err)
	}

	return nil, rs.dropEmptyPartitions(ctx, keys)
}

func (rs *RedisStore) dropEmptyPartitions(ctx context.Context, keys []Key) error {
	seen := map[string]bool{}
	var pks []string
	for _, k := range keys {
		if !seen[k.PK] {
			seen[k.PK] = true
			pks = append(pks, k.PK)
		}
	}

	lens := make([]*redis.IntCmd, len(pks))
	_, err := rs.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, pk := range pks {
			lens[i] = pipe.HLen(ctx, rs.itemKey(pk))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("checking partitions: %w", err)
	}

	var empty []any
	for i, pk := range pks {
		if lens[i].Val() == 0 {
			empty = append(empty, pk)
		}
	}
	if len(empty) == 0 {
		return nil
	}
	return rs.rdb.ZRem(ctx, rs.partitions(), empty...).Err()
}

// fetch returns the stored records among keys
func (rs *RedisStore) fetch(ctx context.Context, keys []Key) ([]Record, error) {
	cmds := make([]*redis.StringCmd, len(keys))
	_, err := rs.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGet(ctx, rs.itemKey(k.PK), k.SK)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var records []Record
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		r, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Get retrieves one record
func (rs *RedisStore) Get(ctx context.Context, key Key) (Record, error) {
	data, err := rs.rdb.HGet(ctx, rs.itemKey(key.PK), key.SK).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading record: %w", err)
	}
	return decodeRecord(data)
}

// Put writes a single record
func (rs *RedisStore) Put(ctx context.Context, record Record) error {
	unprocessed, err := rs.BatchPut(ctx, []Record{record})
	if err != nil {
		return err
	}
	if len(unprocessed) > 0 {
		return fmt.Errorf("%s: %w", record.Key(), ErrThrottled)
	}
	return nil
}

// Query returns the records of one partition
func (rs *RedisStore) Query(ctx context.Context, pk string) ([]Record, error) {
	records, err := rs.hashRecords(ctx, rs.itemKey(pk))
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return records, nil
}

// QueryIndex returns the records of one secondary index partition
func (rs *RedisStore) QueryIndex(ctx context.Context, gsi1pk string) ([]Record, error) {
	records, err := rs.hashRecords(ctx, rs.indexKey(gsi1pk))
	if err != nil {
		return nil, err
	}
	sortByIndex(records)
	return records, nil
}

// ScanPrefix returns the records of every partition starting with prefix
func (rs *RedisStore) ScanPrefix(ctx context.Context, prefix string) ([]Record, error) {
	pks, err := rs.rdb.ZRangeByLex(ctx, rs.partitions(), &redis.ZRangeBy{
		Min: "[" + prefix,
		Max: "[" + prefix + "\xff",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	records := []Record{}
	for _, pk := range pks {
		if !hasPrefix(pk, prefix) {
			continue
		}
		part, err := rs.hashRecords(ctx, rs.itemKey(pk))
		if err != nil {
			return nil, err
		}
		records = append(records, part...)
	}
	SortRecords(records)
	return records, nil
}

func (rs *RedisStore) hashRecords(ctx context.Context, key string) ([]Record, error) {
	values, err := rs.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	records := make([]Record, 0, len(values))
	for _, v := range values {
		r, err := decodeRecord([]byte(v))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	return r, nil
}

// isTransient reports whether err means the server could not take the request now
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "LOADING") || strings.HasPrefix(msg, "BUSY") || strings.HasPrefix(msg, "TRYAGAIN")
}
