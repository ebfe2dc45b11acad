package historystore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	"github.com/yanqian/synergy-circle/pkg/util"
)

// ValkeyStore keeps each record as a JSON string with a TTL and indexes ids
// in a sorted set scored by creation time.
type ValkeyStore struct {
	kv     sortedKV
	prefix string
	ttl    time.Duration
	now    util.Clock
}

// sortedKV is the set of Valkey commands the store issues.
type sortedKV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRemRangeByScore(ctx context.Context, key string, max int64) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
	Close()
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration, now util.Clock) *ValkeyStore {
	return newValkeyStore(valkeyKV{client: client}, prefix, ttl, now)
}

func newValkeyStore(kv sortedKV, prefix string, ttl time.Duration, now util.Clock) *ValkeyStore {
	if prefix == "" {
		prefix = "synergy"
	}
	return &ValkeyStore{kv: kv, prefix: prefix, ttl: ttl, now: now.OrNow()}
}

func (s *ValkeyStore) Save(ctx context.Context, rec discovery.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.entryKey(rec.ID), string(payload), s.ttl); err != nil {
		return err
	}
	if err := s.kv.ZAdd(ctx, s.recentKey(), float64(rec.CreatedAt.UnixMilli()), rec.ID); err != nil {
		return err
	}
	if s.ttl > 0 {
		cutoff := s.now().Add(-s.ttl).UnixMilli()
		_ = s.kv.ZRemRangeByScore(ctx, s.recentKey(), cutoff)
	}
	return nil
}

func (s *ValkeyStore) Get(ctx context.Context, id string) (discovery.Record, bool, error) {
	if id == "" {
		return discovery.Record{}, false, nil
	}
	payload, ok, err := s.kv.Get(ctx, s.entryKey(id))
	if err != nil || !ok {
		return discovery.Record{}, false, err
	}
	var rec discovery.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return discovery.Record{}, false, err
	}
	return rec, true, nil
}

// Recent walks the index newest first in pages of limit ids. Ids whose entry
// has already expired are dropped from the index and the walk continues, so
// a short result means the index is exhausted.
func (s *ValkeyStore) Recent(ctx context.Context, limit int) ([]discovery.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	out := make([]discovery.Record, 0, limit)
	var start int64
	for len(out) < limit {
		ids, err := s.kv.ZRevRange(ctx, s.recentKey(), start, start+int64(limit)-1)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		var stale []string
		for _, id := range ids {
			rec, ok, err := s.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if !ok {
				stale = append(stale, id)
				continue
			}
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
		if len(stale) > 0 {
			_ = s.kv.ZRem(ctx, s.recentKey(), stale...)
		}
		if len(ids) < limit {
			break
		}
		// removed ids shift the remaining ranks down
		start += int64(len(ids) - len(stale))
	}
	return out, nil
}

// Close releases the client.
func (s *ValkeyStore) Close() {
	s.kv.Close()
}

func (s *ValkeyStore) entryKey(id string) string {
	return fmt.Sprintf("%s:analysis:%s", s.prefix, id)
}

func (s *ValkeyStore) recentKey() string {
	return fmt.Sprintf("%s:recent", s.prefix)
}

// valkeyKV issues sortedKV commands through the valkey-go builder.
type valkeyKV struct {
	client valkey.Client
}

func (v valkeyKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	builder := v.client.B().Set().Key(key).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return v.client.Do(ctx, cmd).Error()
}

func (v valkeyKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (v valkeyKV) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return v.client.Do(ctx, v.client.B().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()).Error()
}

func (v valkeyKV) ZRemRangeByScore(ctx context.Context, key string, max int64) error {
	return v.client.Do(ctx, v.client.B().Zremrangebyscore().Key(key).Min("-inf").Max(strconv.FormatInt(max, 10)).Build()).Error()
}

func (v valkeyKV) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ids, err := v.client.Do(ctx, v.client.B().Zrevrange().Key(key).Start(start).Stop(stop).Build()).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (v valkeyKV) ZRem(ctx context.Context, key string, members ...string) error {
	return v.client.Do(ctx, v.client.B().Zrem().Key(key).Member(members...).Build()).Error()
}

func (v valkeyKV) Close() {
	if v.client != nil {
		v.client.Close()
	}
}

var _ discovery.HistoryStore = (*ValkeyStore)(nil)
