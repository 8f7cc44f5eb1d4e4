package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/seekerlab/deepsearch/internal/db"
)

// LPushTrim prepends value and trims the list to maxLen entries. Both
// commands go out in one pipelined round trip.
func (s *Store) LPushTrim(ctx context.Context, key string, value []byte, maxLen int) error {
	push := s.b().Lpush().Key(key).Element(string(value)).Build()
	trim := s.b().Ltrim().Key(key).Start(0).Stop(int64(maxLen - 1)).Build()

	for _, res := range s.client.DoMulti(ctx, push, trim) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpLPush, Err: err}
		}
	}
	return nil
}

// LRange returns list entries between start and stop, inclusive. Negative
// indexes count from the tail as in Redis.
func (s *Store) LRange(ctx context.Context, key string, start, stop int) ([][]byte, error) {
	cmd := s.b().Lrange().Key(key).Start(int64(start)).Stop(int64(stop)).Build()
	rows, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, len(rows))
	for i, r := range rows {
		out[i] = []byte(r)
	}
	return out, nil
}

// LLen returns the list length.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Llen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLLen, Err: err}
	}
	return n, nil
}
