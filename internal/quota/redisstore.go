package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	burstTTL  = time.Hour
	weeklyTTL = 15 * 24 * time.Hour // two weeks, so rollover can read the prior week
)

// RedisStore persists quota counters in Redis, mirroring the
// INCR-then-conditionally-EXPIRE shape of ncecere-raito's
// rateLimitMiddleware for the burst counter, whose TTL is only set on
// the write that starts a fresh bucket. The weekly hash and spend keys
// refresh their TTL on every write; rollover keys get theirs from SETNX.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func burstKey(apiKeyID, hourLabel string) string {
	return fmt.Sprintf("webpeel:quota:burst:%s:%s", apiKeyID, hourLabel)
}

func weeklyKey(apiKeyID, weekLabel string) string {
	return fmt.Sprintf("webpeel:quota:week:%s:%s", apiKeyID, weekLabel)
}

func rolloverKey(apiKeyID, weekLabel string) string {
	return fmt.Sprintf("webpeel:quota:rollover:%s:%s", apiKeyID, weekLabel)
}

func spendKey(apiKeyID, weekLabel string) string {
	return fmt.Sprintf("webpeel:quota:spend:%s:%s", apiKeyID, weekLabel)
}

func billingLogKey(apiKeyID string) string {
	return fmt.Sprintf("webpeel:quota:billing:%s", apiKeyID)
}

func (s *RedisStore) IncrBurst(ctx context.Context, apiKeyID, hourLabel string) (int64, error) {
	key := burstKey(apiKeyID, hourLabel)
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = s.rdb.Expire(ctx, key, burstTTL)
	}
	return count, nil
}

func (s *RedisStore) BurstCount(ctx context.Context, apiKeyID, hourLabel string) (int64, error) {
	val, err := s.rdb.Get(ctx, burstKey(apiKeyID, hourLabel)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// IncrWeekly increments the per-class field on the week's hash and
// returns the new class count and the recomputed total across all
// classes (the spec's "total-per-week is a computed column").
func (s *RedisStore) IncrWeekly(ctx context.Context, apiKeyID, weekLabel string, class Class) (int64, int64, error) {
	key := weeklyKey(apiKeyID, weekLabel)
	classCount, err := s.rdb.HIncrBy(ctx, key, string(class), 1).Result()
	if err != nil {
		return 0, 0, err
	}
	_ = s.rdb.Expire(ctx, key, weeklyTTL)

	total, err := s.WeeklyTotal(ctx, apiKeyID, weekLabel)
	if err != nil {
		return 0, 0, err
	}
	return classCount, total, nil
}

func (s *RedisStore) WeeklyTotal(ctx context.Context, apiKeyID, weekLabel string) (int64, error) {
	values, err := s.rdb.HGetAll(ctx, weeklyKey(apiKeyID, weekLabel)).Result()
	if err != nil {
		return 0, err
	}
	var total int64
	for class, v := range values {
		_ = class
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			total += n
		}
	}
	return total, nil
}

func (s *RedisStore) RolloverCredits(ctx context.Context, apiKeyID, weekLabel string) (int64, bool, error) {
	val, err := s.rdb.Get(ctx, rolloverKey(apiKeyID, weekLabel)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (s *RedisStore) SetRolloverCredits(ctx context.Context, apiKeyID, weekLabel string, credits int64) error {
	ok, err := s.rdb.SetNX(ctx, rolloverKey(apiKeyID, weekLabel), credits, weeklyTTL).Result()
	if err != nil {
		return err
	}
	_ = ok
	return nil
}

func (s *RedisStore) RecordExtraUsage(ctx context.Context, apiKeyID string, class Class, amount float64) error {
	weekLabel := currentWeek(time.Now())
	if err := s.rdb.IncrByFloat(ctx, spendKey(apiKeyID, weekLabel), amount).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, spendKey(apiKeyID, weekLabel), weeklyTTL)

	entry := fmt.Sprintf(`{"class":%q,"amount":%f,"ts":%d}`, class, amount, time.Now().Unix())
	return s.rdb.LPush(ctx, billingLogKey(apiKeyID), entry).Err()
}

func (s *RedisStore) ExtraSpent(ctx context.Context, apiKeyID, weekLabel string) (float64, error) {
	val, err := s.rdb.Get(ctx, spendKey(apiKeyID, weekLabel)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
