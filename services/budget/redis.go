package budget

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterTTL keeps stale month counters from accumulating forever. Two full
// months so the previous month stays readable for a while.
const counterTTL = 62 * 24 * time.Hour

// RedisLedger keeps spend counters in Redis, for multi-instance deployments.
// INCRBYFLOAT makes Increment atomic across processes.
type RedisLedger struct {
	client *redis.Client
	limits Limits
	now    func() time.Time
}

// NewRedisLedger creates a ledger backed by the given Redis client.
func NewRedisLedger(client *redis.Client, limits Limits) *RedisLedger {
	return &RedisLedger{client: client, limits: limits, now: time.Now}
}

// WithClock overrides the ledger's clock. Test hook.
func (l *RedisLedger) WithClock(now func() time.Time) *RedisLedger {
	l.now = now
	return l
}

func (l *RedisLedger) Check(ctx context.Context, tenantID string) (Status, error) {
	period := periodKey(l.now())
	if tenantID == "" {
		spend, err := l.readCounter(ctx, globalKey(period))
		if err != nil {
			return Status{}, err
		}
		return statusFor("", spend, l.limits.GlobalUSD), nil
	}

	spend, err := l.readCounter(ctx, tenantKey(tenantID, period))
	if err != nil {
		return Status{}, err
	}
	return statusFor(tenantID, spend, l.limits.TenantLimit(tenantID)), nil
}

func (l *RedisLedger) Admit(ctx context.Context, tenantID string) (bool, error) {
	period := periodKey(l.now())

	globalSpend, err := l.readCounter(ctx, globalKey(period))
	if err != nil {
		return false, err
	}
	if l.limits.GlobalUSD-globalSpend <= 0 {
		return false, nil
	}

	if tenantID != "" {
		tenantSpend, err := l.readCounter(ctx, tenantKey(tenantID, period))
		if err != nil {
			return false, err
		}
		if l.limits.TenantLimit(tenantID)-tenantSpend <= 0 {
			return false, nil
		}
	}
	return true, nil
}

func (l *RedisLedger) Increment(ctx context.Context, tenantID string, costUSD float64) error {
	period := periodKey(l.now())

	pipe := l.client.TxPipeline()
	pipe.IncrByFloat(ctx, globalKey(period), costUSD)
	pipe.Expire(ctx, globalKey(period), counterTTL)
	if tenantID != "" {
		pipe.IncrByFloat(ctx, tenantKey(tenantID, period), costUSD)
		pipe.Expire(ctx, tenantKey(tenantID, period), counterTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment budget counters: %w", err)
	}
	return nil
}

func (l *RedisLedger) Reset(ctx context.Context, tenantID string) error {
	period := periodKey(l.now())
	key := globalKey(period)
	if tenantID != "" {
		key = tenantKey(tenantID, period)
	}
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset budget counter: %w", err)
	}
	return nil
}

func (l *RedisLedger) readCounter(ctx context.Context, key string) (float64, error) {
	val, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read budget counter %s: %w", key, err)
	}
	spend, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse budget counter %s: %w", key, err)
	}
	return spend, nil
}

func globalKey(period string) string {
	return fmt.Sprintf("budget:global:%s", period)
}

func tenantKey(tenantID, period string) string {
	return fmt.Sprintf("budget:tenant:%s:%s", tenantID, period)
}
