// Package lock 提供基于 Redis 的租约锁
//
// 用于跨实例互斥 (如挖矿租约): SETNX 抢占, Lua 脚本保证只有持有者能释放/续期。
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLeaseNotHeld 租约未持有
	ErrLeaseNotHeld = errors.New("lease not held")
	// ErrLeaseUnavailable 租约已被其他持有者占用
	ErrLeaseUnavailable = errors.New("lease held by another owner")
)

// releaseScript 只有当 key 的值等于 token 时才删除
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// extendScript 只有当 key 的值等于 token 时才延长过期时间
var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Lease Redis 租约
type Lease struct {
	client redis.UniversalClient
	key    string
	token  string
	ttl    time.Duration
}

// Leaser 租约管理器
type Leaser struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewLeaser 创建租约管理器
func NewLeaser(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *Leaser {
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &Leaser{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// NewLease 创建一个新租约 (尚未抢占)
func (l *Leaser) NewLease(key string) *Lease {
	return &Lease{
		client: l.client,
		key:    l.keyPrefix + key,
		token:  uuid.New().String(),
		ttl:    l.ttl,
	}
}

// Acquire 抢占租约 (非阻塞)
func (le *Lease) Acquire(ctx context.Context) (bool, error) {
	ok, err := le.client.SetNX(ctx, le.key, le.token, le.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	return ok, nil
}

// Release 释放租约 (原子操作，只有持有者才能释放)
func (le *Lease) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, le.client, []string{le.key}, le.token).Int64()
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if result == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}

// Extend 续期 (原子操作，只有持有者才能续期)
func (le *Lease) Extend(ctx context.Context, extension time.Duration) error {
	result, err := extendScript.Run(ctx, le.client, []string{le.key}, le.token, extension.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lease: %w", err)
	}
	if result == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}

// WithLease 在租约保护下执行函数; 抢占失败返回 ErrLeaseUnavailable
func (l *Leaser) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lease := l.NewLease(key)

	ok, err := lease.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLeaseUnavailable
	}

	defer func() {
		// 释放失败说明租约已过期, 忽略
		_ = lease.Release(ctx)
	}()

	return fn(ctx)
}
