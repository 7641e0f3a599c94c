// Package throttle 提供按调用者的固定窗口限流
// 进程内存储为默认实现，接口不假设进程本地性，可替换为 Redis 等共享存储
package throttle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"math"
	"strings"
	"sync"
	"time"
)

// 匿名调用者的哨兵 key
// 不同的未认证调用者可能落在同一窗口，这是已知的精度缺口
const anonymousKey = "anonymous"

// key 摘要长度（十六进制字符数）
const keyDigestLen = 32

// Store 计数存储抽象
// Incr 必须原子地自增并在窗口首次计数时设置过期
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Decision 限流判定结果
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int // 秒
}

// Limiter 固定窗口限流器
type Limiter struct {
	store  Store
	max    int
	window time.Duration
}

// NewLimiter 创建限流器
func NewLimiter(store Store, maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{store: store, max: maxRequests, window: window}
}

// Check 判定当前请求是否放行
// 存储故障时放行：限流是尽力而为的保护，不应拖垮正常请求
func (l *Limiter) Check(ctx context.Context, key string) *Decision {
	count, ttl, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		log.Printf("Warning: throttle store error, allowing request: %v", err)
		return &Decision{Allowed: true, Remaining: l.max}
	}

	if count > int64(l.max) {
		retryAfter := int(math.Ceil(ttl.Seconds()))
		if retryAfter <= 0 {
			retryAfter = 1
		}
		return &Decision{Allowed: false, RetryAfter: retryAfter}
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &Decision{Allowed: true, Remaining: remaining}
}

// KeyFromAuthHeader 从 Authorization 头派生限流 key
// 对完整凭证取摘要：JWT 前缀几乎全是算法头，截断前缀会让不同调用者撞 key。
// 无凭证时退化为匿名哨兵
func KeyFromAuthHeader(authHeader string) string {
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return anonymousKey
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:keyDigestLen]
}

// ========== 进程内存储 ==========

// memoryEntry 单个 key 的窗口计数
type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore 进程内计数存储
// 进程重启即清零，不具备持久性
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Incr 原子自增，窗口到期时重置为 1
func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &memoryEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = entry
		return 1, window, nil
	}

	entry.count++
	return entry.count, entry.resetAt.Sub(now), nil
}
