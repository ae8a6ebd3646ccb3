package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = fmt.Errorf("cache not available")
	ErrCacheNotFound     = fmt.Errorf("cache not found")
)

// CacheHelper provides common caching operations for repositories
type CacheHelper struct {
	client *redis.Client
	prefix string
}

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines TTL and key prefix per data type
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Exam definitions change rarely outside authoring sessions
	ExamCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "exam:",
	}

	// Question content is the most read-heavy data
	QuestionCacheConfig = CacheConfig{
		TTL:    15 * time.Minute,
		Prefix: "question:",
	}

	// Short TTL; in-progress attempts mutate on every answer
	AttemptCacheConfig = CacheConfig{
		TTL:    time.Minute,
		Prefix: "attempt:",
	}

	// Expensive aggregate queries (analytics, dashboards)
	StatsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "stats:",
	}

	// Very short cache for existence checks
	ExistsCacheConfig = CacheConfig{
		TTL:    2 * time.Minute,
		Prefix: "exists:",
	}

	// Short-lived cache for frequently accessed data
	FastCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "fast:",
	}
)

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	cacheKey := c.GetCacheKey(key)
	data, err := c.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Graceful degradation when cache not available
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	cacheKey := c.GetCacheKey(key)
	return c.client.Set(ctx, cacheKey, data, ttl).Err()
}

// Delete removes one or more keys from cache
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}

	if len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	return c.client.Del(ctx, cacheKeys...).Err()
}

// Exists checks if a key exists in cache
func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	cacheKey := c.GetCacheKey(key)
	count, err := c.client.Exists(ctx, cacheKey).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return count > 0, nil
}

// InvalidatePattern removes all keys matching a pattern using SCAN instead of KEYS
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	fullPattern := c.GetCacheKey(pattern)
	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, scanKeys...)
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	// Delete in batches through a pipeline
	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		pipe.Del(ctx, keys[i:end]...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}

	return nil
}

// CacheOrExecute implements the cache-aside pattern
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil // Found in cache
	}

	if err != ErrCacheNotFound && err != ErrCacheNotAvailable {
		slog.InfoContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", key)
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}

	// Store asynchronously to not block the response
	go func(parentCtx context.Context) {
		ctxWithTimeout, cancel := context.WithTimeout(parentCtx, 5*time.Second)
		defer cancel()
		if err := c.Set(ctxWithTimeout, key, value, ttl); err != nil {
			slog.Error("Cache set error", "error", err, "key", key)
		}
	}(context.WithoutCancel(ctx))

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}

	return json.Unmarshal(data, dest)
}

// CacheManager manages the per-domain cache helpers
type CacheManager struct {
	Exam     *CacheHelper
	Question *CacheHelper
	Attempt  *CacheHelper
	Stats    *CacheHelper
	Exists   *CacheHelper
	Fast     *CacheHelper
}

// NewCacheManager creates a cache manager with all cache helpers. A nil client
// yields a manager whose helpers degrade gracefully to pass-through.
func NewCacheManager(client *redis.Client) *CacheManager {
	if client == nil {
		return &CacheManager{
			Exam:     NewCacheHelper(nil, ""),
			Question: NewCacheHelper(nil, ""),
			Attempt:  NewCacheHelper(nil, ""),
			Stats:    NewCacheHelper(nil, ""),
			Exists:   NewCacheHelper(nil, ""),
			Fast:     NewCacheHelper(nil, ""),
		}
	}

	return &CacheManager{
		Exam:     NewCacheHelper(client, ExamCacheConfig.Prefix),
		Question: NewCacheHelper(client, QuestionCacheConfig.Prefix),
		Attempt:  NewCacheHelper(client, AttemptCacheConfig.Prefix),
		Stats:    NewCacheHelper(client, StatsCacheConfig.Prefix),
		Exists:   NewCacheHelper(client, ExistsCacheConfig.Prefix),
		Fast:     NewCacheHelper(client, FastCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Fast.client == nil {
		return ErrCacheNotAvailable
	}

	if _, err := cm.Fast.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}

// InvalidateExam invalidates all exam-related caches, including lists
func (cm *CacheManager) InvalidateExam(ctx context.Context, examID uint) error {
	patterns := []string{
		fmt.Sprintf("id:%d*", examID),
		"list:*",
	}

	for _, pattern := range patterns {
		if err := cm.Exam.InvalidatePattern(ctx, pattern); err != nil {
			continue
		}
	}

	return cm.Stats.InvalidatePattern(ctx, fmt.Sprintf("exam:%d*", examID))
}

// InvalidateQuestion invalidates all question-related caches
func (cm *CacheManager) InvalidateQuestion(ctx context.Context, questionID uint) error {
	patterns := []string{
		fmt.Sprintf("id:%d*", questionID),
		"list:*",
	}

	for _, pattern := range patterns {
		if err := cm.Question.InvalidatePattern(ctx, pattern); err != nil {
			continue
		}
	}

	return nil
}

// InvalidateAttempt drops the cached view of a single attempt
func (cm *CacheManager) InvalidateAttempt(ctx context.Context, attemptID uint) error {
	return cm.Attempt.Delete(ctx, fmt.Sprintf("id:%d", attemptID))
}
