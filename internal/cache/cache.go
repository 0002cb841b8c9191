package cache

import (
	"context"
	"encoding/json"
	"time"

	"iceberg_backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Cache - тонкая обертка над redis. Кеш опционален: при nil-клиенте
// все операции превращаются в no-op, приложение работает напрямую с БД.
type Cache struct {
	client *redis.Client
}

// New создает кеш поверх подключенного клиента redis
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Connect подключается к redis и проверяет соединение ping'ом.
// Возвращает nil при пустом адресе: кеш просто выключен.
func Connect(ctx context.Context, addr, password string, db int) (*Cache, error) {
	if addr == "" {
		return &Cache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{client: client}, nil
}

// Enabled сообщает, подключен ли redis
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON читает значение и декодирует его в dest.
// Возвращает false при промахе или выключенном кеше.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.CtxWarn(ctx, "cache: broken payload, dropping key", "key", key)
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON кодирует значение в JSON и кладет с TTL.
// Ошибки записи не фатальны и только логируются.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.CtxWarn(ctx, "cache: marshal failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.CtxWarn(ctx, "cache: set failed", "key", key, "error", err.Error())
	}
}

// Delete удаляет ключи
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.CtxWarn(ctx, "cache: delete failed", "error", err.Error())
	}
}

// ClearPattern удаляет все ключи по шаблону через SCAN.
// Используется при инвалидации всего пользователя: user:<id>:*
func (c *Cache) ClearPattern(ctx context.Context, pattern string) {
	if !c.Enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.CtxWarn(ctx, "cache: scan failed", "pattern", pattern, "error", err.Error())
		return
	}
	c.Delete(ctx, keys...)
}

// Close закрывает соединение с redis
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
