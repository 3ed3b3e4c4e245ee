package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"shitu-go/internal/model"
	"shitu-go/pkg/log"
)

// AdviceCacheKey 是学习建议缓存的查找键。Grade 以字符串形式保存。
type AdviceCacheKey struct {
	UserID      string
	Grade       string
	Subject     string
	Textbook    string
	RequestHash string
}

// AdviceCacheRepository 接口定义了学习建议缓存的读写。记录只追加，不覆盖也不删除。
type AdviceCacheRepository interface {
	// Lookup 返回查找键下最新的一条记录，没有时返回 nil。
	Lookup(ctx context.Context, key AdviceCacheKey) (*model.AdviceHistory, error)
	// Insert 追加一条新记录。
	Insert(ctx context.Context, key AdviceCacheKey, responseContent string) error
}

// hotStore 是热缓存所需的最小键值操作。
type hotStore interface {
	// Get 返回键对应的值，键不存在时 found 为 false。
	Get(ctx context.Context, key string) (val string, found bool, err error)
	// SetNX 仅在键不存在时写入。
	SetNX(ctx context.Context, key, val string, ttl time.Duration) error
	// Update 读取当前值后由 decide 决定是否写入，读与写之间键被改动时整体重试。
	Update(ctx context.Context, key string, ttl time.Duration, decide func(current string, found bool) (string, bool)) error
}

type redisHotStore struct {
	client *redis.Client
}

func (s *redisHotStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisHotStore) SetNX(ctx context.Context, key, val string, ttl time.Duration) error {
	return s.client.SetNX(ctx, key, val, ttl).Err()
}

const maxHotUpdateRetries = 3

func (s *redisHotStore) Update(ctx context.Context, key string, ttl time.Duration, decide func(string, bool) (string, bool)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			found = false
		} else if err != nil {
			return err
		}
		next, ok := decide(current, found)
		if !ok {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxHotUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

type adviceCacheRepository struct {
	db     *gorm.DB
	hot    hotStore
	hotTTL time.Duration
}

// NewAdviceCacheRepository 创建学习建议缓存仓储。redisClient 为 nil 时不使用热缓存。
func NewAdviceCacheRepository(db *gorm.DB, redisClient *redis.Client, hotTTL time.Duration) AdviceCacheRepository {
	if redisClient == nil {
		return newAdviceCacheRepository(db, nil, hotTTL)
	}
	return newAdviceCacheRepository(db, &redisHotStore{client: redisClient}, hotTTL)
}

func newAdviceCacheRepository(db *gorm.DB, hot hotStore, hotTTL time.Duration) *adviceCacheRepository {
	return &adviceCacheRepository{db: db, hot: hot, hotTTL: hotTTL}
}

func (r *adviceCacheRepository) hotKey(key AdviceCacheKey) string {
	return fmt.Sprintf("advice:%s:%s:%s:%s:%s", key.UserID, key.Grade, key.Subject, key.Textbook, key.RequestHash)
}

func (r *adviceCacheRepository) Lookup(ctx context.Context, key AdviceCacheKey) (*model.AdviceHistory, error) {
	if entry := r.getHot(ctx, key); entry != nil {
		return entry, nil
	}

	var entry model.AdviceHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND grade = ? AND subject = ? AND textbook = ? AND request_hash = ?",
			key.UserID, key.Grade, key.Subject, key.Textbook, key.RequestHash).
		Order("create_time DESC").Order("id DESC").
		Limit(1).Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	r.fillHot(ctx, key, &entry)
	return &entry, nil
}

func (r *adviceCacheRepository) Insert(ctx context.Context, key AdviceCacheKey, responseContent string) error {
	entry := &model.AdviceHistory{
		UserID:          key.UserID,
		Grade:           key.Grade,
		Subject:         key.Subject,
		Textbook:        key.Textbook,
		RequestHash:     key.RequestHash,
		ResponseContent: responseContent,
		CreateTime:      time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	r.refreshHot(ctx, key, entry)
	return nil
}

// getHot 读取 Redis 热缓存。Redis 不可用时只记录日志，由 MySQL 兜底。
func (r *adviceCacheRepository) getHot(ctx context.Context, key AdviceCacheKey) *model.AdviceHistory {
	if r.hot == nil {
		return nil
	}
	val, found, err := r.hot.Get(ctx, r.hotKey(key))
	if err != nil {
		log.Warnf("[AdviceCacheRepository] 读取 Redis 热缓存失败: %v", err)
		return nil
	}
	if !found {
		return nil
	}
	var entry model.AdviceHistory
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		log.Warnf("[AdviceCacheRepository] Redis 热缓存内容无法解析, key: %s, err: %v", r.hotKey(key), err)
		return nil
	}
	return &entry
}

// fillHot 用数据库查到的记录回填热缓存，已有值时保持不动，避免旧记录盖住并发写入的新记录。
func (r *adviceCacheRepository) fillHot(ctx context.Context, key AdviceCacheKey, entry *model.AdviceHistory) {
	if r.hot == nil {
		return
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.hot.SetNX(ctx, r.hotKey(key), string(b), r.hotTTL); err != nil {
		log.Warnf("[AdviceCacheRepository] 回填 Redis 热缓存失败: %v", err)
	}
}

// refreshHot 写入新插入的记录，热缓存中已是更新的记录时不覆盖。
func (r *adviceCacheRepository) refreshHot(ctx context.Context, key AdviceCacheKey, entry *model.AdviceHistory) {
	if r.hot == nil {
		return
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	err = r.hot.Update(ctx, r.hotKey(key), r.hotTTL, func(current string, found bool) (string, bool) {
		if !found {
			return string(b), true
		}
		var stored model.AdviceHistory
		if json.Unmarshal([]byte(current), &stored) != nil {
			return string(b), true
		}
		return string(b), !newerAdvice(&stored, entry)
	})
	if err != nil {
		log.Warnf("[AdviceCacheRepository] 写入 Redis 热缓存失败: %v", err)
	}
}

// newerAdvice 报告 a 是否比 b 更新，排序规则与 Lookup 一致。
func newerAdvice(a, b *model.AdviceHistory) bool {
	if !a.CreateTime.Equal(b.CreateTime) {
		return a.CreateTime.After(b.CreateTime)
	}
	return a.ID > b.ID
}
