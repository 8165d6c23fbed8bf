package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"contactbook/internal/config"
	"contactbook/internal/utils"
)

// ResetRecord 表示存储在 Redis 的一次性口令重置上下文。
// 键格式：reset:<token>
type ResetRecord struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// resetStore 抽象所需的最小 Redis 能力，便于测试替换。
type resetStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// ResetService 管理口令重置令牌：随机生成、限时存储、取用即焚。
type ResetService struct {
	rdb resetStore
	cfg config.Config
}

func NewResetService(rdb resetStore, cfg config.Config) *ResetService {
	return &ResetService{rdb: rdb, cfg: cfg}
}

func (s *ResetService) key(tok string) string { return fmt.Sprintf("reset:%s", tok) }

// New 生成一次性重置令牌并按 TTL 存储。
func (s *ResetService) New(ctx context.Context, email string) (string, error) {
	token, err := utils.RandURLSafeString(48)
	if err != nil {
		return "", err
	}
	rec := &ResetRecord{Token: token, Email: email, CreatedAt: time.Now()}
	b, _ := json.Marshal(rec)
	ttl := s.cfg.JWT.ResetTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := s.rdb.Set(ctx, s.key(token), b, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetAndUse 校验重置令牌并返回其上下文。
// 使用 GETDEL 原子地取出并删除键，并发取用时至多一个调用方成功。
func (s *ResetService) GetAndUse(ctx context.Context, token string) (*ResetRecord, error) {
	cmd := s.rdb.GetDel(ctx, s.key(token))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	var rec ResetRecord
	if err := json.Unmarshal([]byte(cmd.Val()), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
