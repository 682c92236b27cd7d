package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sanosuguru/go-airline-reservation/internal/config"
)

// 空席キャッシュは読めなければ DB に戻るので、待ち時間は短くしておく
const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

// NewClient は空席キャッシュとイベント転送で共有するクライアントを作成する
func NewClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})
}

// Checker は Redis の疎通確認。起動時と /ready で使う
type Checker struct {
	client redis.UniversalClient
}

func NewChecker(client redis.UniversalClient) *Checker {
	return &Checker{client: client}
}

// PingContext は PING を送り、応答がなければエラーを返す
func (c *Checker) PingContext(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redisに接続できません: %w", err)
	}
	return nil
}
