package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Forwarder はアウトボックスのイベントを Redis Streams に転送する
type Forwarder struct {
	*forwarder.Forwarder
}

// NewForwarder はアウトボックスのテーブルを初期化してフォワーダーを作成する
// OutboxPublisher より先に作成しておく必要がある
func NewForwarder(db *sqlx.DB, rdb *redis.Client, topic string, logger watermill.LoggerAdapter) (*Forwarder, error) {
	subscriber, err := watermillSQL.NewSubscriber(db, watermillSQL.SubscriberConfig{
		SchemaAdapter:  watermillSQL.DefaultPostgreSQLSchema{},
		OffsetsAdapter: watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("アウトボックス購読の作成に失敗: %w", err)
	}

	if err := subscriber.SubscribeInitialize(topic); err != nil {
		return nil, fmt.Errorf("アウトボックスの初期化に失敗: %w", err)
	}

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("Redis Streams パブリッシャー作成に失敗: %w", err)
	}

	f, err := forwarder.NewForwarder(subscriber, publisher, logger, forwarder.Config{
		ForwarderTopic: topic,
	})
	if err != nil {
		return nil, fmt.Errorf("フォワーダー作成に失敗: %w", err)
	}

	return &Forwarder{f}, nil
}
