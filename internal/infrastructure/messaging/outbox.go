// Package messaging はドメインイベントのアウトボックス保存と Redis Streams への転送を扱う
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/infrastructure/postgres"
)

// ErrNoTransaction はトランザクション外で発行しようとした場合のエラー
var ErrNoTransaction = errors.New("アウトボックスへの書き込みにはトランザクションが必要です")

// OutboxPublisher はイベントを業務データと同じトランザクションでアウトボックスに保存する
type OutboxPublisher struct {
	topic  string
	logger watermill.LoggerAdapter
}

func NewOutboxPublisher(topic string, logger watermill.LoggerAdapter) *OutboxPublisher {
	return &OutboxPublisher{topic: topic, logger: logger}
}

// Publish は event を tx 内でアウトボックスに書き込む
// トピックはイベントの構造体名になる
func (p *OutboxPublisher) Publish(ctx context.Context, tx transaction.Tx, event any) error {
	sqlxTx := postgres.UnwrapTx(tx)
	if sqlxTx == nil {
		return ErrNoTransaction
	}

	sqlPublisher, err := watermillSQL.NewPublisher(
		sqlxTx.Tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		p.logger,
	)
	if err != nil {
		return fmt.Errorf("SQLパブリッシャー作成に失敗: %w", err)
	}

	publisher := forwarder.NewPublisher(sqlPublisher, forwarder.PublisherConfig{
		ForwarderTopic: p.topic,
	})

	eventBus, err := cqrs.NewEventBusWithConfig(publisher, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
	})
	if err != nil {
		return fmt.Errorf("イベントバス作成に失敗: %w", err)
	}

	if err := eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

// NopPublisher はイベントを破棄する。アウトボックス無効時に使う
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, transaction.Tx, any) error { return nil }
