package transaction

import (
	"context"
	"errors"
	"fmt"
)

// ErrConflict は同時実行の競合（デッドロック検出や直列化失敗）でトランザクションが中断されたことを表す
// 同じ操作を再試行すれば成功しうる
var ErrConflict = errors.New("同時に実行された更新と競合しました。再試行してください")

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}

// ErrorClassifier は Manager が任意で実装する
// ドライバ固有のエラーを ErrConflict などのドメインのエラーに変換する
type ErrorClassifier interface {
	Classify(err error) error
}

// Run は fn をトランザクション内で実行し、成功すればコミットする
// fn がエラーを返した場合はロールバックしてそのエラーを返す
func Run(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("ロールバックに失敗: %w", rbErr))
		}
		return classify(m, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(m, fmt.Errorf("コミットに失敗: %w", err))
	}
	return nil
}

func classify(m Manager, err error) error {
	if c, ok := m.(ErrorClassifier); ok {
		return c.Classify(err)
	}
	return err
}
