package cart

import "errors"

// Cart ドメインのエラー定義
var (
	ErrCartNotFound    = errors.New("カートが見つかりません")
	ErrItemNotFound    = errors.New("カート明細が見つかりません")
	ErrInvalidQuantity = errors.New("数量は1以上で指定してください")
	ErrUserNotFound    = errors.New("ユーザーが見つかりません")
)
