package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart はユーザーごとに1つだけ存在するカート
type Cart struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

// Item はカート明細。(カート, フライト, クラス) で一意
// UnitPrice は最初に追加した時点の価格を保持する
type Item struct {
	ID        int64
	CartID    int64
	FlightID  int64
	ClassID   int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal は数量×単価を返す
func (i *Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SummaryItem は表示用のカート明細
type SummaryItem struct {
	ItemID             int64
	FlightID           int64
	FlightCode         string
	DepartureAt        time.Time
	ArrivalAt          time.Time
	ClassID            int64
	ClassName          string
	Quantity           int
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	OriginCity         string
	OriginCountry      string
	DestinationCity    string
	DestinationCountry string
}

// Summary はカートの表示用ビュー
type Summary struct {
	CartID    int64
	UserID    int64
	CreatedAt time.Time
	Total     decimal.Decimal
	Items     []SummaryItem
}

// NewSummary は明細から小計と合計を計算して Summary を作成する
func NewSummary(c *Cart, items []SummaryItem) *Summary {
	total := decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(items[i].Subtotal)
	}
	if items == nil {
		items = []SummaryItem{}
	}
	return &Summary{
		CartID:    c.ID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		Total:     total,
		Items:     items,
	}
}

// ValidateQuantity は数量が正であることを検証する
func ValidateQuantity(q int) error {
	if q <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
