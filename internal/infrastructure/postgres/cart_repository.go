package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

const pqForeignKeyViolation = "23503"

type cartRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

type cartItemRow struct {
	ID        int64           `db:"id"`
	CartID    int64           `db:"cart_id"`
	FlightID  int64           `db:"flight_id"`
	ClassID   int64           `db:"class_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

func (r *cartItemRow) toEntity() *cart.Item {
	return &cart.Item{
		ID: r.ID, CartID: r.CartID, FlightID: r.FlightID, ClassID: r.ClassID,
		Quantity: r.Quantity, UnitPrice: r.UnitPrice,
	}
}

type cartSummaryRow struct {
	ItemID             int64           `db:"item_id"`
	FlightID           int64           `db:"flight_id"`
	FlightCode         string          `db:"flight_code"`
	DepartureAt        time.Time       `db:"departure_at"`
	ArrivalAt          time.Time       `db:"arrival_at"`
	ClassID            int64           `db:"class_id"`
	ClassName          string          `db:"class_name"`
	Quantity           int             `db:"quantity"`
	UnitPrice          decimal.Decimal `db:"unit_price"`
	OriginCity         string          `db:"origin_city"`
	OriginCountry      string          `db:"origin_country"`
	DestinationCity    string          `db:"destination_city"`
	DestinationCountry string          `db:"destination_country"`
}

type CartRepository struct{ db *sqlx.DB }

func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Ensure(ctx context.Context, tx transaction.Tx, userID int64) (int64, error) {
	ex := executor(r.db, tx)
	if _, err := ex.ExecContext(ctx,
		`INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pqForeignKeyViolation {
			return 0, cart.ErrUserNotFound
		}
		return 0, fmt.Errorf("カート作成に失敗: %w", err)
	}
	var id int64
	if err := sqlx.GetContext(ctx, ex, &id, `SELECT id FROM carts WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("カート取得に失敗: %w", err)
	}
	return id, nil
}

func (r *CartRepository) Lock(ctx context.Context, tx transaction.Tx, cartID int64) error {
	var id int64
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &id, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cart.ErrCartNotFound
		}
		return fmt.Errorf("カートのロックに失敗: %w", err)
	}
	return nil
}

func (r *CartRepository) GetByUserID(ctx context.Context, tx transaction.Tx, userID int64) (*cart.Cart, error) {
	var row cartRow
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &row,
		`SELECT id, user_id, created_at FROM carts WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cart.ErrCartNotFound
		}
		return nil, fmt.Errorf("カート取得に失敗: %w", err)
	}
	return &cart.Cart{ID: row.ID, UserID: row.UserID, CreatedAt: row.CreatedAt}, nil
}

func (r *CartRepository) ListSummaryItems(ctx context.Context, cartID int64) ([]cart.SummaryItem, error) {
	var rows []cartSummaryRow
	query := `SELECT ci.id AS item_id, ci.flight_id, f.code AS flight_code, f.departure_at, f.arrival_at,
			ci.class_id, sc.name AS class_name, ci.quantity, ci.unit_price,
			co.name AS origin_city, po.name AS origin_country,
			cd.name AS destination_city, pd.name AS destination_country
		FROM cart_items ci
		JOIN flights f ON f.id = ci.flight_id
		JOIN seat_classes sc ON sc.id = ci.class_id
		JOIN routes ro ON ro.id = f.route_id
		JOIN cities co ON co.id = ro.origin_city_id
		JOIN countries po ON po.id = co.country_id
		JOIN cities cd ON cd.id = ro.destination_city_id
		JOIN countries pd ON pd.id = cd.country_id
		WHERE ci.cart_id = $1
		ORDER BY f.departure_at, ci.id`
	if err := r.db.SelectContext(ctx, &rows, query, cartID); err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗: %w", err)
	}
	items := make([]cart.SummaryItem, len(rows))
	for i, row := range rows {
		items[i] = cart.SummaryItem{
			ItemID: row.ItemID, FlightID: row.FlightID, FlightCode: row.FlightCode,
			DepartureAt: row.DepartureAt, ArrivalAt: row.ArrivalAt,
			ClassID: row.ClassID, ClassName: row.ClassName,
			Quantity: row.Quantity, UnitPrice: row.UnitPrice,
			OriginCity: row.OriginCity, OriginCountry: row.OriginCountry,
			DestinationCity: row.DestinationCity, DestinationCountry: row.DestinationCountry,
		}
	}
	return items, nil
}

func (r *CartRepository) ListItems(ctx context.Context, tx transaction.Tx, cartID int64) ([]cart.Item, error) {
	var rows []cartItemRow
	if err := sqlx.SelectContext(ctx, executor(r.db, tx), &rows,
		`SELECT id, cart_id, flight_id, class_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 ORDER BY id`,
		cartID); err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗: %w", err)
	}
	items := make([]cart.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].toEntity()
	}
	return items, nil
}

func (r *CartRepository) FindItem(ctx context.Context, tx transaction.Tx, cartID, itemID int64) (*cart.Item, error) {
	return r.findItem(ctx, tx,
		`SELECT id, cart_id, flight_id, class_id, quantity, unit_price FROM cart_items WHERE id = $1 AND cart_id = $2`,
		itemID, cartID)
}

func (r *CartRepository) FindItemByOffering(ctx context.Context, tx transaction.Tx, cartID, flightID, classID int64) (*cart.Item, error) {
	return r.findItem(ctx, tx,
		`SELECT id, cart_id, flight_id, class_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 AND flight_id = $2 AND class_id = $3`,
		cartID, flightID, classID)
}

func (r *CartRepository) findItem(ctx context.Context, tx transaction.Tx, query string, args ...interface{}) (*cart.Item, error) {
	var row cartItemRow
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("カート明細の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *CartRepository) UpsertItem(ctx context.Context, tx transaction.Tx, cartID, flightID, classID int64, quantity int, unitPrice decimal.Decimal) error {
	query := `INSERT INTO cart_items (cart_id, flight_id, class_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, flight_id, class_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	if _, err := executor(r.db, tx).ExecContext(ctx, query, cartID, flightID, classID, quantity, unitPrice); err != nil {
		return fmt.Errorf("カート明細の追加に失敗: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, tx transaction.Tx, cartID, itemID int64, quantity int) error {
	result, err := executor(r.db, tx).ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND cart_id = $2`, itemID, cartID, quantity)
	if err != nil {
		return fmt.Errorf("カート明細の更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, tx transaction.Tx, cartID, itemID int64) error {
	result, err := executor(r.db, tx).ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("カート明細の削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) ReplaceItems(ctx context.Context, tx transaction.Tx, cartID int64, items []cart.Item) error {
	if err := r.ClearItems(ctx, tx, cartID); err != nil {
		return err
	}
	ex := executor(r.db, tx)
	for _, it := range items {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO cart_items (cart_id, flight_id, class_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`,
			cartID, it.FlightID, it.ClassID, it.Quantity, it.UnitPrice); err != nil {
			return fmt.Errorf("カート明細のコピーに失敗: %w", err)
		}
	}
	return nil
}

func (r *CartRepository) ClearItems(ctx context.Context, tx transaction.Tx, cartID int64) error {
	if _, err := executor(r.db, tx).ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("カートのクリアに失敗: %w", err)
	}
	return nil
}

var _ cart.Repository = (*CartRepository)(nil)
