package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

type flightRow struct {
	ID             int64         `db:"id"`
	Code           string        `db:"code"`
	Active         bool          `db:"active"`
	StateID        int           `db:"state_id"`
	PairedFlightID sql.NullInt64 `db:"paired_flight_id"`
	DepartureAt    time.Time     `db:"departure_at"`
	ArrivalAt      time.Time     `db:"arrival_at"`
}

func (r *flightRow) toEntity() *flight.Flight {
	f := &flight.Flight{
		ID:          r.ID,
		Code:        r.Code,
		Active:      r.Active,
		State:       flight.State(r.StateID),
		DepartureAt: r.DepartureAt,
		ArrivalAt:   r.ArrivalAt,
	}
	if r.PairedFlightID.Valid {
		id := r.PairedFlightID.Int64
		f.PairedFlightID = &id
	}
	return f
}

type offeringRow struct {
	FlightID int64               `db:"flight_id"`
	ClassID  int64               `db:"class_id"`
	Capacity int                 `db:"total_capacity"`
	Price    decimal.NullDecimal `db:"price"`
}

type FlightRepository struct{ db *sqlx.DB }

func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

func (r *FlightRepository) GetByID(ctx context.Context, tx transaction.Tx, id int64, forUpdate bool) (*flight.Flight, error) {
	query := `SELECT id, code, active, state_id, paired_flight_id, departure_at, arrival_at FROM flights WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var row flightRow
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("フライト取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetOffering は販売設定を取得する。価格がなければクラスの既定価格を使う
// 外部結合のため FOR UPDATE OF o で販売設定の行だけをロックする
func (r *FlightRepository) GetOffering(ctx context.Context, tx transaction.Tx, flightID, classID int64, forUpdate bool) (*flight.Offering, error) {
	query := `SELECT o.flight_id, o.class_id, o.total_capacity, COALESCE(o.price, p.price) AS price
		FROM flight_offerings o
		LEFT JOIN flight_class_prices p ON p.flight_id = o.flight_id AND p.class_id = o.class_id
		WHERE o.flight_id = $1 AND o.class_id = $2`
	if forUpdate {
		query += ` FOR UPDATE OF o`
	}
	var row offeringRow
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &row, query, flightID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("販売設定取得に失敗: %w", err)
	}
	if !row.Price.Valid {
		return nil, flight.ErrPriceNotFound
	}
	return &flight.Offering{
		FlightID: row.FlightID,
		ClassID:  row.ClassID,
		Capacity: row.Capacity,
		Price:    row.Price.Decimal,
	}, nil
}

func (r *FlightRepository) ReservedCount(ctx context.Context, tx transaction.Tx, flightID, classID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM reservation_items ri
		JOIN reservations r ON r.id = ri.reservation_id
		WHERE ri.flight_id = $1 AND ri.class_id = $2 AND r.state_id = $3`
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &n, query, flightID, classID, int(reservation.StatusActive)); err != nil {
		return 0, fmt.Errorf("予約済み座席数の取得に失敗: %w", err)
	}
	return n, nil
}

func (r *FlightRepository) CartHeldCount(ctx context.Context, tx transaction.Tx, flightID, classID int64) (int, error) {
	var n int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE flight_id = $1 AND class_id = $2`
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &n, query, flightID, classID); err != nil {
		return 0, fmt.Errorf("カート確保座席数の取得に失敗: %w", err)
	}
	return n, nil
}

func (r *FlightRepository) IncrementCapacity(ctx context.Context, tx transaction.Tx, flightID, classID int64, delta int) error {
	result, err := executor(r.db, tx).ExecContext(ctx,
		`UPDATE flight_offerings SET total_capacity = total_capacity + $3 WHERE flight_id = $1 AND class_id = $2`,
		flightID, classID, delta)
	if err != nil {
		return fmt.Errorf("座席数の返却に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return flight.ErrOfferingNotFound
	}
	return nil
}

func (r *FlightRepository) UpdateState(ctx context.Context, tx transaction.Tx, flightID int64, state flight.State) error {
	result, err := executor(r.db, tx).ExecContext(ctx, `UPDATE flights SET state_id = $2 WHERE id = $1`, flightID, int(state))
	if err != nil {
		return fmt.Errorf("フライト状態の更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return flight.ErrFlightNotFound
	}
	return nil
}

func (r *FlightRepository) InsertStateReason(ctx context.Context, tx transaction.Tx, flightID int64, state flight.State, reason string) error {
	if _, err := executor(r.db, tx).ExecContext(ctx,
		`INSERT INTO flight_state_reasons (flight_id, state_id, reason) VALUES ($1, $2, $3)`,
		flightID, int(state), reason); err != nil {
		return fmt.Errorf("状態変更理由の保存に失敗: %w", err)
	}
	return nil
}

func (r *FlightRepository) ClearPairing(ctx context.Context, tx transaction.Tx, flightID int64) error {
	if _, err := executor(r.db, tx).ExecContext(ctx,
		`UPDATE flights SET paired_flight_id = NULL WHERE id = $1 OR paired_flight_id = $1`, flightID); err != nil {
		return fmt.Errorf("往復ペアの解除に失敗: %w", err)
	}
	return nil
}

var _ flight.Repository = (*FlightRepository)(nil)
