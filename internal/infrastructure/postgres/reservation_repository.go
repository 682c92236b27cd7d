package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

type reservationRow struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	StateID   int             `db:"state_id"`
	Total     decimal.Decimal `db:"total"`
	Code      sql.NullString  `db:"code"`
	CreatedAt time.Time       `db:"created_at"`
}

type reservationSummaryRow struct {
	reservationRow
	BuyerName  string `db:"buyer_name"`
	BuyerEmail string `db:"buyer_email"`
}

func (r *reservationSummaryRow) toSummary() reservation.Summary {
	return reservation.Summary{
		ID: r.ID, UserID: r.UserID, Status: reservation.Status(r.StateID),
		Total: r.Total, Code: r.Code.String, CreatedAt: r.CreatedAt,
		BuyerName: r.BuyerName, BuyerEmail: r.BuyerEmail,
	}
}

type detailItemRow struct {
	FlightID           int64           `db:"flight_id"`
	FlightCode         string          `db:"flight_code"`
	DepartureAt        time.Time       `db:"departure_at"`
	ArrivalAt          time.Time       `db:"arrival_at"`
	ClassID            int64           `db:"class_id"`
	ClassName          string          `db:"class_name"`
	Seats              int             `db:"seats"`
	UnitPrice          decimal.Decimal `db:"unit_price"`
	Subtotal           decimal.Decimal `db:"subtotal"`
	OriginCity         string          `db:"origin_city"`
	OriginCountry      string          `db:"origin_country"`
	DestinationCity    string          `db:"destination_city"`
	DestinationCountry string          `db:"destination_country"`

	ReturnCode               *string    `db:"return_code"`
	ReturnDepartureAt        *time.Time `db:"return_departure_at"`
	ReturnArrivalAt          *time.Time `db:"return_arrival_at"`
	ReturnOriginCity         *string    `db:"return_origin_city"`
	ReturnOriginCountry      *string    `db:"return_origin_country"`
	ReturnDestinationCity    *string    `db:"return_destination_city"`
	ReturnDestinationCountry *string    `db:"return_destination_country"`
}

func (r *detailItemRow) toEntity() reservation.DetailItem {
	it := reservation.DetailItem{
		FlightID: r.FlightID, FlightCode: r.FlightCode,
		DepartureAt: r.DepartureAt, ArrivalAt: r.ArrivalAt,
		ClassID: r.ClassID, ClassName: r.ClassName,
		Seats: r.Seats, UnitPrice: r.UnitPrice, Subtotal: r.Subtotal,
		OriginCity: r.OriginCity, OriginCountry: r.OriginCountry,
		DestinationCity: r.DestinationCity, DestinationCountry: r.DestinationCountry,
	}
	if r.ReturnCode != nil {
		leg := &reservation.ReturnLeg{FlightCode: *r.ReturnCode}
		if r.ReturnDepartureAt != nil {
			leg.DepartureAt = *r.ReturnDepartureAt
		}
		if r.ReturnArrivalAt != nil {
			leg.ArrivalAt = *r.ReturnArrivalAt
		}
		leg.OriginCity = deref(r.ReturnOriginCity)
		leg.OriginCountry = deref(r.ReturnOriginCountry)
		leg.DestinationCity = deref(r.ReturnDestinationCity)
		leg.DestinationCountry = deref(r.ReturnDestinationCountry)
		it.Return = leg
	}
	return it
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const reservationSummaryColumns = `r.id, r.user_id, r.state_id, r.total, r.code, r.created_at,
	TRIM(u.first_name || ' ' || u.last_name) AS buyer_name, u.email AS buyer_email`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*reservation.Reservation, error) {
	var row reservationRow
	if err := sqlx.GetContext(ctx, executor(r.db, tx), &row,
		`SELECT id, user_id, state_id, total, code, created_at FROM reservations WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return &reservation.Reservation{
		ID: row.ID, UserID: row.UserID, Status: reservation.Status(row.StateID),
		Total: row.Total, Code: row.Code.String, CreatedAt: row.CreatedAt,
	}, nil
}

func (r *ReservationRepository) CountItemsByOffering(ctx context.Context, tx transaction.Tx, reservationID int64) ([]reservation.OfferingCount, error) {
	var rows []struct {
		FlightID int64 `db:"flight_id"`
		ClassID  int64 `db:"class_id"`
		Seats    int   `db:"seats"`
	}
	query := `SELECT flight_id, class_id, COUNT(*) AS seats FROM reservation_items
		WHERE reservation_id = $1
		GROUP BY flight_id, class_id
		ORDER BY flight_id, class_id`
	if err := sqlx.SelectContext(ctx, executor(r.db, tx), &rows, query, reservationID); err != nil {
		return nil, fmt.Errorf("予約明細の集計に失敗: %w", err)
	}
	counts := make([]reservation.OfferingCount, len(rows))
	for i, row := range rows {
		counts[i] = reservation.OfferingCount{FlightID: row.FlightID, ClassID: row.ClassID, Seats: row.Seats}
	}
	return counts, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status reservation.Status) error {
	result, err := executor(r.db, tx).ExecContext(ctx, `UPDATE reservations SET state_id = $2 WHERE id = $1`, id, int(status))
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) UpdateItemsStatus(ctx context.Context, tx transaction.Tx, reservationIDs []int64, status reservation.Status) error {
	if len(reservationIDs) == 0 {
		return nil
	}
	if _, err := executor(r.db, tx).ExecContext(ctx,
		`UPDATE reservation_items SET state_id = $1 WHERE reservation_id = ANY($2)`,
		int(status), pq.Array(reservationIDs)); err != nil {
		return fmt.Errorf("予約明細の更新に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) ListActiveIDsByFlight(ctx context.Context, tx transaction.Tx, flightID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT r.id FROM reservations r
		WHERE r.state_id = $2
		  AND EXISTS (SELECT 1 FROM reservation_items ri WHERE ri.reservation_id = r.id AND ri.flight_id = $1)
		ORDER BY r.id
		FOR UPDATE`
	if err := sqlx.SelectContext(ctx, executor(r.db, tx), &ids, query, flightID, int(reservation.StatusActive)); err != nil {
		return nil, fmt.Errorf("対象予約の取得に失敗: %w", err)
	}
	return ids, nil
}

func (r *ReservationRepository) BulkUpdateStatus(ctx context.Context, tx transaction.Tx, ids []int64, status reservation.Status) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := executor(r.db, tx).ExecContext(ctx,
		`UPDATE reservations SET state_id = $1 WHERE id = ANY($2)`, int(status), pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("予約の一括更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

func (r *ReservationRepository) LinkAgent(ctx context.Context, tx transaction.Tx, reservationID, agentUserID int64) error {
	if _, err := executor(r.db, tx).ExecContext(ctx,
		`INSERT INTO reservation_agents (reservation_id, agent_user_id) VALUES ($1, $2)`,
		reservationID, agentUserID); err != nil {
		return fmt.Errorf("代理店の紐付けに失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID int64) ([]reservation.Summary, error) {
	query := `SELECT ` + reservationSummaryColumns + `
		FROM reservations r JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC`
	return r.selectSummaries(ctx, query, userID)
}

// ListAdmin は管理者用の条件付き一覧を返す
func (r *ReservationRepository) ListAdmin(ctx context.Context, filter reservation.AdminFilter) ([]reservation.Summary, error) {
	f := filter.Normalize()
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Query != "" {
		like := arg("%" + strings.ToLower(f.Query) + "%")
		cond := "LOWER(u.email) LIKE " + like + " OR LOWER(u.first_name) LIKE " + like + " OR LOWER(u.last_name) LIKE " + like
		if uid, err := strconv.ParseInt(f.Query, 10, 64); err == nil {
			cond += " OR r.user_id = " + arg(uid)
		}
		where = append(where, "("+cond+")")
	}
	if f.User != "" {
		if uid, err := strconv.ParseInt(f.User, 10, 64); err == nil {
			where = append(where, "r.user_id = "+arg(uid))
		} else {
			where = append(where, "LOWER(u.email) LIKE "+arg("%"+strings.ToLower(f.User)+"%"))
		}
	}
	if f.Code != "" {
		where = append(where, "LOWER(r.code) LIKE "+arg("%"+strings.ToLower(f.Code)+"%"))
	}
	if f.Flight != "" {
		sub := "EXISTS (SELECT 1 FROM reservation_items ri JOIN flights v ON v.id = ri.flight_id WHERE ri.reservation_id = r.id AND "
		if fid, err := strconv.ParseInt(f.Flight, 10, 64); err == nil {
			sub += "v.id = " + arg(fid) + ")"
		} else {
			sub += "LOWER(v.code) LIKE " + arg("%"+strings.ToLower(f.Flight)+"%") + ")"
		}
		where = append(where, sub)
	}
	if f.From != nil {
		where = append(where, "r.created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "r.created_at < "+arg(*f.To))
	}
	if f.Status != nil {
		where = append(where, "r.state_id = "+arg(int(*f.Status)))
	}

	query := `SELECT ` + reservationSummaryColumns + ` FROM reservations r JOIN users u ON u.id = r.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.id DESC"
	return r.selectSummaries(ctx, query, args...)
}

func (r *ReservationRepository) selectSummaries(ctx context.Context, query string, args ...interface{}) ([]reservation.Summary, error) {
	var rows []reservationSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]reservation.Summary, len(rows))
	for i := range rows {
		result[i] = rows[i].toSummary()
	}
	return result, nil
}

func (r *ReservationRepository) GetSummary(ctx context.Context, id int64) (*reservation.Summary, error) {
	var row reservationSummaryRow
	query := `SELECT ` + reservationSummaryColumns + `
		FROM reservations r JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	s := row.toSummary()
	return &s, nil
}

// ListDetailItems は予約明細をフライト×クラス単位でまとめて返す
func (r *ReservationRepository) ListDetailItems(ctx context.Context, id int64) ([]reservation.DetailItem, error) {
	query := `SELECT f.id AS flight_id, f.code AS flight_code, f.departure_at, f.arrival_at,
			sc.id AS class_id, sc.name AS class_name,
			COUNT(*) AS seats, MIN(ri.unit_price) AS unit_price, SUM(ri.unit_price) AS subtotal,
			co.name AS origin_city, po.name AS origin_country,
			cd.name AS destination_city, pd.name AS destination_country,
			vp.code AS return_code, vp.departure_at AS return_departure_at, vp.arrival_at AS return_arrival_at,
			rco.name AS return_origin_city, rpo.name AS return_origin_country,
			rcd.name AS return_destination_city, rpd.name AS return_destination_country
		FROM reservation_items ri
		JOIN flights f ON f.id = ri.flight_id
		JOIN seat_classes sc ON sc.id = ri.class_id
		JOIN routes ro ON ro.id = f.route_id
		JOIN cities co ON co.id = ro.origin_city_id
		JOIN countries po ON po.id = co.country_id
		JOIN cities cd ON cd.id = ro.destination_city_id
		JOIN countries pd ON pd.id = cd.country_id
		LEFT JOIN flights vp ON vp.id = f.paired_flight_id
		LEFT JOIN routes rro ON rro.id = vp.route_id
		LEFT JOIN cities rco ON rco.id = rro.origin_city_id
		LEFT JOIN countries rpo ON rpo.id = rco.country_id
		LEFT JOIN cities rcd ON rcd.id = rro.destination_city_id
		LEFT JOIN countries rpd ON rpd.id = rcd.country_id
		WHERE ri.reservation_id = $1
		GROUP BY f.id, sc.id, co.id, po.id, cd.id, pd.id, vp.id, rco.id, rpo.id, rcd.id, rpd.id
		ORDER BY f.departure_at, sc.id`
	var rows []detailItemRow
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("予約明細の取得に失敗: %w", err)
	}
	items := make([]reservation.DetailItem, len(rows))
	for i := range rows {
		items[i] = rows[i].toEntity()
	}
	return items, nil
}

func (r *ReservationRepository) ListStates(ctx context.Context) ([]reservation.State, error) {
	var rows []struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM reservation_states ORDER BY id`); err != nil {
		return nil, fmt.Errorf("予約状態一覧の取得に失敗: %w", err)
	}
	states := make([]reservation.State, len(rows))
	for i, row := range rows {
		states[i] = reservation.State{ID: row.ID, Name: row.Name}
	}
	return states, nil
}

func (r *ReservationRepository) TopDestinations(ctx context.Context, from, to *time.Time, limit int) ([]reservation.DestinationStat, error) {
	args := []interface{}{int(reservation.StatusActive)}
	query := `SELECT cd.id AS city_id, cd.name AS city, pd.name AS country, COUNT(*) AS tickets
		FROM reservation_items ri
		JOIN reservations r ON r.id = ri.reservation_id
		JOIN flights v ON v.id = ri.flight_id
		JOIN routes ro ON ro.id = v.route_id
		JOIN cities cd ON cd.id = ro.destination_city_id
		JOIN countries pd ON pd.id = cd.country_id
		WHERE r.state_id = $1`
	if from != nil {
		args = append(args, *from)
		query += " AND r.created_at >= $" + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += " AND r.created_at < $" + strconv.Itoa(len(args))
	}
	query += " GROUP BY cd.id, cd.name, pd.name ORDER BY tickets DESC, cd.id"
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var rows []struct {
		CityID  int64  `db:"city_id"`
		City    string `db:"city"`
		Country string `db:"country"`
		Tickets int    `db:"tickets"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("人気目的地の集計に失敗: %w", err)
	}
	stats := make([]reservation.DestinationStat, len(rows))
	for i, row := range rows {
		stats[i] = reservation.DestinationStat{CityID: row.CityID, City: row.City, Country: row.Country, Tickets: row.Tickets}
	}
	return stats, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	var rows []struct {
		StateID int `db:"state_id"`
		Count   int `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT state_id, COUNT(*) AS count FROM reservations GROUP BY state_id`); err != nil {
		return nil, fmt.Errorf("予約状態別件数の取得に失敗: %w", err)
	}
	counts := make(map[reservation.Status]int, len(rows))
	for _, row := range rows {
		counts[reservation.Status(row.StateID)] = row.Count
	}
	return counts, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
