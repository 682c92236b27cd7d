// Package pgtest はテスト用の PostgreSQL コンテナとフィクスチャを提供する
package pgtest

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sanosuguru/go-airline-reservation/internal/config"
	"github.com/sanosuguru/go-airline-reservation/internal/infrastructure/postgres"
)

// Start はマイグレーション適用済みのデータベースを起動する
// Docker が使えない環境や -short ではテストをスキップする
func Start(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("PostgreSQL container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.NewConnection(&config.DatabaseConfig{
		Host:            host,
		Port:            port.Port(),
		User:            "testuser",
		Password:        "testpass",
		DBName:          "testdb",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.RunMigrations(db.DB, MigrationsPath()))
	return db
}

// MigrationsPath はリポジトリ直下の migrations ディレクトリを返す
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}

// Fixtures はカタログとユーザーのテストデータを作成する
type Fixtures struct {
	t       *testing.T
	db      *sqlx.DB
	seq     int
	RouteID int64
	// ReturnRouteID は RouteID の逆方向
	ReturnRouteID int64
	ClassID       int64
}

// NewFixtures は国・都市・路線・座席クラスを作成する
func NewFixtures(t *testing.T, db *sqlx.DB) *Fixtures {
	t.Helper()
	f := &Fixtures{t: t, db: db}

	countryID := f.insert(`INSERT INTO countries (name) VALUES ('Japan') RETURNING id`)
	tokyo := f.insert(`INSERT INTO cities (country_id, name) VALUES ($1, 'Tokyo') RETURNING id`, countryID)
	osaka := f.insert(`INSERT INTO cities (country_id, name) VALUES ($1, 'Osaka') RETURNING id`, countryID)
	f.RouteID = f.insert(`INSERT INTO routes (origin_city_id, destination_city_id) VALUES ($1, $2) RETURNING id`, tokyo, osaka)
	f.ReturnRouteID = f.insert(`INSERT INTO routes (origin_city_id, destination_city_id) VALUES ($1, $2) RETURNING id`, osaka, tokyo)
	f.ClassID = f.insert(`INSERT INTO seat_classes (name) VALUES ('Economy') RETURNING id`)
	return f
}

// User はユーザーを作成する
func (f *Fixtures) User(email string) int64 {
	f.t.Helper()
	return f.insert(`INSERT INTO users (first_name, last_name, email) VALUES ('Taro', 'Yamada', $1) RETURNING id`, email)
}

// Flight は往路の路線でフライトを作成する
func (f *Fixtures) Flight(code string) int64 {
	f.t.Helper()
	return f.flight(code, f.RouteID)
}

// ReturnFlight は復路の路線でフライトを作成する
func (f *Fixtures) ReturnFlight(code string) int64 {
	f.t.Helper()
	return f.flight(code, f.ReturnRouteID)
}

func (f *Fixtures) flight(code string, routeID int64) int64 {
	f.seq++
	departure := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * 24 * time.Hour)
	return f.insert(`INSERT INTO flights (code, route_id, departure_at, arrival_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		code, routeID, departure, departure.Add(90*time.Minute))
}

// Offering は販売設定を作成する。price が空ならクラスの既定価格に設定する
func (f *Fixtures) Offering(flightID int64, capacity int, price string) {
	f.t.Helper()
	ctx := context.Background()
	if price == "" {
		_, err := f.db.ExecContext(ctx, `INSERT INTO flight_offerings (flight_id, class_id, total_capacity) VALUES ($1, $2, $3)`,
			flightID, f.ClassID, capacity)
		require.NoError(f.t, err)
		_, err = f.db.ExecContext(ctx, `INSERT INTO flight_class_prices (flight_id, class_id, price) VALUES ($1, $2, 80.00)`,
			flightID, f.ClassID)
		require.NoError(f.t, err)
		return
	}
	_, err := f.db.ExecContext(ctx, `INSERT INTO flight_offerings (flight_id, class_id, total_capacity, price) VALUES ($1, $2, $3, $4)`,
		flightID, f.ClassID, capacity, price)
	require.NoError(f.t, err)
}

// Pair は2つのフライトを相互に往復ペアとして登録する
func (f *Fixtures) Pair(a, b int64) {
	f.t.Helper()
	_, err := f.db.ExecContext(context.Background(),
		`UPDATE flights SET paired_flight_id = CASE WHEN id = $1 THEN $2 ELSE $1 END WHERE id IN ($1, $2)`, a, b)
	require.NoError(f.t, err)
}

// SetFlightState はフライトの状態を直接書き換える
func (f *Fixtures) SetFlightState(flightID int64, stateID int, active bool) {
	f.t.Helper()
	_, err := f.db.ExecContext(context.Background(), `UPDATE flights SET state_id = $2, active = $3 WHERE id = $1`, flightID, stateID, active)
	require.NoError(f.t, err)
}

// Count は任意のクエリの件数を返す
func (f *Fixtures) Count(query string, args ...any) int {
	f.t.Helper()
	var n int
	require.NoError(f.t, f.db.GetContext(context.Background(), &n, query, args...))
	return n
}

func (f *Fixtures) insert(query string, args ...any) int64 {
	f.t.Helper()
	var id int64
	err := f.db.QueryRowxContext(context.Background(), query, args...).Scan(&id)
	require.NoError(f.t, err, fmt.Sprintf("fixture: %s", query))
	return id
}
