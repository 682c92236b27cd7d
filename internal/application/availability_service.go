package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
)

// AvailabilityService は販売設定の空席数を提供する
type AvailabilityService struct {
	flights flight.Repository
	cache   AvailabilityCache
	ttl     time.Duration
	group   singleflight.Group
}

// NewAvailabilityService は新しい AvailabilityService を作成する
// cache が nil の場合は毎回データベースから算出する
func NewAvailabilityService(flights flight.Repository, cache AvailabilityCache, ttl time.Duration) *AvailabilityService {
	return &AvailabilityService{flights: flights, cache: cache, ttl: ttl}
}

// GetAvailability は表示用の空席情報を返す。予約の可否判定には使わない
func (s *AvailabilityService) GetAvailability(ctx context.Context, flightID, classID int64) (*flight.Availability, error) {
	if s.cache != nil {
		if a, err := s.cache.Get(ctx, flightID, classID); err == nil {
			return a, nil
		}
	}

	v, err, _ := s.group.Do(fmt.Sprintf("%d:%d", flightID, classID), func() (any, error) {
		// 同じキーで待つ他の呼び出し元がいるので、最初の呼び出し元のキャンセルを伝播させない
		ctx := context.WithoutCancel(ctx)
		if _, err := s.flights.GetByID(ctx, nil, flightID, false); err != nil {
			return nil, err
		}
		o, err := s.flights.GetOffering(ctx, nil, flightID, classID, false)
		if err != nil {
			return nil, err
		}
		a, err := countAvailability(ctx, s.flights, nil, o)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, a, s.ttl); err != nil {
				logger.Warn("空席キャッシュの保存に失敗", zap.Error(err), zap.Int64("flight_id", flightID))
			}
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*flight.Availability), nil
}

// lockOffering は販売設定の行をロックしてから空席数を数える
// 同じ販売設定への確保はこのロックで直列化される
func lockOffering(ctx context.Context, flights flight.Repository, tx transaction.Tx, flightID, classID int64) (*flight.Offering, *flight.Availability, error) {
	o, err := flights.GetOffering(ctx, tx, flightID, classID, true)
	if err != nil {
		return nil, nil, err
	}
	a, err := countAvailability(ctx, flights, tx, o)
	if err != nil {
		return nil, nil, err
	}
	return o, a, nil
}

func countAvailability(ctx context.Context, flights flight.Repository, tx transaction.Tx, o *flight.Offering) (*flight.Availability, error) {
	reserved, err := flights.ReservedCount(ctx, tx, o.FlightID, o.ClassID)
	if err != nil {
		return nil, err
	}
	held, err := flights.CartHeldCount(ctx, tx, o.FlightID, o.ClassID)
	if err != nil {
		return nil, err
	}
	return &flight.Availability{
		FlightID: o.FlightID,
		ClassID:  o.ClassID,
		Capacity: o.Capacity,
		Reserved: reserved,
		Held:     held,
	}, nil
}

// bookableFlight はフライトを取得して予約可能かを検証する
func bookableFlight(ctx context.Context, flights flight.Repository, tx transaction.Tx, flightID int64) (*flight.Flight, error) {
	f, err := flights.GetByID(ctx, tx, flightID, false)
	if err != nil {
		return nil, err
	}
	if err := f.CheckBookable(); err != nil {
		return nil, err
	}
	return f, nil
}
