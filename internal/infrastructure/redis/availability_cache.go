package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

type availabilityEntry struct {
	Capacity int `json:"capacity"`
	Reserved int `json:"reserved"`
	Held     int `json:"held"`
}

// AvailabilityCache は表示用の空席数を短時間キャッシュする
// 在庫の判定はキャッシュを使わず、常にロックした行から再計算する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// Get は販売設定の空席情報をキャッシュから取得する
func (c *AvailabilityCache) Get(ctx context.Context, flightID, classID int64) (*flight.Availability, error) {
	raw, err := c.client.Get(ctx, availabilityKey(flightID, classID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var e availabilityEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return &flight.Availability{
		FlightID: flightID,
		ClassID:  classID,
		Capacity: e.Capacity,
		Reserved: e.Reserved,
		Held:     e.Held,
	}, nil
}

// Set は空席情報をキャッシュに保存する
func (c *AvailabilityCache) Set(ctx context.Context, a *flight.Availability, ttl time.Duration) error {
	raw, err := json.Marshal(availabilityEntry{Capacity: a.Capacity, Reserved: a.Reserved, Held: a.Held})
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, availabilityKey(a.FlightID, a.ClassID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は指定した販売設定のキャッシュをまとめて無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, keys ...flight.OfferingKey) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, availabilityKey(k.FlightID, k.ClassID))
	}
	if err := c.client.Del(ctx, names...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availabilityKey(flightID, classID int64) string {
	return fmt.Sprintf("availability:%d:%d", flightID, classID)
}
