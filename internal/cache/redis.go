package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/restobooking/config"
	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	bookingTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, bookingTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		bookingTTL: bookingTTL,
	}
}

func (c *RedisCache) GetBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error) {
	data, err := c.client.Get(ctx, bookingKey(bookingID, tenantID, restaurantID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var b domain.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *RedisCache) SetBooking(ctx context.Context, b *domain.Booking) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bookingKey(b.ID, b.TenantID, b.RestaurantID), payload, c.bookingTTL).Err()
}

func (c *RedisCache) InvalidateBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) error {
	return c.client.Del(ctx, bookingKey(bookingID, tenantID, restaurantID)).Err()
}

// WasEventSeen is a best-effort fast path in front of the ledger: the marker
// is only written after an event was fully handled, so a hit lets duplicate
// deliveries answer without a DB round trip. Advisory only; the
// payment_events unique constraint remains the source of truth for admission.
func (c *RedisCache) WasEventSeen(ctx context.Context, eventID string) (bool, error) {
	err := c.client.Get(ctx, eventKey(eventID)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) error {
	return c.client.Set(ctx, eventKey(eventID), "seen", ttl).Err()
}

func bookingKey(bookingID, tenantID, restaurantID int64) string {
	return fmt.Sprintf("cache:booking:%d:%d:%d", tenantID, restaurantID, bookingID)
}

func eventKey(eventID string) string {
	return fmt.Sprintf("seen:payment-event:%s", eventID)
}
