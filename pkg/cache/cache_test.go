package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise Cache against a mocked go-redis client, so the
// command sequence each helper issues is pinned down exactly.

func TestCache_SetAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db)
	ctx := context.Background()

	mock.ExpectSet("delivery:abc", []byte(`{"status":"in_transit"}`), time.Minute).SetVal("OK")
	err := c.Set(ctx, "delivery:abc", map[string]string{"status": "in_transit"}, time.Minute)
	require.NoError(t, err)

	mock.ExpectGet("delivery:abc").SetVal(`{"status":"in_transit"}`)
	var got map[string]string
	require.NoError(t, c.Get(ctx, "delivery:abc", &got))
	assert.Equal(t, "in_transit", got["status"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetOrSet_MissPopulates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db)
	ctx := context.Background()

	mock.ExpectGet("system_settings:all").RedisNil()
	mock.ExpectSet("system_settings:all", []byte(`{"tax_rate":"0.0875"}`), 30*time.Second).SetVal("OK")

	calls := 0
	var got map[string]string
	err := c.GetOrSet(ctx, "system_settings:all", 30*time.Second, func() (interface{}, error) {
		calls++
		return map[string]string{"tax_rate": "0.0875"}, nil
	}, &got)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "0.0875", got["tax_rate"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetOrSet_HitSkipsLoader(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db)
	ctx := context.Background()

	mock.ExpectGet("system_settings:all").SetVal(`{"tax_rate":"0.0875"}`)

	var got map[string]string
	err := c.GetOrSet(ctx, "system_settings:all", 30*time.Second, func() (interface{}, error) {
		t.Fatal("loader must not run on a cache hit")
		return nil, nil
	}, &got)

	require.NoError(t, err)
	assert.Equal(t, "0.0875", got["tax_rate"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db)

	mock.ExpectDel("courier:location:xyz").SetVal(1)
	assert.NoError(t, c.Delete(context.Background(), "courier:location:xyz"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyGenerators(t *testing.T) {
	assert.Equal(t, "user:u1", UserKey("u1"))
	assert.Equal(t, "delivery:d1", DeliveryKey("d1"))
	assert.Equal(t, "courier:c1", CourierKey("c1"))
	assert.Equal(t, "courier:location:c1", CourierLocationKey("c1"))
	assert.Equal(t, "promo:WELCOME20", PromoCodeKey("WELCOME20"))
	assert.Equal(t, "offer:d1:c1", OfferKey("d1", "c1"))
	assert.Equal(t, "tracking:tok", TrackingTokenKey("tok"))
}
