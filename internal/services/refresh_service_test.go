package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/skycast/internal/store"
	"github.com/valpere/skycast/pkg/metrics"
	"github.com/valpere/skycast/pkg/weather"
)

func TestRefreshService_RefreshFavorites(t *testing.T) {
	ctx := context.Background()

	client, mock := redismock.NewClientMock()
	snapshot := londonSnapshot()
	snapshot.TemperatureC = 21
	provider := &stubProvider{snapshot: snapshot}
	weatherService := NewWeatherService(provider, client, silentLogger(), metrics.New())

	registry := newTestRegistry(t, store.NewMemoryStore())
	require.NoError(t, registry.UpsertFromSearch(ctx, "London", "GB", coords(51.5074, -0.1278), londonSnapshot()))
	require.NoError(t, registry.UpsertFromSearch(ctx, "Paris", "FR", coords(48.8566, 2.3522), nil))
	require.NoError(t, registry.ToggleFavorite(ctx, "51.5074--0.1278"))

	cacheKey := "weather:current:" + weather.ByCoords(51.5074, -0.1278).Key()
	mock.ExpectGet(cacheKey).RedisNil()
	mock.Regexp().ExpectSet(cacheKey, `.*`, 10*time.Minute).SetVal("OK")

	refresh := NewRefreshService(weatherService, registry, silentLogger())
	refresh.refreshFavorites(ctx)

	// Only the favorite was fetched, and its cached weather advanced.
	assert.Equal(t, 1, provider.currentCalls)
	for _, entry := range registry.ListAll(SortRecency) {
		if entry.Name != "London" {
			continue
		}
		require.NotNil(t, entry.TemperatureC)
		assert.Equal(t, 21.0, *entry.TemperatureC)
	}
}

func TestRefreshService_StartStop(t *testing.T) {
	client, _ := redismock.NewClientMock()
	weatherService := NewWeatherService(&stubProvider{}, client, silentLogger(), metrics.New())
	registry := newTestRegistry(t, store.NewMemoryStore())

	refresh := NewRefreshService(weatherService, registry, silentLogger())

	done := make(chan struct{})
	go func() {
		refresh.Start(context.Background())
		close(done)
	}()

	refresh.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
}
