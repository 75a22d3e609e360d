package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/skycast/pkg/metrics"
	"github.com/valpere/skycast/pkg/weather"
)

func TestWeatherService_GetCurrent(t *testing.T) {
	ctx := context.Background()
	query := weather.ByName("London")
	cacheKey := "weather:current:q:London"

	t.Run("cache miss fetches and caches", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{snapshot: londonSnapshot()}
		service := NewWeatherService(provider, client, silentLogger(), metrics.New())

		mock.ExpectGet(cacheKey).RedisNil()
		payload, _ := json.Marshal(londonSnapshot())
		mock.ExpectSet(cacheKey, payload, 10*time.Minute).SetVal("OK")

		snapshot, err := service.GetCurrent(ctx, query)

		require.NoError(t, err)
		assert.Equal(t, "London", snapshot.LocationName)
		assert.Equal(t, 1, provider.currentCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the provider", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{}
		service := NewWeatherService(provider, client, silentLogger(), metrics.New())

		payload, _ := json.Marshal(londonSnapshot())
		mock.ExpectGet(cacheKey).SetVal(string(payload))

		snapshot, err := service.GetCurrent(ctx, query)

		require.NoError(t, err)
		assert.Equal(t, "London", snapshot.LocationName)
		assert.Zero(t, provider.currentCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("provider errors keep their type", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{snapshotErr: &weather.NotFoundError{Query: "London"}}
		service := NewWeatherService(provider, client, silentLogger(), metrics.New())

		mock.ExpectGet(cacheKey).RedisNil()

		_, err := service.GetCurrent(ctx, query)

		var notFound *weather.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestWeatherService_GetForecast(t *testing.T) {
	ctx := context.Background()
	query := weather.ByCoords(51.5074, -0.1278)
	cacheKey := "weather:forecast:" + query.Key()

	t.Run("provider failure degrades to synthesized bundle", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{bundleErr: &weather.TransientError{Status: 500}}
		m := metrics.New()
		service := NewWeatherService(provider, client, silentLogger(), m)

		mock.ExpectGet(cacheKey).RedisNil()
		before := m.CounterValue("forecast_fallback_total")

		bundle := service.GetForecast(ctx, query)

		require.NotNil(t, bundle)
		assert.Len(t, bundle.Hourly, 8)
		assert.Len(t, bundle.Daily, 7)
		assert.Equal(t, before+1, m.CounterValue("forecast_fallback_total"))
		// The synthesized bundle must not be cached: no Set expectation,
		// and none is attempted.
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successful fetch is cached", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{bundle: (&stubProvider{}).MockBundle()}
		service := NewWeatherService(provider, client, silentLogger(), metrics.New())

		mock.ExpectGet(cacheKey).RedisNil()
		payload, _ := json.Marshal(provider.bundle)
		mock.ExpectSet(cacheKey, payload, time.Hour).SetVal("OK")

		bundle := service.GetForecast(ctx, query)

		require.NotNil(t, bundle)
		assert.Equal(t, 1, provider.forecastCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWeatherService_GetEnhanced(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	snapshot := londonSnapshot()
	snapshot.SunriseEpoch = time.Date(2026, 3, 10, 6, 30, 0, 0, time.Local).Unix()
	snapshot.SunsetEpoch = time.Date(2026, 3, 10, 18, 15, 0, 0, time.Local).Unix()

	provider := &stubProvider{snapshot: snapshot}
	service := NewWeatherService(provider, client, silentLogger(), metrics.New())
	service.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	mock.ExpectGet("weather:current:q:London").RedisNil()
	mock.Regexp().ExpectSet("weather:current:q:London", `.*`, 10*time.Minute).SetVal("OK")

	enhanced, err := service.GetEnhanced(ctx, weather.ByName("London"))

	require.NoError(t, err)
	// Noon under scattered clouds: 10 * 0.7 = 7.
	assert.Equal(t, 7, enhanced.UVIndex)
	assert.GreaterOrEqual(t, enhanced.AirQuality.AQI, 10)
	assert.LessOrEqual(t, enhanced.AirQuality.AQI, 300)
	assert.Equal(t, "6:30 AM", enhanced.SunTimes.Sunrise)
	assert.Equal(t, "6:15 PM", enhanced.SunTimes.Sunset)
}

// Handlers run concurrently, so the shared randomness behind the air
// quality estimate must tolerate parallel requests. Run with -race.
func TestWeatherService_GetEnhancedConcurrent(t *testing.T) {
	ctx := context.Background()
	client, _ := redismock.NewClientMock()
	provider := &stubProvider{snapshot: londonSnapshot()}
	service := NewWeatherService(provider, client, silentLogger(), metrics.New())

	const workers = 8
	const callsPerWorker = 50

	errs := make(chan error, workers*callsPerWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < callsPerWorker; i++ {
				enhanced, err := service.GetEnhanced(ctx, weather.ByName("London"))
				if err != nil {
					errs <- err
					continue
				}
				if enhanced.AirQuality.AQI < 10 || enhanced.AirQuality.AQI > 300 {
					errs <- fmt.Errorf("AQI %d out of range", enhanced.AirQuality.AQI)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestWeatherService_Geocode(t *testing.T) {
	ctx := context.Background()

	t.Run("no match is nil without error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{}
		service := NewWeatherService(provider, client, silentLogger(), metrics.New())

		mock.ExpectGet("geocode:nowhere").RedisNil()

		result, err := service.Geocode(ctx, "nowhere")

		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("match is cached for a day", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		provider := &stubProvider{geo: &weather.GeoResult{Name: "London", Country: "GB", Lat: 51.5074, Lon: -0.1278}}
		service := NewWeatherService(provider, client, silentLogger(), metrics.New())

		mock.ExpectGet("geocode:london").RedisNil()
		payload, _ := json.Marshal(provider.geo)
		mock.ExpectSet("geocode:london", payload, 24*time.Hour).SetVal("OK")

		result, err := service.Geocode(ctx, "london")

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 51.5074, result.Lat)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(&weather.NotFoundError{Query: "Atlantis"}), "Atlantis")
	assert.Contains(t, UserMessage(&weather.AuthError{Status: 401}), "credentials")
	assert.Contains(t, UserMessage(&weather.TransientError{Status: 502}), "retry")
}
