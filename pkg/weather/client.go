// Package weather is the OpenWeatherMap provider client. It owns all
// provider-specific normalization (metric conversions, condition mapping)
// and error translation; no persistent state lives here.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/valpere/skycast/internal/models"
)

const (
	hourlyPoints = 8
	dailyPoints  = 7
)

// Client issues requests against the provider's current-conditions,
// forecast and geocoding endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	circuit    *gobreaker.CircuitBreaker
	mock       *MockForecaster

	// authMu guards lastAuth, the credential failure that tripped the
	// breaker. While the breaker is open it keeps auth failures surfacing
	// as auth failures instead of generic transient errors.
	authMu   sync.Mutex
	lastAuth *AuthError
}

// NewClient creates a provider client. Outbound calls share a client-side
// rate limiter and a circuit breaker so that credential failures and
// provider outages stop hammering the upstream.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweather",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		}),
		mock: NewMockForecaster(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
}

// GeoResult is one geocoding match.
type GeoResult struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// FetchCurrent returns a fresh WeatherSnapshot for the queried place.
// Errors are typed: *NotFoundError for an unknown place, *AuthError for
// rejected credentials, *TransientError for everything else.
func (c *Client) FetchCurrent(ctx context.Context, query Query) (*models.WeatherSnapshot, error) {
	values := query.Values()
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	body, err := c.get(ctx, "/data/2.5/weather", values, query.String())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Clouds struct {
			All int `json:"all"`
		} `json:"clouds"`
		Sys struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
		Visibility int `json:"visibility"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &TransientError{Err: err}
	}

	snapshot := &models.WeatherSnapshot{
		LocationName:  payload.Name,
		CountryCode:   payload.Sys.Country,
		TemperatureC:  payload.Main.Temp,
		HumidityPct:   payload.Main.Humidity,
		WindSpeedKmh:  payload.Wind.Speed * 3.6, // m/s to km/h
		FeelsLikeC:    payload.Main.FeelsLike,
		PressureHPa:   payload.Main.Pressure,
		VisibilityKm:  float64(payload.Visibility) / 1000, // m to km
		CloudCoverPct: payload.Clouds.All,
		SunriseEpoch:  payload.Sys.Sunrise,
		SunsetEpoch:   payload.Sys.Sunset,
	}
	if len(payload.Weather) > 0 {
		snapshot.ConditionMain = payload.Weather[0].Main
		snapshot.ConditionDescription = payload.Weather[0].Description
		snapshot.IconCode = payload.Weather[0].Icon
	}

	return snapshot, nil
}

// FetchForecast returns the hourly/daily forecast bundle. Failures are
// propagated with the same taxonomy as FetchCurrent; the caller decides the
// fallback policy. An empty forecast list counts as a transient failure.
func (c *Client) FetchForecast(ctx context.Context, query Query) (*models.ForecastBundle, error) {
	values := query.Values()
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	body, err := c.get(ctx, "/data/2.5/forecast", values, query.String())
	if err != nil {
		return nil, err
	}

	var payload struct {
		List []forecastSample `json:"list"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &TransientError{Err: err}
	}
	if len(payload.List) == 0 {
		return nil, &TransientError{Err: errors.New("empty forecast list")}
	}

	return &models.ForecastBundle{
		Hourly: c.reduceHourly(payload.List),
		Daily:  c.reduceDaily(payload.List),
	}, nil
}

// Geocode resolves a free-text place name to coordinates. No match is an
// empty result, not an error; callers decide the fallback.
func (c *Client) Geocode(ctx context.Context, placeName string) (*GeoResult, error) {
	values := url.Values{}
	values.Set("q", placeName)
	values.Set("limit", "1")
	values.Set("appid", c.apiKey)

	body, err := c.get(ctx, "/geo/1.0/direct", values, placeName)
	if err != nil {
		return nil, err
	}

	var payload []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &TransientError{Err: err}
	}
	if len(payload) == 0 {
		return nil, nil
	}

	match := payload[0]
	return &GeoResult{
		Name:    match.Name,
		Country: match.Country,
		Lat:     match.Lat,
		Lon:     match.Lon,
	}, nil
}

// MockBundle exposes the synthesized forecast so callers implementing the
// degrade-gracefully policy can substitute it when FetchForecast fails.
func (c *Client) MockBundle() *models.ForecastBundle {
	return c.mock.Bundle()
}

type forecastSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func (s forecastSample) description() string {
	if len(s.Weather) == 0 {
		return ""
	}
	return s.Weather[0].Description
}

func (s forecastSample) icon() string {
	if len(s.Weather) == 0 {
		return ""
	}
	return s.Weather[0].Icon
}

// reduceHourly maps the first 8 provider samples (~24h at 3-hour steps)
// into hourly points.
func (c *Client) reduceHourly(list []forecastSample) []models.HourlyPoint {
	n := len(list)
	if n > hourlyPoints {
		n = hourlyPoints
	}

	hourly := make([]models.HourlyPoint, 0, n)
	for _, item := range list[:n] {
		hourly = append(hourly, models.HourlyPoint{
			Time:                 time.Unix(item.Dt, 0).UTC().Format(time.RFC3339),
			TemperatureC:         item.Main.Temp,
			ConditionDescription: item.description(),
			IconCode:             item.icon(),
			HumidityPct:          item.Main.Humidity,
			WindSpeedKmh:         item.Wind.Speed * 3.6,
			FeelsLikeC:           item.Main.FeelsLike,
		})
	}
	return hourly
}

// reduceDaily groups the 3-hourly samples by calendar date, takes min/max
// temperature per date and the first sample of each date as representative
// for condition and icon. The bundle always carries exactly 7 daily
// entries; missing days are padded with synthesized ones.
func (c *Client) reduceDaily(list []forecastSample) []models.DailyPoint {
	daily := make([]models.DailyPoint, 0, dailyPoints)
	seen := make(map[string]int) // date key -> index into daily

	for _, item := range list {
		ts := time.Unix(item.Dt, 0).UTC()
		dateKey := ts.Format("2006-01-02")

		if idx, ok := seen[dateKey]; ok {
			if item.Main.Temp < daily[idx].Temperature.Min {
				daily[idx].Temperature.Min = item.Main.Temp
			}
			if item.Main.Temp > daily[idx].Temperature.Max {
				daily[idx].Temperature.Max = item.Main.Temp
			}
			continue
		}
		if len(daily) >= dailyPoints {
			continue
		}

		seen[dateKey] = len(daily)
		daily = append(daily, models.DailyPoint{
			Date: ts.Format(time.RFC3339),
			Temperature: models.TemperatureRange{
				Min: item.Main.Temp,
				Max: item.Main.Temp,
			},
			ConditionDescription: item.description(),
			IconCode:             item.icon(),
			HumidityPct:          item.Main.Humidity,
		})
	}

	for len(daily) < dailyPoints {
		daily = append(daily, c.mock.Day(len(daily)))
	}
	return daily
}

type httpResult struct {
	status int
	body   []byte
}

func (c *Client) setLastAuth(err *AuthError) {
	c.authMu.Lock()
	c.lastAuth = err
	c.authMu.Unlock()
}

func (c *Client) getLastAuth() *AuthError {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.lastAuth
}

// get executes a provider request through the limiter and circuit breaker
// and translates the response status into the error taxonomy. A 404 is a
// user error and does not count against the breaker; 401 and 5xx do.
func (c *Client) get(ctx context.Context, path string, values url.Values, queryLabel string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransientError{Err: err}
	}

	requestURL := c.baseURL + path + "?" + values.Encode()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, &TransientError{Err: err}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &TransientError{Err: err}
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransientError{Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			authErr := &AuthError{Status: resp.StatusCode}
			c.setLastAuth(authErr)
			return nil, authErr
		}
		if resp.StatusCode >= 500 {
			return nil, &TransientError{Status: resp.StatusCode}
		}
		c.setLastAuth(nil)
		return httpResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if authErr := c.getLastAuth(); authErr != nil {
				return nil, authErr
			}
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}

	res := result.(httpResult)
	switch {
	case res.status == http.StatusOK:
		return res.body, nil
	case res.status == http.StatusNotFound:
		return nil, &NotFoundError{Query: queryLabel}
	default:
		return nil, &TransientError{Status: res.status}
	}
}
