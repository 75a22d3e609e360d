package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/skycast/internal/models"
	"github.com/valpere/skycast/internal/store"
	"github.com/valpere/skycast/pkg/metrics"
	"github.com/valpere/skycast/pkg/weather"
)

// Registry capacity. Favorites are exempt from eviction, so a registry
// whose entries are all favorites can grow past the cap on insert.
const maxSavedLocations = 10

// Sort orders accepted by ListAll.
const (
	SortRecency       = "recency"
	SortDistance      = "distance"
	SortFavoriteFirst = "favoriteFirst"
)

// Geocoder resolves free-text place names for saves that arrive without
// coordinates. *WeatherService satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, placeName string) (*weather.GeoResult, error)
}

// Coordinates is a lat/lon pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationRegistry owns the saved/favorite location collection. It is the
// only writer to its store key. Readers see the in-memory cache, hydrated
// once at construction; registries in other processes can diverge until
// they react to the change notification and re-hydrate.
type LocationRegistry struct {
	mu       sync.RWMutex
	store    store.Store
	geocoder Geocoder
	notifier Notifier
	logger   *zerolog.Logger
	metrics  *metrics.Metrics

	entries   []models.SavedLocation
	reference *Coordinates
	now       func() time.Time
}

func NewLocationRegistry(ctx context.Context, st store.Store, geocoder Geocoder, notifier Notifier, logger *zerolog.Logger, m *metrics.Metrics) *LocationRegistry {
	r := &LocationRegistry{
		store:    st,
		geocoder: geocoder,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
	r.hydrate(ctx)
	return r
}

func (r *LocationRegistry) hydrate(ctx context.Context) {
	raw, err := r.store.GetItem(ctx, store.KeySavedLocations)
	if err != nil {
		if err != store.ErrNotFound {
			r.logger.Warn().Err(err).Msg("Failed to read saved locations, starting empty")
		}
		return
	}
	if err := json.Unmarshal([]byte(raw), &r.entries); err != nil {
		r.logger.Warn().Err(err).Msg("Corrupt saved-locations payload, starting empty")
		r.entries = nil
	}
}

// UpsertFromSearch records a successful search. Missing coordinates are
// resolved through the geocoder; when that yields nothing the search is
// simply not persisted (logged, never an error), so the weather-lookup
// flow that triggered the save is never blocked.
func (r *LocationRegistry) UpsertFromSearch(ctx context.Context, name, country string, coords *Coordinates, sample *models.WeatherSnapshot) error {
	if coords == nil {
		match, err := r.geocoder.Geocode(ctx, name)
		if err != nil || match == nil {
			r.logger.Warn().
				Err(err).
				Str("name", name).
				Msg("Could not resolve coordinates, search not persisted")
			return nil
		}
		coords = &Coordinates{Lat: match.Lat, Lon: match.Lon}
		if country == "" {
			country = match.Country
		}
	}

	id := models.LocationID(name, country, coords.Lat, coords.Lon, true)
	nowStamp := r.now().UTC().Format(time.RFC3339)

	r.mu.Lock()
	if idx := r.indexOf(id); idx >= 0 {
		// Update in place: cached weather and recency advance, favorite
		// flag and position stay.
		entry := &r.entries[idx]
		entry.LastUpdated = nowStamp
		applySample(entry, sample)
	} else {
		entry := models.SavedLocation{
			ID:          id,
			Name:        name,
			Country:     country,
			Lat:         coords.Lat,
			Lon:         coords.Lon,
			IsFavorite:  false,
			LastUpdated: nowStamp,
		}
		applySample(&entry, sample)
		r.entries = append([]models.SavedLocation{entry}, r.entries...)
		r.evictOverCap()
	}
	r.mu.Unlock()

	return r.persist(ctx, "upsert")
}

// ToggleFavorite flips the favorite flag; unknown ids are a no-op.
func (r *LocationRegistry) ToggleFavorite(ctx context.Context, id string) error {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil
	}
	r.entries[idx].IsFavorite = !r.entries[idx].IsFavorite
	r.mu.Unlock()

	return r.persist(ctx, "favorite")
}

// Remove deletes the entry; absent ids are a no-op.
func (r *LocationRegistry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	r.mu.Unlock()

	return r.persist(ctx, "remove")
}

// Rename updates the display name. Empty or whitespace-only names are
// rejected as a no-op.
func (r *LocationRegistry) Rename(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil
	}

	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil
	}
	r.entries[idx].Name = newName
	r.mu.Unlock()

	return r.persist(ctx, "rename")
}

// UpdateCachedWeather refreshes the cached display weather for one entry.
func (r *LocationRegistry) UpdateCachedWeather(ctx context.Context, id string, sample *models.WeatherSnapshot) error {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return nil
	}
	r.entries[idx].LastUpdated = r.now().UTC().Format(time.RFC3339)
	applySample(&r.entries[idx], sample)
	r.mu.Unlock()

	return r.persist(ctx, "refresh")
}

// SetReference sets the origin used by distance sorting, typically the
// geolocated position of the active session.
func (r *LocationRegistry) SetReference(lat, lon float64) {
	r.mu.Lock()
	r.reference = &Coordinates{Lat: lat, Lon: lon}
	r.mu.Unlock()
}

// ListFavorites returns the favorite entries, most recently updated first.
func (r *LocationRegistry) ListFavorites() []models.SavedLocation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	favorites := make([]models.SavedLocation, 0)
	for _, entry := range r.entries {
		if entry.IsFavorite {
			favorites = append(favorites, entry)
		}
	}
	sortByRecency(favorites)
	return favorites
}

// ListAll returns a copy of the collection in the requested order.
// Distance sorting needs a reference point; without one it falls back to
// recency.
func (r *LocationRegistry) ListAll(sortBy string) []models.SavedLocation {
	r.mu.RLock()
	entries := make([]models.SavedLocation, len(r.entries))
	copy(entries, r.entries)
	reference := r.reference
	r.mu.RUnlock()

	switch sortBy {
	case SortDistance:
		if reference == nil {
			sortByRecency(entries)
			break
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return haversineKm(reference.Lat, reference.Lon, entries[i].Lat, entries[i].Lon) <
				haversineKm(reference.Lat, reference.Lon, entries[j].Lat, entries[j].Lon)
		})
	case SortFavoriteFirst:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].IsFavorite != entries[j].IsFavorite {
				return entries[i].IsFavorite
			}
			return updatedAt(entries[i]).After(updatedAt(entries[j]))
		})
	default: // SortRecency
		sortByRecency(entries)
	}
	return entries
}

// Count returns the number of saved entries.
func (r *LocationRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// indexOf must be called with the lock held.
func (r *LocationRegistry) indexOf(id string) int {
	for i, entry := range r.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// evictOverCap drops the oldest non-favorite entries until the collection
// fits the cap. The entry at index 0 is the one just inserted and is never
// the eviction candidate. Must be called with the lock held.
func (r *LocationRegistry) evictOverCap() {
	for len(r.entries) > maxSavedLocations {
		oldest := -1
		for i, entry := range r.entries {
			if i == 0 || entry.IsFavorite {
				continue
			}
			if oldest < 0 || updatedAt(entry).Before(updatedAt(r.entries[oldest])) {
				oldest = i
			}
		}
		if oldest < 0 {
			// Every entry is a favorite; favorites are never auto-evicted.
			return
		}
		r.entries = append(r.entries[:oldest], r.entries[oldest+1:]...)
	}
}

// persist serializes the full collection back to the store before
// returning, then emits the change notification other views react to.
func (r *LocationRegistry) persist(ctx context.Context, op string) error {
	r.mu.RLock()
	payload, err := json.Marshal(r.entries)
	count := len(r.entries)
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := r.store.SetItem(ctx, store.KeySavedLocations, string(payload)); err != nil {
		return err
	}

	r.metrics.IncrementCounter("registry_mutations_total", op)
	r.metrics.SetGauge("saved_locations", float64(count))
	r.notifier.LocationsChanged(ctx)
	return nil
}

func applySample(entry *models.SavedLocation, sample *models.WeatherSnapshot) {
	if sample == nil {
		return
	}
	temp := sample.TemperatureC
	entry.TemperatureC = &temp
	entry.ConditionDescription = sample.ConditionDescription
	entry.IconCode = sample.IconCode
}

func sortByRecency(entries []models.SavedLocation) {
	sort.SliceStable(entries, func(i, j int) bool {
		return updatedAt(entries[i]).After(updatedAt(entries[j]))
	})
}

func updatedAt(entry models.SavedLocation) time.Time {
	t, err := time.Parse(time.RFC3339, entry.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t
}

const earthRadiusKm = 6371

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
