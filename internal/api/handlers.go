package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/valpere/skycast/internal/services"
	"github.com/valpere/skycast/pkg/derive"
	"github.com/valpere/skycast/pkg/weather"
)

// parsePlaceQuery builds the provider query from ?lat=&lon= or ?q=.
func parsePlaceQuery(c *gin.Context) (weather.Query, bool) {
	latParam, lonParam := c.Query("lat"), c.Query("lon")
	if latParam != "" && lonParam != "" {
		lat, latErr := strconv.ParseFloat(latParam, 64)
		lon, lonErr := strconv.ParseFloat(lonParam, 64)
		if latErr != nil || lonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be numbers"})
			return weather.Query{}, false
		}
		return weather.ByCoords(lat, lon), true
	}

	if name := c.Query("q"); name != "" {
		return weather.ByName(name), true
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "query requires q= or lat=&lon="})
	return weather.Query{}, false
}

// respondWeatherError maps the provider error taxonomy onto status codes:
// unknown place 404, bad credentials 503, anything transient 502. On a
// miss for a named search the closest recent search is offered back.
func (s *Server) respondWeatherError(c *gin.Context, query weather.Query, err error) {
	var notFound *weather.NotFoundError
	var auth *weather.AuthError

	switch {
	case errors.As(err, &notFound):
		s.metrics.IncrementCounter("api_errors_total", "not_found")
		body := gin.H{"error": services.UserMessage(err)}
		if suggestion, ok := s.services.History.Suggest(query.Name); ok {
			body["did_you_mean"] = suggestion
		}
		c.JSON(http.StatusNotFound, body)
	case errors.As(err, &auth):
		s.metrics.IncrementCounter("api_errors_total", "auth")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.UserMessage(err)})
	default:
		s.metrics.IncrementCounter("api_errors_total", "transient")
		c.JSON(http.StatusBadGateway, gin.H{"error": services.UserMessage(err)})
	}
}

func (s *Server) currentWeatherHandler(c *gin.Context) {
	query, ok := parsePlaceQuery(c)
	if !ok {
		return
	}

	enhanced, err := s.services.Weather.GetEnhanced(c.Request.Context(), query)
	if err != nil {
		s.respondWeatherError(c, query, err)
		return
	}

	if !query.HasCoords() {
		s.services.History.Record(c.Request.Context(), query.Name)
	}

	// Persist the searched place; a geocode miss inside is logged, never
	// blocks the lookup that got us here.
	var coords *services.Coordinates
	if query.HasCoords() {
		coords = &services.Coordinates{Lat: query.Lat, Lon: query.Lon}
	}
	if err := s.services.Locations.UpsertFromSearch(
		c.Request.Context(), enhanced.LocationName, enhanced.CountryCode, coords, &enhanced.WeatherSnapshot,
	); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist searched location")
	}

	c.JSON(http.StatusOK, enhanced)
}

func (s *Server) forecastHandler(c *gin.Context) {
	query, ok := parsePlaceQuery(c)
	if !ok {
		return
	}

	// Never fails: provider faults degrade to a synthesized bundle.
	c.JSON(http.StatusOK, s.services.Weather.GetForecast(c.Request.Context(), query))
}

func (s *Server) activitiesHandler(c *gin.Context) {
	query, ok := parsePlaceQuery(c)
	if !ok {
		return
	}

	enhanced, err := s.services.Weather.GetEnhanced(c.Request.Context(), query)
	if err != nil {
		s.respondWeatherError(c, query, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location":   enhanced.LocationName,
		"activities": derive.Suggestions(enhanced),
	})
}

func (s *Server) listLocationsHandler(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", services.SortFavoriteFirst)
	switch sortBy {
	case services.SortRecency, services.SortDistance, services.SortFavoriteFirst:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be recency, distance or favoriteFirst"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": s.services.Locations.ListAll(sortBy)})
}

func (s *Server) listFavoritesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": s.services.Locations.ListFavorites()})
}

type saveLocationRequest struct {
	Name    string   `json:"name" binding:"required"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (s *Server) saveLocationHandler(c *gin.Context) {
	var req saveLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	var coords *services.Coordinates
	if req.Lat != nil && req.Lon != nil {
		coords = &services.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
	}

	if err := s.services.Locations.UpsertFromSearch(c.Request.Context(), req.Name, req.Country, coords, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save location"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"locations": s.services.Locations.ListAll(services.SortFavoriteFirst)})
}

func (s *Server) toggleFavoriteHandler(c *gin.Context) {
	if err := s.services.Locations.ToggleFavorite(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update location"})
		return
	}
	c.Status(http.StatusNoContent)
}

type renameLocationRequest struct {
	Name string `json:"name"`
}

func (s *Server) renameLocationHandler(c *gin.Context) {
	var req renameLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rename payload"})
		return
	}

	if err := s.services.Locations.Rename(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename location"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) removeLocationHandler(c *gin.Context) {
	if err := s.services.Locations.Remove(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove location"})
		return
	}
	c.Status(http.StatusNoContent)
}
