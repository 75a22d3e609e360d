package weather

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query identifies a place either by free-text name or by coordinates,
// mirroring the provider's q= / lat=&lon= duality.
type Query struct {
	Name      string
	Lat, Lon  float64
	hasCoords bool
}

// ByName builds a free-text place query.
func ByName(name string) Query {
	return Query{Name: name}
}

// ByCoords builds a coordinate query.
func ByCoords(lat, lon float64) Query {
	return Query{Lat: lat, Lon: lon, hasCoords: true}
}

func (q Query) HasCoords() bool { return q.hasCoords }

// Values returns the provider query parameters for this place.
func (q Query) Values() url.Values {
	values := url.Values{}
	if q.hasCoords {
		values.Set("lat", strconv.FormatFloat(q.Lat, 'f', 6, 64))
		values.Set("lon", strconv.FormatFloat(q.Lon, 'f', 6, 64))
	} else {
		values.Set("q", q.Name)
	}
	return values
}

// Key returns a stable cache key fragment for this place.
func (q Query) Key() string {
	if q.hasCoords {
		return fmt.Sprintf("ll:%.4f:%.4f", q.Lat, q.Lon)
	}
	return "q:" + q.Name
}

func (q Query) String() string {
	if q.hasCoords {
		return fmt.Sprintf("(%.4f, %.4f)", q.Lat, q.Lon)
	}
	return q.Name
}
