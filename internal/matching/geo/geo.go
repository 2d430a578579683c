// internal/matching/geo/geo.go
// Package geo holds the pure geographic helpers used by matching: haversine
// distance, travel-radius ceilings, and radius filtering/sorting.
package geo

import (
	"math"
	"sort"
	"strings"
)

const earthRadiusKm = 6371.0

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceKm returns the great-circle distance between a and b in kilometres.
// ok is false when either point is missing; callers must treat that as an
// unknown distance, never as zero.
func DistanceKm(a, b *Coordinates) (km float64, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return haversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude), true
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ==========================
// Travel radius
// ==========================

// TravelDistance is the travel-radius category a caregiver declares.
type TravelDistance string

const (
	UpTo5Km    TravelDistance = "UP_TO_5KM"
	UpTo10Km   TravelDistance = "UP_TO_10KM"
	UpTo15Km   TravelDistance = "UP_TO_15KM"
	UpTo20Km   TravelDistance = "UP_TO_20KM"
	UpTo30Km   TravelDistance = "UP_TO_30KM"
	EntireCity TravelDistance = "ENTIRE_CITY"
)

var travelCeilingsKm = map[TravelDistance]float64{
	UpTo5Km:  5,
	UpTo10Km: 10,
	UpTo15Km: 15,
	UpTo20Km: 20,
	UpTo30Km: 30,
}

// ParseTravelDistance normalizes a stored category. Unrecognized values are
// reported with ok=false.
func ParseTravelDistance(s string) (TravelDistance, bool) {
	td := TravelDistance(strings.ToUpper(strings.TrimSpace(s)))
	if td == EntireCity {
		return td, true
	}
	_, ok := travelCeilingsKm[td]
	return td, ok
}

// MaxTravelDistanceToKm returns the kilometre ceiling for a category.
// hasCeiling is false for ENTIRE_CITY and for unknown categories, both of
// which mean "no ceiling".
func MaxTravelDistanceToKm(category TravelDistance) (km float64, hasCeiling bool) {
	km, hasCeiling = travelCeilingsKm[category]
	return km, hasCeiling
}

// ==========================
// Radius filtering and sorting
// ==========================

// IsWithinRadius reports whether b lies within radiusKm of a. Missing
// coordinates pass.
func IsWithinRadius(a, b *Coordinates, radiusKm float64) bool {
	km, ok := DistanceKm(a, b)
	if !ok {
		return true
	}
	return km <= radiusKm
}

// FilterByRadius keeps the items whose location is within radiusKm of origin.
// Items with an unknown location are kept.
func FilterByRadius[T any](items []T, origin *Coordinates, radiusKm float64, location func(T) *Coordinates) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if IsWithinRadius(origin, location(item), radiusKm) {
			out = append(out, item)
		}
	}
	return out
}

type withDistance[T any] struct {
	item  T
	km    float64
	known bool
}

// SortByDistance stably sorts items by ascending distance from origin.
// Items with an unknown distance go last, keeping their relative order.
func SortByDistance[T any](items []T, origin *Coordinates, location func(T) *Coordinates) {
	ranked := make([]withDistance[T], len(items))
	for i, item := range items {
		km, ok := DistanceKm(origin, location(item))
		ranked[i] = withDistance[T]{item: item, km: km, known: ok}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].known != ranked[j].known {
			return ranked[i].known
		}
		return ranked[i].known && ranked[i].km < ranked[j].km
	})

	for i := range ranked {
		items[i] = ranked[i].item
	}
}
