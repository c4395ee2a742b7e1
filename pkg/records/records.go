// Package records defines the raw input tuples of the warehouse and the
// parsing/normalization rules that turn them into typed records. It is
// pure: readers in internal/iosource produce raw tuples, this package
// validates them, and internal/ioload persists the result.
package records

import (
	"database/sql"
	"time"

	"github.com/nycsafety/colldb/pkg/derive"
)

// SlotCount is the number of ordered contributing-factor and
// vehicle-type slots a collision carries. Slot order is externally
// meaningful; absence of slot N does not imply absence of slot N+1.
const SlotCount = 5

// UnknownBorough absorbs blank or unrecognized borough values.
const UnknownBorough = "UNKNOWN"

// UnknownVehicleType is the designated code blank vehicle-type slots
// map to when the slot position is occupied in the source but carries
// no usable code. Fully empty slots stay empty.
const UnknownVehicleType = "UNKNOWN"

// Centroid is a borough center point.
type Centroid struct {
	Lat float64
	Lon float64
}

// Boroughs is the NYC borough whitelist with center coordinates,
// loaded once as static reference data.
var Boroughs = map[string]Centroid{
	"MANHATTAN":     {Lat: 40.7834, Lon: -73.9663},
	"BROOKLYN":      {Lat: 40.6501, Lon: -73.9496},
	"QUEENS":        {Lat: 40.6815, Lon: -73.8365},
	"BRONX":         {Lat: 40.8499, Lon: -73.8664},
	"STATEN ISLAND": {Lat: 40.5623, Lon: -74.1399},
}

// RawCollision is one collision tuple exactly as it arrives from the
// source extract, all fields verbatim strings.
type RawCollision struct {
	CollisionID     string
	CrashDate       string
	CrashTime       string
	Borough         string
	ZipCode         string
	Latitude        string
	Longitude       string
	OnStreetName    string
	OffStreetName   string
	CrossStreetName string

	// Source-supplied totals; the loader recomputes them from the
	// per-class subtotals and only warns on mismatch.
	PersonsInjured string
	PersonsKilled  string

	PedestriansInjured string
	PedestriansKilled  string
	CyclistsInjured    string
	CyclistsKilled     string
	MotoristsInjured   string
	MotoristsKilled    string

	ContributingFactors [SlotCount]string
	VehicleTypes        [SlotCount]string

	NumberOfVehicles string
}

// Collision is a validated collision record ready for loading.
type Collision struct {
	ID        int64
	CrashedAt time.Time // NYC-local wall time

	Borough         string
	ZipCode         string
	Latitude        sql.NullFloat64
	Longitude       sql.NullFloat64
	OnStreetName    string
	OffStreetName   string
	CrossStreetName string

	// SuppliedInjured/SuppliedKilled are the source totals, -1 when the
	// source omitted them.
	SuppliedInjured int
	SuppliedKilled  int

	PedestriansInjured int
	PedestriansKilled  int
	CyclistsInjured    int
	CyclistsKilled     int
	MotoristsInjured   int
	MotoristsKilled    int

	ContributingFactors [SlotCount]string
	VehicleTypes        [SlotCount]string

	NumberOfVehicles int
}

// RawWeather is one hourly weather tuple as it arrives from the source.
type RawWeather struct {
	TimestampUTC  string
	Borough       string
	Temperature2M string
	Precipitation string
	Visibility    string
	Rain          string
	Showers       string
	Snowfall      string
	WindSpeed10M  string
}

// Weather is a validated weather record ready for loading.
type Weather struct {
	ObservedAt   time.Time // UTC
	Borough      string
	Measurements derive.Measurements
}
