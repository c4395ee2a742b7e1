// Package iosource implements the CollisionSource and WeatherSource
// contracts over file-based extracts. Readers stream raw tuples without
// validating them; parsing and normalization happen in pkg/records.
package iosource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/nycsafety/colldb/pkg/records"
)

// collision extract column names, Socrata snake_case.
var collisionColumns = struct {
	id, date, tm, borough, zip, lat, lon          string
	onStreet, offStreet, crossStreet              string
	personsInjured, personsKilled                 string
	pedInjured, pedKilled                         string
	cycInjured, cycKilled                         string
	motInjured, motKilled                         string
	factorPrefix, vehiclePrefix, numberOfVehicles string
}{
	id:               "collision_id",
	date:             "crash_date",
	tm:               "crash_time",
	borough:          "borough",
	zip:              "zip_code",
	lat:              "latitude",
	lon:              "longitude",
	onStreet:         "on_street_name",
	offStreet:        "off_street_name",
	crossStreet:      "cross_street_name",
	personsInjured:   "number_of_persons_injured",
	personsKilled:    "number_of_persons_killed",
	pedInjured:       "number_of_pedestrians_injured",
	pedKilled:        "number_of_pedestrians_killed",
	cycInjured:       "number_of_cyclist_injured",
	cycKilled:        "number_of_cyclist_killed",
	motInjured:       "number_of_motorist_injured",
	motKilled:        "number_of_motorist_killed",
	factorPrefix:     "contributing_factor_vehicle_",
	vehiclePrefix:    "vehicle_type_code_",
	numberOfVehicles: "number_of_vehicles",
}

// header maps lower-cased column names to positions, tolerating
// extracts whose column order differs between downloads.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, nil
}

func (h header) get(row []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// CollisionCSV streams raw collision tuples from a CSV extract.
type CollisionCSV struct {
	file   *os.File
	reader *csv.Reader
	header header
}

// NewCollisionCSV opens a collision extract and reads its header row.
func NewCollisionCSV(path string) (*CollisionCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collision extract: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, ok := h[collisionColumns.id]; !ok {
		f.Close()
		return nil, fmt.Errorf("collision extract %s has no %s column", path, collisionColumns.id)
	}

	return &CollisionCSV{file: f, reader: r, header: h}, nil
}

// Stream sends every raw tuple to ch. The channel stays open; the
// caller owns it.
func (c *CollisionCSV) Stream(ctx context.Context, ch chan<- records.RawCollision) error {
	for {
		row, err := c.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read collision row: %w", err)
		}

		raw := records.RawCollision{
			CollisionID:        c.header.get(row, collisionColumns.id),
			CrashDate:          c.header.get(row, collisionColumns.date),
			CrashTime:          c.header.get(row, collisionColumns.tm),
			Borough:            c.header.get(row, collisionColumns.borough),
			ZipCode:            c.header.get(row, collisionColumns.zip),
			Latitude:           c.header.get(row, collisionColumns.lat),
			Longitude:          c.header.get(row, collisionColumns.lon),
			OnStreetName:       c.header.get(row, collisionColumns.onStreet),
			OffStreetName:      c.header.get(row, collisionColumns.offStreet),
			CrossStreetName:    c.header.get(row, collisionColumns.crossStreet),
			PersonsInjured:     c.header.get(row, collisionColumns.personsInjured),
			PersonsKilled:      c.header.get(row, collisionColumns.personsKilled),
			PedestriansInjured: c.header.get(row, collisionColumns.pedInjured),
			PedestriansKilled:  c.header.get(row, collisionColumns.pedKilled),
			CyclistsInjured:    c.header.get(row, collisionColumns.cycInjured),
			CyclistsKilled:     c.header.get(row, collisionColumns.cycKilled),
			MotoristsInjured:   c.header.get(row, collisionColumns.motInjured),
			MotoristsKilled:    c.header.get(row, collisionColumns.motKilled),
			NumberOfVehicles:   c.header.get(row, collisionColumns.numberOfVehicles),
		}
		for i := 0; i < records.SlotCount; i++ {
			raw.ContributingFactors[i] = c.header.get(row, fmt.Sprintf("%s%d", collisionColumns.factorPrefix, i+1))
			raw.VehicleTypes[i] = c.header.get(row, fmt.Sprintf("%s%d", collisionColumns.vehiclePrefix, i+1))
		}

		select {
		case ch <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the underlying file.
func (c *CollisionCSV) Close() error {
	return c.file.Close()
}

// WeatherCSV streams raw hourly weather tuples from a CSV extract.
type WeatherCSV struct {
	file   *os.File
	reader *csv.Reader
	header header
}

// NewWeatherCSV opens a weather extract and reads its header row.
func NewWeatherCSV(path string) (*WeatherCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weather extract: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, ok := h["timestamp"]; !ok {
		f.Close()
		return nil, fmt.Errorf("weather extract %s has no timestamp column", path)
	}

	return &WeatherCSV{file: f, reader: r, header: h}, nil
}

// Stream sends every raw tuple to ch. The channel stays open; the
// caller owns it.
func (w *WeatherCSV) Stream(ctx context.Context, ch chan<- records.RawWeather) error {
	for {
		row, err := w.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read weather row: %w", err)
		}

		raw := records.RawWeather{
			TimestampUTC:  w.header.get(row, "timestamp"),
			Borough:       w.header.get(row, "borough"),
			Temperature2M: w.header.get(row, "temperature_2m"),
			Precipitation: w.header.get(row, "precipitation"),
			Visibility:    w.header.get(row, "visibility"),
			Rain:          w.header.get(row, "rain"),
			Showers:       w.header.get(row, "showers"),
			Snowfall:      w.header.get(row, "snowfall"),
			WindSpeed10M:  w.header.get(row, "wind_speed_10m"),
		}

		select {
		case ch <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the underlying file.
func (w *WeatherCSV) Close() error {
	return w.file.Close()
}

var (
	_ lifecycle.CollisionSource = (*CollisionCSV)(nil)
	_ lifecycle.WeatherSource   = (*WeatherCSV)(nil)
)
