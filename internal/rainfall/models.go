// Package rainfall implements the core retrieval pipeline: date chunking,
// response normalization and the orchestrating fetcher that reconciles the
// legacy CDO API with the NCEI Access Data Service fallback.
package rainfall

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Point is a single observation in a canonical series. Timestamps are UTC
// with no timezone offset retained; missing values are NaN.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Missing reports whether the point carries no usable value.
func (p Point) Missing() bool {
	return math.IsNaN(p.Value)
}

// Series is an ordered sequence of points, ascending by timestamp. A series
// is constructed fresh per fetch call and owned solely by the caller.
type Series []Point

// Sort orders the series ascending by timestamp in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Empty reports whether the series holds no points.
func (s Series) Empty() bool {
	return len(s) == 0
}

// Record is one raw upstream record. Both the CDO and ADS services return
// loosely shaped JSON objects (or CSV rows), so records are kept as maps
// until normalization.
type Record map[string]any

// Units accepted by the fetcher. The upstream services perform the actual
// conversion; the pipeline only maps these onto the wire-level
// metric/standard parameter.
const (
	UnitsMillimetres = "mm"
	UnitsInches      = "in"
)

// WireUnits maps the caller-facing units onto the value the NOAA services
// expect in their units query parameter.
func WireUnits(units string) string {
	if units == UnitsMillimetres {
		return "metric"
	}
	return "standard"
}

// Request describes one fetch invocation.
type Request struct {
	Station  string `validate:"required"`
	Start    string `validate:"required"`
	End      string `validate:"required"`
	Dataset  string
	Datatype string
	Units    string `validate:"omitempty,oneof=mm in"`

	// ChunkDays splits CDO requests into segments no longer than this many
	// days. Zero disables chunking.
	ChunkDays int `validate:"gte=0"`
}

// QualifyStation returns the dataset-qualified station identifier expected
// by the CDO API. Identifiers that already carry a dataset prefix are
// returned unchanged.
func QualifyStation(station, dataset string) string {
	if strings.Contains(station, ":") {
		return station
	}
	return dataset + ":" + station
}

// RawStation strips any dataset prefix from a station identifier. The ADS
// expects raw identifiers (e.g. "US1PAAL0001", not "GHCND:US1PAAL0001").
func RawStation(station string) string {
	if _, raw, ok := strings.Cut(station, ":"); ok {
		return raw
	}
	return station
}
