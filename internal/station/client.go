// Package station implements the metadata side of the pipeline: station
// search, dataset/datatype discovery and period-of-record lookups against
// the CDO API, reused by the GUI and by coverage probing.
//
// All reads are best-effort: transport failures are swallowed into empty
// results and logged rather than raised, so a flaky metadata upstream never
// breaks a download. "Could not determine" stays inspectable through the ok
// booleans on the range lookups.
package station

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/sony/gobreaker"

	"github.com/rossv/rainfalldownload/internal/cache"
	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// DefaultBaseURL is the root of the NOAA CDO v2 API.
const DefaultBaseURL = "https://www.ncdc.noaa.gov/cdo-web/api/v2"

const metadataTTL = 24 * time.Hour

// Station describes one observation station.
type Station struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	MinDate      string   `json:"mindate"`
	MaxDate      string   `json:"maxdate"`
	DataCoverage *float64 `json:"datacoverage"`
}

// Dataset describes one dataset available for a station.
type Dataset struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	MinDate string `json:"mindate"`
	MaxDate string `json:"maxdate"`
}

// Datatype describes one datatype scoped to a (station, dataset) pair.
type Datatype struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	MinDate string `json:"mindate"`
	MaxDate string `json:"maxdate"`
}

// Client performs metadata queries against the CDO API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string

	geocoder Geocoder
	fallback rainfall.FallbackProvider
	store    cache.Store

	circuit *gobreaker.CircuitBreaker
	log     *log.Entry
}

// NewClient creates a metadata client. The circuit breaker sheds load from
// a dead upstream during batch use; there are no retries anywhere.
func NewClient(client *http.Client, token string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cdo-metadata",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		token:      token,
		httpClient: client,
		baseURL:    DefaultBaseURL,
		geocoder:   NewNominatim(client),
		circuit:    cb,
		log:        log.WithField("component", "station"),
	}
}

// SetBaseURL overrides the API root (for testing against mock servers).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetGeocoder replaces the default Nominatim geocoder.
func (c *Client) SetGeocoder(g Geocoder) {
	c.geocoder = g
}

// SetFallback wires the access service used by coverage probes.
func (c *Client) SetFallback(fb rainfall.FallbackProvider) {
	c.fallback = fb
}

// SetCache injects the TTL store for metadata lookups.
func (c *Client) SetCache(store cache.Store) {
	c.store = store
}

// SearchStations returns stations whose id or name contains query,
// case-insensitively. The filter is applied client-side after fetching up
// to 1000 candidates.
func (c *Client) SearchStations(ctx context.Context, query string) []Station {
	params := url.Values{}
	params.Set("datasetid", "GHCND")
	params.Set("datatypeid", "PRCP")
	params.Set("limit", "1000")
	params.Set("q", query)

	var payload struct {
		Results []Station `json:"results"`
	}
	if err := c.get(ctx, "/stations", params, &payload); err != nil {
		c.log.WithError(err).Warn("station search failed")
		return nil
	}

	needle := strings.ToLower(query)
	var matched []Station
	for _, st := range payload.Results {
		if strings.Contains(strings.ToLower(st.Name), needle) ||
			strings.Contains(strings.ToLower(st.ID), needle) {
			st.MinDate = rainfall.NormalizeISODate(st.MinDate)
			st.MaxDate = rainfall.NormalizeISODate(st.MaxDate)
			matched = append(matched, st)
		}
	}
	return matched
}

// FindStationsByCity locates stations near a city with a bounding-box
// search: the city is geocoded, then stations are queried within a
// lat/lon extent. At most limit entries are returned.
func (c *Client) FindStationsByCity(ctx context.Context, city string, buffer float64, limit int) []Station {
	cacheKey := cache.Key("station_search", strings.ToLower(strings.TrimSpace(city)), buffer, limit)
	var cached []Station
	if cache.GetJSON(c.store, cacheKey, &cached) {
		return cached
	}

	lat, lon, err := c.geocoder.Geocode(ctx, city)
	if err != nil {
		c.log.WithError(err).WithField("city", city).Warn("geocoding failed")
		return nil
	}
	c.log.WithFields(log.Fields{"city": city, "lat": lat, "lon": lon}).Debug("geocoded city")

	// The CDO API expects the extent in minLon,minLat,maxLon,maxLat order
	// (longitude first). An earlier revision swapped the middle pair and
	// produced unpredictable server-side filtering; see the regression
	// test before touching this.
	extent := fmt.Sprintf("%g,%g,%g,%g", lon-buffer, lat-buffer, lon+buffer, lat+buffer)

	params := url.Values{}
	params.Set("datasetid", "GHCND")
	params.Set("datatypeid", "PRCP")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("extent", extent)

	var payload struct {
		Results []Station `json:"results"`
	}
	if err := c.get(ctx, "/stations", params, &payload); err != nil {
		c.log.WithError(err).WithField("city", city).Warn("station extent query failed")
		return nil
	}

	stations := payload.Results
	for i := range stations {
		stations[i].MinDate = rainfall.NormalizeISODate(stations[i].MinDate)
		stations[i].MaxDate = rainfall.NormalizeISODate(stations[i].MaxDate)
	}
	cache.SetJSON(c.store, cacheKey, stations, metadataTTL)
	return stations
}

// AvailableDatasets returns dataset metadata for a station.
func (c *Client) AvailableDatasets(ctx context.Context, station string) []Dataset {
	cacheKey := cache.Key("datasets", station)
	var cached []Dataset
	if cache.GetJSON(c.store, cacheKey, &cached) {
		return cached
	}

	params := url.Values{}
	params.Set("stationid", station)
	params.Set("limit", "1000")

	var payload struct {
		Results []Dataset `json:"results"`
	}
	if err := c.get(ctx, "/datasets", params, &payload); err != nil {
		c.log.WithError(err).WithField("station", station).Warn("dataset lookup failed")
		return nil
	}

	datasets := payload.Results
	for i := range datasets {
		datasets[i].MinDate = rainfall.NormalizeISODate(datasets[i].MinDate)
		datasets[i].MaxDate = rainfall.NormalizeISODate(datasets[i].MaxDate)
	}
	cache.SetJSON(c.store, cacheKey, datasets, metadataTTL)
	return datasets
}

// AvailableDatatypes returns the datatypes recorded for a station within a
// dataset.
func (c *Client) AvailableDatatypes(ctx context.Context, station, dataset string) []Datatype {
	stationID := rainfall.QualifyStation(station, dataset)
	cacheKey := cache.Key("datatypes", stationID, dataset)
	var cached []Datatype
	if cache.GetJSON(c.store, cacheKey, &cached) {
		return cached
	}

	params := url.Values{}
	params.Set("stationid", stationID)
	params.Set("datasetid", dataset)
	params.Set("limit", "1000")

	var payload struct {
		Results []Datatype `json:"results"`
	}
	if err := c.get(ctx, "/datatypes", params, &payload); err != nil {
		c.log.WithError(err).WithField("station", stationID).Warn("datatype lookup failed")
		return nil
	}

	cache.SetJSON(c.store, cacheKey, payload.Results, metadataTTL)
	return payload.Results
}

// AvailableDatatypesWithExtents enriches datatype metadata with dataset
// level date ranges, normalized uniformly.
func (c *Client) AvailableDatatypesWithExtents(ctx context.Context, station, dataset, datasetMin, datasetMax string) []Datatype {
	datatypes := c.AvailableDatatypes(ctx, station, dataset)
	minDate := rainfall.NormalizeISODate(datasetMin)
	maxDate := rainfall.NormalizeISODate(datasetMax)

	enriched := make([]Datatype, len(datatypes))
	for i, dt := range datatypes {
		enriched[i] = Datatype{ID: dt.ID, Name: dt.Name, MinDate: minDate, MaxDate: maxDate}
	}
	return enriched
}

// StationDateRange determines the true period of record by probing the data
// endpoint for the earliest and latest single observations. Empty strings
// mark directions that could not be determined; ok reports whether at least
// one bound was found.
func (c *Client) StationDateRange(ctx context.Context, station, dataset, datatype, start, end string) (string, string, bool) {
	stationID := rainfall.QualifyStation(station, dataset)

	probe := func(order string) string {
		params := url.Values{}
		params.Set("datasetid", dataset)
		params.Set("stationid", stationID)
		params.Set("limit", "1")
		params.Set("sortfield", "date")
		params.Set("sortorder", order)
		if datatype != "" {
			params.Set("datatypeid", datatype)
		}
		if start != "" {
			params.Set("startdate", start)
		}
		if end != "" {
			params.Set("enddate", end)
		}

		var payload struct {
			Results []struct {
				Date string `json:"date"`
			} `json:"results"`
		}
		if err := c.get(ctx, "/data", params, &payload); err != nil {
			c.log.WithError(err).Debug("date range probe failed")
			return ""
		}
		if len(payload.Results) == 0 {
			return ""
		}
		return rainfall.NormalizeISODate(payload.Results[0].Date)
	}

	earliest := probe("asc")
	latest := probe("desc")
	return earliest, latest, earliest != "" || latest != ""
}

// StationPeriodOfRecord returns the dataset-specific mindate/maxdate from
// the stations endpoint. Cheaper than StationDateRange since it never scans
// observations.
func (c *Client) StationPeriodOfRecord(ctx context.Context, station, dataset string) (string, string, bool) {
	params := url.Values{}
	params.Set("datasetid", dataset)
	params.Set("stationid", rainfall.QualifyStation(station, dataset))
	params.Set("limit", "1")

	var payload struct {
		Results []struct {
			MinDate string `json:"mindate"`
			MaxDate string `json:"maxdate"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/stations", params, &payload); err != nil {
		c.log.WithError(err).Warn("period of record lookup failed")
		return "", "", false
	}
	if len(payload.Results) == 0 {
		return "", "", false
	}

	rec := payload.Results[0]
	return rainfall.NormalizeISODate(rec.MinDate), rainfall.NormalizeISODate(rec.MaxDate), true
}

// HasDataInRange probes for any observation in the window. An empty primary
// result is re-checked against the access service before concluding false.
// Transport errors never raise; they yield false.
func (c *Client) HasDataInRange(ctx context.Context, station, dataset, datatype, start, end string) bool {
	params := url.Values{}
	params.Set("datasetid", dataset)
	params.Set("datatypeid", datatype)
	params.Set("stationid", rainfall.QualifyStation(station, dataset))
	params.Set("startdate", start)
	params.Set("enddate", end)
	params.Set("limit", "1")

	var payload struct {
		Results []rainfall.Record `json:"results"`
	}
	if err := c.get(ctx, "/data", params, &payload); err != nil {
		c.log.WithError(err).Debug("coverage probe failed")
		return false
	}
	if len(payload.Results) > 0 {
		return true
	}

	if c.fallback == nil {
		return false
	}
	series, err := c.fallback.Fetch(ctx, rainfall.FallbackRequest{
		Station:  station,
		Start:    start,
		End:      end,
		Datatype: datatype,
		Units:    rainfall.UnitsInches, // irrelevant for a yes/no check
	})
	if err != nil {
		return false
	}
	return !series.Empty()
}

// ClampDateRange clamps a requested range to the dataset's coverage.
// changed reports whether either bound moved; a non-empty message means the
// requested range does not intersect the coverage at all.
func (c *Client) ClampDateRange(ctx context.Context, station, dataset, start, end string) (string, string, bool, string) {
	const noDataMsg = "No rainfall data is available for the selected date range."

	startDate, errStart := time.Parse("2006-01-02", rainfall.NormalizeISODate(start))
	endDate, errEnd := time.Parse("2006-01-02", rainfall.NormalizeISODate(end))
	if errStart == nil && errEnd == nil && startDate.After(endDate) {
		return start, end, false, noDataMsg
	}

	datasets := c.AvailableDatasets(ctx, rainfall.QualifyStation(station, dataset))
	var info *Dataset
	for i := range datasets {
		if datasets[i].ID == dataset {
			info = &datasets[i]
			break
		}
	}
	if info == nil {
		return start, end, false, ""
	}

	dsMin, errMin := time.Parse("2006-01-02", info.MinDate)
	dsMax, errMax := time.Parse("2006-01-02", info.MaxDate)

	changed := false
	if errStart == nil && errMin == nil && startDate.Before(dsMin) {
		startDate = dsMin
		changed = true
	}
	if errEnd == nil && errMax == nil && endDate.After(dsMax) {
		endDate = dsMax
		changed = true
	}

	if errStart == nil && errEnd == nil && startDate.After(endDate) {
		if errMin == nil && errMax == nil {
			return start, end, false, fmt.Sprintf(
				"No rainfall data is available for the selected date range. Available coverage is %s to %s.",
				info.MinDate, info.MaxDate,
			)
		}
		return start, end, false, noDataMsg
	}

	newStart, newEnd := start, end
	if errStart == nil {
		newStart = startDate.Format("2006-01-02")
	}
	if errEnd == nil {
		newEnd = endDate.Format("2006-01-02")
	}
	return newStart, newEnd, changed, ""
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("token", c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, rainfall.NewHTTPError(resp)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	return json.Unmarshal(body, out)
}
