// Command rainfalldownload fetches precipitation data for a station and
// date range from the NOAA CDO API (with transparent fallback to the NCEI
// Access Data Service) or from a generic rainfall endpoint, and writes the
// result as CSV, TSF or a SWMM timeseries block.
//
// Exit codes: 1 for failures, 2 when no data exists in the requested range.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"github.com/rossv/rainfalldownload/internal/cache"
	"github.com/rossv/rainfalldownload/internal/config"
	"github.com/rossv/rainfalldownload/internal/rainfall"
	"github.com/rossv/rainfalldownload/internal/rainfall/providers"
	"github.com/rossv/rainfalldownload/internal/station"
	"github.com/rossv/rainfalldownload/internal/writer"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		stationID = flag.String("station", "", "station identifier (with or without dataset prefix)")
		start     = flag.String("start", "", "inclusive start date (YYYY-MM-DD)")
		end       = flag.String("end", "", "inclusive end date (YYYY-MM-DD)")
		token     = flag.String("token", "", "NOAA API token (defaults to NOAA_TOKEN)")
		output    = flag.String("output", "", "output file path")
		format    = flag.String("format", "csv", "output format: csv, tsf or swmm")
		units     = flag.String("units", "", "rainfall units: mm or in")
		chunkDays = flag.Int("chunk-days", 0, "split CDO requests into N-day segments (0 disables)")
		source    = flag.String("source", "noaa", "data source: noaa or a custom base URL")
		dataset   = flag.String("dataset", "GHCND", "NOAA dataset identifier")
		datatype  = flag.String("datatype", "PRCP", "NOAA datatype identifier")
		verbose   = flag.Bool("v", false, "enable debug logging")
		quiet     = flag.Bool("q", false, "suppress non-error output")
	)
	flag.Parse()

	log.SetHandler(cli.New(os.Stderr))
	switch {
	case *verbose:
		log.SetLevel(log.DebugLevel)
	case *quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return 1
	}
	if *token == "" {
		*token = cfg.Token
	}
	if *units == "" {
		*units = cfg.Units
	}
	if *chunkDays == 0 {
		*chunkDays = cfg.ChunkDays
	}

	if *stationID == "" || *start == "" || *end == "" || *output == "" {
		log.Error("station, start, end and output are required")
		flag.Usage()
		return 1
	}
	if *format != "csv" && *format != "tsf" && *format != "swmm" {
		log.Errorf("unknown output format %q", *format)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	req := rainfall.Request{
		Station:   *stationID,
		Start:     *start,
		End:       *end,
		Units:     *units,
		ChunkDays: *chunkDays,
	}

	fetcher := &rainfall.Fetcher{}
	if strings.EqualFold(*source, "noaa") {
		req.Dataset = *dataset
		req.Datatype = *datatype

		cdo := providers.NewCDOClient(httpClient, *token)
		if cfg.CDODataURL != "" {
			cdo.SetBaseURL(cfg.CDODataURL)
		}
		ads := providers.NewADSClient(httpClient)
		if cfg.ADSURL != "" {
			ads.SetBaseURL(cfg.ADSURL)
		}
		fetcher.Primary = cdo
		fetcher.Fallback = ads

		meta := newMetadataClient(httpClient, *token, cfg, ads)
		adjStart, adjEnd, changed, message := meta.ClampDateRange(ctx, *stationID, *dataset, *start, *end)
		if message != "" {
			log.Error(message)
			return 2
		}
		if changed {
			log.Infof("Adjusted date range to %s → %s based on dataset availability.", adjStart, adjEnd)
			req.Start, req.End = adjStart, adjEnd
		}
	} else {
		fetcher.Generic = providers.NewGenericClient(httpClient, *source, *token)
	}

	series, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return reportFetchError(err)
	}

	outPath := *output
	if filepath.Ext(outPath) == "" {
		outPath += "." + *format
	}
	if err := writeOutput(outPath, *format, *stationID, series); err != nil {
		log.Errorf("unable to write output file %s: %v", outPath, err)
		return 1
	}

	log.Infof("Saved %d rows to %s", len(series), outPath)
	return 0
}

func newMetadataClient(httpClient *http.Client, token string, cfg *config.AppConfig, ads rainfall.FallbackProvider) *station.Client {
	meta := station.NewClient(httpClient, token)
	if cfg.CDOMetadataURL != "" {
		meta.SetBaseURL(cfg.CDOMetadataURL)
	}
	meta.SetFallback(ads)
	if cfg.GeocoderAPIKey != "" {
		meta.SetGeocoder(station.NewGoogle(cfg.GeocoderAPIKey))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err == nil {
		if store, err := cache.OpenBolt(cfg.CachePath); err == nil {
			meta.SetCache(store)
		} else {
			log.Debugf("metadata cache unavailable: %v", err)
		}
	}
	return meta
}

func reportFetchError(err error) int {
	var (
		validationErr *rainfall.ValidationError
		schemaErr     *rainfall.SchemaError
		httpErr       *rainfall.HTTPError
	)
	switch {
	case errors.Is(err, rainfall.ErrNoData):
		log.Error("No rainfall data was returned for the requested station and date range.")
		return 2
	case errors.As(err, &httpErr):
		log.Error(httpErr.Error())
	case errors.As(err, &validationErr), errors.As(err, &schemaErr):
		log.Errorf("Failed to fetch rainfall data: %v", err)
	case errors.Is(err, context.DeadlineExceeded):
		log.Error("The request to the rainfall service timed out. Please try again later.")
	default:
		log.Errorf("Network error while fetching rainfall data: %v", err)
	}
	return 1
}

func writeOutput(path, format, stationID string, series rainfall.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "csv":
		err = writer.WriteCSV(f, series)
	case "tsf":
		err = writer.WriteTSF(f, stationID, series)
	case "swmm":
		err = writer.WriteSWMM(f, series)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
