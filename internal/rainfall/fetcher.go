package rainfall

import (
	"context"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SegmentRequest describes one primary-API data query over a bounded date
// range.
type SegmentRequest struct {
	Station  string
	Dataset  string
	Datatype string
	Start    string
	End      string
	Units    string
}

// FallbackRequest describes one query against the token-free access
// service.
type FallbackRequest struct {
	Station  string
	Start    string
	End      string
	Datatype string
	Units    string
}

// PrimaryProvider abstracts the legacy paginated climate-data API.
type PrimaryProvider interface {
	FetchSegment(ctx context.Context, req SegmentRequest) (Series, error)
}

// FallbackProvider abstracts the access service tried when the primary API
// has no coverage.
type FallbackProvider interface {
	Fetch(ctx context.Context, req FallbackRequest) (Series, error)
}

// GenericProvider abstracts a simple non-NOAA rainfall service.
type GenericProvider interface {
	Fetch(ctx context.Context, station, start, end string) (Series, error)
}

// Fetcher orchestrates a rainfall download: it chunks the date range,
// fetches each segment from the primary provider, falls back to the access
// service when the combined result is empty, and returns one sorted
// canonical series. When no primary provider is configured the generic
// provider serves the whole range in a single request.
//
// A Fetcher holds no mutable state and is safe for concurrent use; each
// call produces a fresh series owned by the caller.
type Fetcher struct {
	Primary  PrimaryProvider
	Fallback FallbackProvider
	Generic  GenericProvider
}

// Fetch retrieves rainfall for the requested station and range. It fails
// with *ValidationError, *HTTPError, *SchemaError or ErrNoData.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Series, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	if f.Primary != nil {
		return f.fetchPrimary(ctx, req)
	}
	if f.Generic != nil {
		series, err := f.Generic.Fetch(ctx, req.Station, req.Start, req.End)
		if err != nil {
			return nil, err
		}
		series.Sort()
		return series, nil
	}
	return nil, &ValidationError{Msg: "no rainfall source configured"}
}

func (f *Fetcher) fetchPrimary(ctx context.Context, req Request) (Series, error) {
	if req.Dataset == "" || req.Datatype == "" {
		return nil, &ValidationError{Msg: "dataset and datatype must be provided for NOAA requests"}
	}

	var combined Series
	for seg := range Chunk(req.Start, req.End, req.ChunkDays) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, err := f.Primary.FetchSegment(ctx, SegmentRequest{
			Station:  req.Station,
			Dataset:  req.Dataset,
			Datatype: req.Datatype,
			Start:    seg.Start,
			End:      seg.End,
			Units:    req.Units,
		})
		if err != nil {
			return nil, err
		}
		combined = append(combined, series...)
	}

	if combined.Empty() {
		// The fallback covers the original full range, not the individual
		// segments. Fallback failures are swallowed so the no-data outcome
		// prevails.
		if f.Fallback != nil {
			fallback, err := f.Fallback.Fetch(ctx, FallbackRequest{
				Station:  req.Station,
				Start:    req.Start,
				End:      req.End,
				Datatype: req.Datatype,
				Units:    req.Units,
			})
			if err == nil && !fallback.Empty() {
				fallback.Sort()
				return fallback, nil
			}
		}
		return nil, ErrNoData
	}

	combined.Sort()
	return combined, nil
}
