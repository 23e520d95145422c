package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rossv/rainfalldownload/internal/common"
	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// DefaultCDOBaseURL is the data endpoint of the legacy NOAA Climate Data
// Online API.
const DefaultCDOBaseURL = "https://www.ncdc.noaa.gov/cdo-web/api/v2/data"

// pageLimit is the fixed CDO page size. The offset parameter is 1-based and
// advances by this amount after each non-final page.
const pageLimit = 1000

// CDOClient talks to the legacy paginated climate-data API.
type CDOClient struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewCDOClient creates a client authenticated with the given API token.
func NewCDOClient(client *http.Client, token string) *CDOClient {
	return &CDOClient{
		token:      token,
		httpClient: client,
		baseURL:    DefaultCDOBaseURL,
	}
}

// SetBaseURL overrides the API endpoint (for testing against mock servers).
func (c *CDOClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

type cdoPage struct {
	Metadata struct {
		Resultset struct {
			Count *int `json:"count"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []rainfall.Record `json:"results"`
	Data    []rainfall.Record `json:"data"`
}

// FetchSegment retrieves and normalizes all pages of one date segment.
// Pages are requested strictly sequentially. An HTTP 400 or 404 at any
// point aborts the segment with an empty series and no error; that is the
// caller's signal to try the fallback service. Any other HTTP failure is
// fatal for the whole fetch.
func (c *CDOClient) FetchSegment(ctx context.Context, req rainfall.SegmentRequest) (rainfall.Series, error) {
	params := url.Values{}
	params.Set("datasetid", req.Dataset)
	params.Set("stationid", rainfall.QualifyStation(req.Station, req.Dataset))
	params.Set("datatypeid", req.Datatype)
	params.Set("startdate", req.Start)
	params.Set("enddate", req.End)
	params.Set("units", rainfall.WireUnits(req.Units))
	params.Set("limit", strconv.Itoa(pageLimit))

	offset := 1
	var collected []rainfall.Record
	var totalCount *int

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params.Set("offset", strconv.Itoa(offset))
		page, noCoverage, err := c.fetchPage(ctx, params)
		if err != nil {
			return nil, err
		}
		if noCoverage {
			return rainfall.Series{}, nil
		}

		if page.Metadata.Resultset.Count != nil {
			totalCount = page.Metadata.Resultset.Count
		}
		records := page.Results
		if records == nil {
			records = page.Data
		}
		collected = append(collected, records...)

		if len(records) == 0 {
			break
		}
		if len(records) < pageLimit {
			break
		}
		if totalCount != nil && offset+pageLimit > *totalCount {
			break
		}
		offset += pageLimit
	}

	return rainfall.Normalize(collected, rainfall.PrimarySchema())
}

func (c *CDOClient) fetchPage(ctx context.Context, params url.Values) (*cdoPage, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("token", c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, false, fmt.Errorf("fetch rainfall page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, rainfall.NewHTTPError(resp)
	}
	if !common.HasAny(resp.Header.Get("Content-Type"), "application/json") {
		return nil, false, &rainfall.SchemaError{Msg: "unsupported response format"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read rainfall page: %w", err)
	}

	var page cdoPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, fmt.Errorf("decode rainfall page: %w", err)
	}
	return &page, false, nil
}
