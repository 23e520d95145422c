package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// DefaultADSBaseURL is the NCEI Access Data Service endpoint. The ADS does
// not require an API token and serves stations (notably CoCoRaHS
// identifiers) that the CDO API cannot.
const DefaultADSBaseURL = "https://www.ncei.noaa.gov/access/services/data/v1"

// adsDataset is the sole ADS equivalent of the CDO's default GHCND dataset.
const adsDataset = "daily-summaries"

// ADSClient talks to the token-free access service used when the primary
// API has no coverage for a station.
type ADSClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewADSClient creates a fallback client.
func NewADSClient(client *http.Client) *ADSClient {
	return &ADSClient{
		httpClient: client,
		baseURL:    DefaultADSBaseURL,
	}
}

// SetBaseURL overrides the service endpoint (for testing against mock
// servers).
func (c *ADSClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Fetch retrieves rainfall from the ADS and normalizes it into a canonical
// series. HTTP 400/404 yield an empty series rather than an error, keeping
// the "no data" semantics consistent with the primary client. The service
// answers with either a JSON array of records or CSV text; JSON is tried
// first.
func (c *ADSClient) Fetch(ctx context.Context, req rainfall.FallbackRequest) (rainfall.Series, error) {
	params := url.Values{}
	params.Set("dataset", adsDataset)
	params.Set("stations", rainfall.RawStation(req.Station))
	params.Set("startDate", req.Start)
	params.Set("endDate", req.End)
	params.Set("units", rainfall.WireUnits(req.Units))
	params.Set("format", "json")
	if req.Datatype != "" {
		params.Set("dataTypes", req.Datatype)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch fallback rainfall: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return rainfall.Series{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rainfall.NewHTTPError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fallback response: %w", err)
	}

	records, err := decodeJSONRecords(body)
	if err != nil {
		records, err = parseCSVRecords(body)
		if err != nil {
			return nil, &rainfall.SchemaError{Msg: "unsupported response format"}
		}
	}
	if len(records) == 0 {
		return rainfall.Series{}, nil
	}

	return rainfall.Normalize(records, rainfall.FallbackSchema(req.Datatype))
}
