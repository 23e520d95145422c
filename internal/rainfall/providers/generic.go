package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rossv/rainfalldownload/internal/common"
	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// GenericClient talks to a simple rainfall service that echoes back the
// requested station and range, answering with a JSON object holding a
// results/data array or with raw CSV. It exists for non-NOAA sources and
// offline test fixtures.
type GenericClient struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewGenericClient creates a client for a generic rainfall endpoint.
func NewGenericClient(client *http.Client, baseURL, token string) *GenericClient {
	return &GenericClient{
		token:      token,
		httpClient: client,
		baseURL:    baseURL,
	}
}

// Fetch issues a single request for the whole range. Unlike the CDO path,
// every non-2xx status is fatal here; there is no fallback behind the
// generic service.
func (c *GenericClient) Fetch(ctx context.Context, station, start, end string) (rainfall.Series, error) {
	params := url.Values{}
	params.Set("station", station)
	params.Set("start", start)
	params.Set("end", end)
	params.Set("token", c.token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch rainfall: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rainfall.NewHTTPError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rainfall response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	var records []rainfall.Record
	switch {
	case common.HasAny(contentType, "application/json"):
		var payload struct {
			Results []rainfall.Record `json:"results"`
			Data    []rainfall.Record `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode rainfall response: %w", err)
		}
		records = payload.Results
		if records == nil {
			records = payload.Data
		}
		if len(records) == 0 {
			return nil, rainfall.ErrNoData
		}
	case common.HasAny(contentType, "text/csv"):
		records, err = parseCSVRecords(body)
		if err != nil {
			return nil, &rainfall.SchemaError{Msg: "unsupported response format"}
		}
	default:
		return nil, &rainfall.SchemaError{Msg: "unsupported response format"}
	}

	return rainfall.Normalize(records, rainfall.PrimarySchema())
}
