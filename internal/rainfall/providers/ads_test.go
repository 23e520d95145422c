package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

func newADSTestClient(handler http.HandlerFunc) (*ADSClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewADSClient(server.Client())
	client.SetBaseURL(server.URL)
	return client, server
}

func adsRequest() rainfall.FallbackRequest {
	return rainfall.FallbackRequest{
		Station:  "GHCND:US1PAAL0001",
		Start:    "2020-01-01",
		End:      "2020-01-03",
		Datatype: "PRCP",
		Units:    "mm",
	}
}

func TestADSFetchJSON(t *testing.T) {
	var query url.Values
	client, server := newADSTestClient(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"DATE": "2020-01-02", "STATION": "US1PAAL0001", "PRCP": "2.5"},
			{"DATE": "2020-01-01", "STATION": "US1PAAL0001", "PRCP": "0.0"}
		]`)
	})
	defer server.Close()

	series, err := client.Fetch(context.Background(), adsRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if !series[0].Timestamp.Before(series[1].Timestamp) {
		t.Fatal("series is not sorted ascending")
	}
	if series[1].Value != 2.5 {
		t.Fatalf("value = %v, want 2.5", series[1].Value)
	}

	if query.Get("stations") != "US1PAAL0001" {
		t.Fatalf("dataset prefix must be stripped, got %q", query.Get("stations"))
	}
	if query.Get("dataset") != "daily-summaries" {
		t.Fatalf("dataset = %q", query.Get("dataset"))
	}
	if query.Get("units") != "metric" {
		t.Fatalf("units = %q, want metric", query.Get("units"))
	}
	if query.Get("dataTypes") != "PRCP" {
		t.Fatalf("dataTypes = %q", query.Get("dataTypes"))
	}
}

func TestADSFetchCSVFallbackParse(t *testing.T) {
	client, server := newADSTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "DATE,STATION,PRCP\n2020-01-01,US1PAAL0001,0.3\n2020-01-02,US1PAAL0001,T\n")
	})
	defer server.Close()

	series, err := client.Fetch(context.Background(), adsRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if series[0].Value != 0.3 {
		t.Fatalf("value = %v, want 0.3", series[0].Value)
	}
	if !series[1].Missing() {
		t.Fatal("trace value must coerce to missing")
	}
}

func TestADSFetchNoCoverage(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound} {
		client, server := newADSTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		series, err := client.Fetch(context.Background(), adsRequest())
		server.Close()
		if err != nil {
			t.Fatalf("status %d must not be an error, got %v", status, err)
		}
		if !series.Empty() {
			t.Fatalf("status %d must yield an empty series", status)
		}
	}
}

func TestADSFetchEmptyBody(t *testing.T) {
	client, server := newADSTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})
	defer server.Close()

	series, err := client.Fetch(context.Background(), adsRequest())
	if err != nil {
		t.Fatal(err)
	}
	if !series.Empty() {
		t.Fatalf("expected empty series, got %v", series)
	}
}

func TestADSFetchHTTPError(t *testing.T) {
	client, server := newADSTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	})
	defer server.Close()

	_, err := client.Fetch(context.Background(), adsRequest())
	var httpErr *rainfall.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTeapot {
		t.Fatalf("expected HTTPError 418, got %v", err)
	}
}

func TestADSFetchUnrecognizedBody(t *testing.T) {
	client, server := newADSTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": "unexpected shape"}`)
	})
	defer server.Close()

	_, err := client.Fetch(context.Background(), adsRequest())
	var schemaErr *rainfall.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}
