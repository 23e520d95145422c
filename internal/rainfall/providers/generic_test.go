package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

func newGenericTestClient(handler http.HandlerFunc) (*GenericClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewGenericClient(server.Client(), server.URL, "secret"), server
}

func TestGenericFetchJSONResults(t *testing.T) {
	client, server := newGenericTestClient(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("station") != "gauge-7" || q.Get("token") != "secret" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": [
			{"date": "2020-03-02", "value": 1.0},
			{"date": "2020-03-01", "value": 0.5}
		]}`)
	})
	defer server.Close()

	series, err := client.Fetch(context.Background(), "gauge-7", "2020-03-01", "2020-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 || !series[0].Timestamp.Before(series[1].Timestamp) {
		t.Fatalf("unexpected series %v", series)
	}
}

func TestGenericFetchDataKeyAndCSV(t *testing.T) {
	client, server := newGenericTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [{"Datetime": "2020-03-01", "Rainfall": 0.5}]}`)
	})
	series, err := client.Fetch(context.Background(), "g", "2020-03-01", "2020-03-01")
	server.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 || series[0].Value != 0.5 {
		t.Fatalf("unexpected series %v", series)
	}

	client, server = newGenericTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "Datetime,Rainfall\n2020-03-01,0.5\n")
	})
	defer server.Close()
	series, err = client.Fetch(context.Background(), "g", "2020-03-01", "2020-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 || series[0].Value != 0.5 {
		t.Fatalf("unexpected series %v", series)
	}
}

func TestGenericFetchEmptyIsNoData(t *testing.T) {
	client, server := newGenericTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": []}`)
	})
	defer server.Close()

	if _, err := client.Fetch(context.Background(), "g", "2020-03-01", "2020-03-02"); !errors.Is(err, rainfall.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestGenericFetchNotFoundIsFatal(t *testing.T) {
	client, server := newGenericTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.Fetch(context.Background(), "g", "2020-03-01", "2020-03-02")
	var httpErr *rainfall.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("404 must be fatal for the generic source, got %v", err)
	}
}

func TestGenericFetchUnsupportedContentType(t *testing.T) {
	client, server := newGenericTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, "<rainfall/>")
	})
	defer server.Close()

	_, err := client.Fetch(context.Background(), "g", "2020-03-01", "2020-03-02")
	var schemaErr *rainfall.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}
