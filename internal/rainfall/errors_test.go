package rainfall

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func responseWith(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewHTTPErrorExtractsJSONMessage(t *testing.T) {
	resp := responseWith(500, "application/json", `{"message": "database offline"}`)
	err := NewHTTPError(resp)
	if err.Detail != "database offline" {
		t.Fatalf("detail = %q", err.Detail)
	}
	if err.Hint != "" {
		t.Fatalf("unexpected hint %q", err.Hint)
	}
	if got := err.Error(); got != "server returned HTTP 500: database offline" {
		t.Fatalf("message = %q", got)
	}
}

func TestNewHTTPErrorHints(t *testing.T) {
	err := NewHTTPError(responseWith(401, "text/plain", ""))
	if err.Hint != "Check that your API token is valid" {
		t.Fatalf("401 hint = %q", err.Hint)
	}
	if !strings.Contains(err.Error(), "Unauthorized. Check that your API token is valid") {
		t.Fatalf("message = %q", err.Error())
	}

	err = NewHTTPError(responseWith(404, "text/plain", ""))
	if err.Hint != "Check the station ID, dataset and datatype" {
		t.Fatalf("404 hint = %q", err.Hint)
	}
}

func TestNewHTTPErrorFirstLineAndTruncation(t *testing.T) {
	err := NewHTTPError(responseWith(502, "text/html", "upstream exploded\nstack frame 1\nstack frame 2"))
	if err.Detail != "upstream exploded" {
		t.Fatalf("detail = %q", err.Detail)
	}

	long := strings.Repeat("x", 500)
	err = NewHTTPError(responseWith(500, "text/plain", long))
	if len([]rune(err.Detail)) != detailLimit || !strings.HasSuffix(err.Detail, "…") {
		t.Fatalf("detail not truncated: %d runes", len([]rune(err.Detail)))
	}
}
