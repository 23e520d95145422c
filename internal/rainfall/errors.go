package rainfall

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rossv/rainfalldownload/internal/common"
)

// ErrNoData is returned when both the primary API and the fallback service
// yielded nothing. Callers can present it as "no data in range" rather than
// a generic failure.
var ErrNoData = errors.New("no rainfall data returned")

// ValidationError reports insufficient caller-supplied parameters. It is
// surfaced immediately and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// SchemaError reports a response whose shape could not be recognized,
// including unsupported content types. Fatal, not retried.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return e.Msg
}

// HTTPError reports a transport-level failure or a non-2xx status outside
// the documented 400/404 fallback triggers.
type HTTPError struct {
	StatusCode int
	Detail     string
	Hint       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

const detailLimit = 160

// NewHTTPError builds an HTTPError from a non-2xx response, extracting a
// concise human-readable detail from the JSON body, the status text or the
// first body line, truncated to a readable length.
func NewHTTPError(resp *http.Response) *HTTPError {
	detail := strings.TrimSpace(http.StatusText(resp.StatusCode))

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if d := detailFromBody(resp.Header.Get("Content-Type"), body); d != "" {
		detail = d
	}

	e := &HTTPError{
		StatusCode: resp.StatusCode,
		Detail:     common.Truncate(detail, detailLimit),
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.Hint = "Check that your API token is valid"
	case resp.StatusCode == http.StatusNotFound:
		e.Hint = "Check the station ID, dataset and datatype"
	}
	return e
}

func detailFromBody(contentType string, body []byte) string {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err == nil {
			for _, key := range []string{"message", "detail", "error"} {
				if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
