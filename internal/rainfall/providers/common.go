// Package providers contains the HTTP clients for the upstream rainfall
// services: the legacy paginated CDO API, the token-free NCEI Access Data
// Service used as a fallback, and a generic JSON/CSV echo service.
package providers

import (
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// decodeJSONRecords decodes a JSON array of loosely shaped objects.
func decodeJSONRecords(body []byte) ([]rainfall.Record, error) {
	var records []rainfall.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// parseCSVRecords turns CSV text into records keyed by the header row.
// Cell values stay strings; the normalizer handles numeric coercion.
func parseCSVRecords(body []byte) ([]rainfall.Record, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, nil
	}

	header := rows[0]
	records := make([]rainfall.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(rainfall.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
