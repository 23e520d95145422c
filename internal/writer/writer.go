// Package writer serializes canonical rainfall series into the supported
// output formats. All writers consume exactly the two-column,
// timestamp-sorted shape the fetch pipeline produces.
package writer

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// WriteCSV writes a Datetime,Rainfall header followed by one row per
// point. Missing values are written as empty cells.
func WriteCSV(w io.Writer, series rainfall.Series) error {
	if _, err := fmt.Fprintln(w, "Datetime,Rainfall"); err != nil {
		return err
	}
	for _, p := range series {
		value := ""
		if !p.Missing() {
			value = formatValue(p.Value)
		}
		if _, err := fmt.Fprintf(w, "%s,%s\n", formatTimestamp(p.Timestamp), value); err != nil {
			return err
		}
	}
	return nil
}

// WriteTSF writes the tab-separated TSF format: an IDs header naming the
// station, a blank line, a column header and one row per point.
func WriteTSF(w io.Writer, station string, series rainfall.Series) error {
	if _, err := fmt.Fprintf(w, "IDs:\t%s\n\nDatetime\tRainfall\n", station); err != nil {
		return err
	}
	for _, p := range series {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", formatTimestamp(p.Timestamp), formatValue(p.Value)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSWMM writes a SWMM [TIMESERIES] block with one RAINFALL line per
// point. Missing values are skipped; SWMM has no notion of gaps.
func WriteSWMM(w io.Writer, series rainfall.Series) error {
	if _, err := fmt.Fprintln(w, "[TIMESERIES]"); err != nil {
		return err
	}
	for _, p := range series {
		if p.Missing() {
			continue
		}
		line := fmt.Sprintf("RAINFALL %s %s\n", p.Timestamp.Format("2006-01-02 15:04"), formatValue(p.Value))
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTimestamp(ts time.Time) string {
	if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 {
		return ts.Format("2006-01-02")
	}
	return ts.Format("2006-01-02 15:04:05")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
