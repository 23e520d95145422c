package rainfall

import (
	"iter"
	"time"
)

const dateLayout = "2006-01-02"

// Segment is a bounded sub-range of dates used to keep individual CDO
// requests small. Start and End are inclusive ISO (YYYY-MM-DD) dates.
type Segment struct {
	Start string
	End   string
}

// Chunk splits [start, end] into segments of at most chunkDays calendar
// days. Consecutive segments are contiguous and non-overlapping: the next
// segment starts the day after the previous one ends.
//
// Chunking is a performance optimization, never a correctness requirement:
// when chunkDays is zero or either date fails to parse, a single segment
// covering the whole range is produced verbatim. When start is after end
// the sequence is empty.
func Chunk(start, end string, chunkDays int) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		if chunkDays <= 0 {
			yield(Segment{Start: start, End: end})
			return
		}

		startDate, errStart := time.Parse(dateLayout, NormalizeISODate(start))
		endDate, errEnd := time.Parse(dateLayout, NormalizeISODate(end))
		if errStart != nil || errEnd != nil {
			yield(Segment{Start: start, End: end})
			return
		}
		if startDate.After(endDate) {
			return
		}

		for cur := startDate; !cur.After(endDate); {
			segEnd := cur.AddDate(0, 0, chunkDays-1)
			if segEnd.After(endDate) {
				segEnd = endDate
			}
			if !yield(Segment{Start: cur.Format(dateLayout), End: segEnd.Format(dateLayout)}) {
				return
			}
			cur = segEnd.AddDate(0, 0, 1)
		}
	}
}
