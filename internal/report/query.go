package report

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"baches/internal/models"
)

type FilterKey string

const (
	FilterAll    FilterKey = "all"
	FilterLow    FilterKey = "low"
	FilterMedium FilterKey = "medium"
	FilterHigh   FilterKey = "high"
)

type SortKey string

const (
	SortDateAsc      SortKey = "date_asc"
	SortDateDesc     SortKey = "date_desc"
	SortAlphaAsc     SortKey = "alpha_asc"
	SortAlphaDesc    SortKey = "alpha_desc"
	SortSeverityAsc  SortKey = "severity_asc"
	SortSeverityDesc SortKey = "severity_desc"
)

// ParseFilter accepts the bucket names; empty means all.
func ParseFilter(s string) (FilterKey, error) {
	switch k := FilterKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return FilterAll, nil
	case FilterAll, FilterLow, FilterMedium, FilterHigh:
		return k, nil
	}
	return "", fmt.Errorf("unknown severity filter %q", s)
}

// ParseSort accepts the sort keys; empty means newest first.
func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortDateDesc, nil
	case SortDateAsc, SortDateDesc, SortAlphaAsc, SortAlphaDesc, SortSeverityAsc, SortSeverityDesc:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Filter keeps reports in the bucket, preserving order. Reports whose severity
// is not recognised only appear under FilterAll.
func Filter(reports []models.Report, key FilterKey) []models.Report {
	out := make([]models.Report, 0, len(reports))
	if key == FilterAll || key == "" {
		return append(out, reports...)
	}
	for _, r := range reports {
		if sev, ok := NormalizeSeverity(r.Severity); ok && string(sev) == string(key) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a sorted copy. All orders are stable; date_desc is the exact
// reverse of date_asc.
func Sort(reports []models.Report, key SortKey) []models.Report {
	out := slices.Clone(reports)
	if out == nil {
		out = []models.Report{}
	}

	switch key {
	case SortDateAsc, SortDateDesc:
		times := make(map[string]time.Time, len(out))
		at := func(r models.Report) time.Time {
			t, ok := times[r.CreatedAt]
			if !ok {
				t = ParseTime(r.CreatedAt)
				times[r.CreatedAt] = t
			}
			return t
		}
		slices.SortStableFunc(out, func(a, b models.Report) int {
			return at(a).Compare(at(b))
		})
		if key == SortDateDesc {
			slices.Reverse(out)
		}
	case SortAlphaAsc:
		slices.SortStableFunc(out, func(a, b models.Report) int {
			return strings.Compare(a.Description, b.Description)
		})
	case SortAlphaDesc:
		slices.SortStableFunc(out, func(a, b models.Report) int {
			return strings.Compare(b.Description, a.Description)
		})
	case SortSeverityAsc:
		slices.SortStableFunc(out, func(a, b models.Report) int {
			return Rank(a.Severity) - Rank(b.Severity)
		})
	case SortSeverityDesc:
		slices.SortStableFunc(out, func(a, b models.Report) int {
			return Rank(b.Severity) - Rank(a.Severity)
		})
	}
	return out
}

func Query(reports []models.Report, filter FilterKey, sort SortKey) []models.Report {
	return Sort(Filter(reports, filter), sort)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	TimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds; 1e11
// seconds is past the year 5000.
const epochMillisThreshold = 1e11

// ParseTime reads the timestamp formats seen in stored and remote reports,
// including numeric epoch seconds or milliseconds. Unreadable values sort as
// the zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		if math.Abs(n) >= epochMillisThreshold {
			return time.UnixMilli(int64(n)).UTC()
		}
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
