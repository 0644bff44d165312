package report

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baches/internal/models"
)

var severities = []string{"low", "medium", "high", "Baja", "ALTA", "media", "urgent", ""}

func randomReports(rng *rand.Rand, n int) []models.Report {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Report, n)
	for i := range out {
		out[i] = models.Report{
			ID:          fmt.Sprintf("r%d", i),
			Description: string(rune('a' + rng.Intn(5))),
			Severity:    severities[rng.Intn(len(severities))],
			// few distinct timestamps so ties are common
			CreatedAt: base.Add(time.Duration(rng.Intn(4)) * time.Hour).Format(TimeLayout),
		}
	}
	return out
}

func TestFilterAllKeepsOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		in := randomReports(rng, rng.Intn(20))
		assert.Equal(t, in, Filter(in, FilterAll))
	}
}

func TestFilterBucketsAreExact(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		in := randomReports(rng, rng.Intn(30))
		for _, key := range []FilterKey{FilterLow, FilterMedium, FilterHigh} {
			got := Filter(in, key)
			for _, r := range got {
				sev, ok := NormalizeSeverity(r.Severity)
				require.True(t, ok)
				assert.Equal(t, string(key), string(sev))
			}

			want := 0
			for _, r := range in {
				if sev, ok := NormalizeSeverity(r.Severity); ok && string(sev) == string(key) {
					want++
				}
			}
			assert.Len(t, got, want)
		}
	}
}

func TestSortDateDescIsReverseOfAsc(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		in := randomReports(rng, rng.Intn(25))
		desc := Sort(in, SortDateDesc)
		slices.Reverse(desc)
		assert.Equal(t, Sort(in, SortDateAsc), desc)
	}
}

func TestSortSeverityIsStable(t *testing.T) {
	in := []models.Report{
		{ID: "1", Severity: "high"},
		{ID: "2", Severity: "urgent"},
		{ID: "3", Severity: "low"},
		{ID: "4", Severity: "Media"},
		{ID: "5", Severity: "alta"},
	}
	ids := func(rs []models.Report) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}
	assert.Equal(t, []string{"3", "2", "4", "1", "5"}, ids(Sort(in, SortSeverityAsc)))
	assert.Equal(t, []string{"1", "5", "2", "4", "3"}, ids(Sort(in, SortSeverityDesc)))
}

func TestSortAlphaIsCaseSensitive(t *testing.T) {
	in := []models.Report{{Description: "bache"}, {Description: "Zanja"}, {Description: "árbol"}, {Description: "Bache"}}
	got := Sort(in, SortAlphaAsc)
	var names []string
	for _, r := range got {
		names = append(names, r.Description)
	}
	assert.Equal(t, []string{"Bache", "Zanja", "bache", "árbol"}, names)

	desc := Sort(in, SortAlphaDesc)
	assert.Equal(t, "árbol", desc[0].Description)
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := []models.Report{{ID: "b", CreatedAt: "2024-01-02T00:00:00Z"}, {ID: "a", CreatedAt: "2024-01-01T00:00:00Z"}}
	_ = Sort(in, SortDateAsc)
	assert.Equal(t, "b", in[0].ID)
}

func TestParseKeys(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)
	f, err = ParseFilter("HIGH")
	require.NoError(t, err)
	assert.Equal(t, FilterHigh, f)
	_, err = ParseFilter("urgent")
	assert.Error(t, err)

	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortDateDesc, s)
	s, err = ParseSort("severity_asc")
	require.NoError(t, err)
	assert.Equal(t, SortSeverityAsc, s)
	_, err = ParseSort("random")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	assert.Equal(t, 2024, ParseTime("2024-05-01T12:00:00.000Z").Year())
	assert.Equal(t, 2024, ParseTime("2024-05-01").Year())
	assert.True(t, ParseTime("yesterday").IsZero())
}

func TestParseTimeEpoch(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(ParseTime("1714564800000")), "milliseconds")
	assert.True(t, want.Equal(ParseTime("1714564800")), "seconds")
}

func TestSortNumericCreatedAt(t *testing.T) {
	// remote collections may carry epoch milliseconds instead of ISO strings
	older := Normalize(map[string]any{"id": "old", "description": "a", "createdAt": float64(1714564800000)})
	newer := Normalize(map[string]any{"id": "new", "description": "b", "date": "2024-06-01T00:00:00.000Z"})
	oldest := Normalize(map[string]any{"id": "oldest", "description": "c", "createdAt": "2024-01-01T00:00:00.000Z"})

	got := Sort([]models.Report{older, newer, oldest}, SortDateAsc)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	assert.Equal(t, []string{"oldest", "old", "new"}, ids)
}
