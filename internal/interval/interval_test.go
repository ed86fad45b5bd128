package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2030, 1, 15, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"back to back", Interval{at(10, 0), at(11, 0)}, Interval{at(11, 0), at(12, 0)}, false},
		{"disjoint", Interval{at(8, 0), at(9, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"partial", Interval{at(10, 0), at(11, 0)}, Interval{at(10, 30), at(11, 30)}, true},
		{"contained", Interval{at(10, 0), at(12, 0)}, Interval{at(10, 30), at(11, 0)}, true},
		{"same start", Interval{at(10, 0), at(10, 15)}, Interval{at(10, 0), at(11, 0)}, true},
		{"one minute", Interval{at(10, 0), at(11, 0)}, Interval{at(10, 59), at(12, 0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestOverlapsSymmetricAndReflexive(t *testing.T) {
	base := at(0, 0)
	var spans []Interval
	for start := 0; start < 8; start++ {
		for length := 1; length < 5; length++ {
			spans = append(spans, Of(base.Add(time.Duration(start)*30*time.Minute), time.Duration(length)*30*time.Minute))
		}
	}
	for _, a := range spans {
		assert.True(t, a.Overlaps(a), "non-empty interval overlaps itself")
		for _, b := range spans {
			assert.Equal(t, a.Overlaps(b), b.Overlaps(a))
		}
	}
}

func TestFindConflict(t *testing.T) {
	existing := []Interval{
		{at(8, 0), at(9, 0)},
		{at(10, 0), at(11, 0)},
		{at(10, 30), at(12, 0)},
	}

	got, ok := FindConflict(Interval{at(10, 45), at(11, 15)}, existing)
	assert.True(t, ok)
	assert.Equal(t, existing[1], got, "first conflict in iteration order wins")

	_, ok = FindConflict(Interval{at(9, 0), at(10, 0)}, existing)
	assert.False(t, ok)

	_, ok = FindConflict(Interval{at(9, 0), at(10, 0)}, nil)
	assert.False(t, ok)
}

func TestFirstConflict(t *testing.T) {
	type booking struct {
		name string
		span Interval
	}
	items := []booking{
		{"morning", Interval{at(9, 0), at(10, 0)}},
		{"lunch", Interval{at(12, 0), at(13, 0)}},
	}
	got, ok := FirstConflict(Of(at(12, 30), time.Hour), items, func(b booking) Interval { return b.span })
	assert.True(t, ok)
	assert.Equal(t, "lunch", got.name)
}
