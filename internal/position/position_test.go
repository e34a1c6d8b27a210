package position

import "testing"

func TestNextTrailing(t *testing.T) {
	cases := []struct {
		name string
		last *float64
		want float64
	}{
		{name: "empty parent", last: nil, want: 65536},
		{name: "single sibling", last: ptr(65536), want: 131072},
		{name: "many siblings", last: ptr(655360), want: 720896},
		{name: "fractional last", last: ptr(98304.5), want: 163840.5},
		{name: "zero last", last: ptr(0), want: 65536},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextTrailing(tc.last); got != tc.want {
				t.Fatalf("NextTrailing(%v) = %v, want %v", tc.last, got, tc.want)
			}
		})
	}
}

func TestNextTrailingIsStrictlyIncreasing(t *testing.T) {
	last := NextTrailing(nil)
	for i := 0; i < 1000; i++ {
		next := NextTrailing(&last)
		if next <= last {
			t.Fatalf("position %v not greater than previous %v after %d appends", next, last, i)
		}
		if next-last != Gap {
			t.Fatalf("gap between appends = %v, want %v", next-last, Gap)
		}
		last = next
	}
}

func ptr(v float64) *float64 { return &v }
