package core

import (
	"reflect"
	"testing"
)

func TestResolveHeaders(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		out  []string
	}{
		{"duplicates", []string{"A", "B", "A", "A"}, []string{"A", "B", "A_1", "A_2"}},
		{"single", []string{"X"}, []string{"X"}},
		{"empty", []string{}, []string{}},
		{"per-name counters", []string{"A", "B", "B", "A", "B"}, []string{"A", "B", "B_1", "A_1", "B_2"}},
		{"blank names", []string{"", "", "Date"}, []string{"", "_1", "Date"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveHeaders(tc.in)
			if !reflect.DeepEqual(got, tc.out) {
				t.Fatalf("ResolveHeaders(%v) = %v, want %v", tc.in, got, tc.out)
			}
			if len(got) != len(tc.in) {
				t.Fatalf("length changed: %d -> %d", len(tc.in), len(got))
			}
		})
	}
}
