package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestNewPage(t *testing.T) {
	cases := []struct {
		number, limit int
		want          Page
		offset        int
	}{
		{0, 0, Page{1, 20}, 0},
		{-4, 10, Page{1, 10}, 0},
		{3, 15, Page{3, 15}, 30},
		{2, 500, Page{2, 50}, 50},
	}
	for _, tc := range cases {
		p := NewPage(tc.number, tc.limit, 20, 50)
		if p != tc.want || p.Offset() != tc.offset {
			t.Fatalf("NewPage(%d,%d) = %+v offset %d; want %+v offset %d", tc.number, tc.limit, p, p.Offset(), tc.want, tc.offset)
		}
	}
	if ClampLimit(0, 20, 50) != 20 || ClampLimit(99, 20, 50) != 50 || ClampLimit(7, 20, 50) != 7 {
		t.Fatalf("ClampLimit mismatch")
	}
}

func TestPage_TotalPages(t *testing.T) {
	p := Page{Number: 1, Limit: 20}
	for total, want := range map[int64]int{0: 0, 1: 1, 20: 1, 21: 2, 100: 5} {
		if got := p.TotalPages(total); got != want {
			t.Fatalf("TotalPages(%d) = %d; want %d", total, got, want)
		}
	}
	if (Page{Number: 1}).TotalPages(10) != 0 {
		t.Fatalf("zero limit must not divide")
	}
}
