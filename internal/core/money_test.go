package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1", "1.00"},
		{"0", "0.00"},
		{"12.3", "12.30"},
		{"1200", "1200.00"},
		{"0.125", "0.13"},
		{"1.004", "1.00"},
	}
	for _, tc := range cases {
		if got := FormatAmount(decimal.RequireFromString(tc.in)); got != tc.out {
			t.Errorf("FormatAmount(%s) = %s, want %s", tc.in, got, tc.out)
		}
	}
}
