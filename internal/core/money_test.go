package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"-12.5", -12.5, true},
		{" 2.50 ", 2.5, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestSignedAmount(t *testing.T) {
	if SignedAmount(-5, true) != 5 {
		t.Fatalf("income must be positive")
	}
	if SignedAmount(5, false) != -5 {
		t.Fatalf("expense must be negative")
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		0:        "$0.00",
		12:       "$12.00",
		-12:      "-$12.00",
		1234.56:  "$1,234.56",
		1000000:  "$1,000,000.00",
		-650.5:   "-$650.50",
		0.004:    "$0.00",
		999.999:  "$1,000.00",
		123456.7: "$123,456.70",
		1.05:     "$1.05",
		-0.001:   "$0.00",
	}
	for in, want := range cases {
		if got := FormatMoney(in); got != want {
			t.Fatalf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}
