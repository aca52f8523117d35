package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"5000", 500000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q expected validation error, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		5:       "0.05",
		105000:  "1050.00",
		-32500:  "-325.00",
		1234567: "12345.67",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: expected %s, got %s", cents, want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 325000})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"3250.00"` {
		t.Fatalf("unexpected json %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte(`12.5`), &m); err != nil || m.Cents != 1250 {
		t.Fatalf("number form: %d %v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"7,25"`), &m); err != nil || m.Cents != 725 {
		t.Fatalf("string form: %d %v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`true`), &m); err == nil {
		t.Fatalf("expected error for bool")
	}
}

func TestMoneyJSONRange(t *testing.T) {
	tests := []struct {
		in        string
		wantCents int64
		wantErr   bool
	}{
		{`"92233720368547758.07"`, 9223372036854775807, false},
		{`"0.001"`, 0, false},
		{`0`, 0, false},
		{`"-4.50"`, -450, false},
		{`"92233720368547758.08"`, 0, true},
		{`"184467440737095516.17"`, 0, true},
		{`1e20`, 0, true},
		{`"1e999999999"`, 0, true},
		{`-1e20`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m Money
			err := json.Unmarshal([]byte(tt.in), &m)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("Unmarshal(%s) = %d, %v; want ErrInvalidAmount", tt.in, m.Cents, err)
				}
				return
			}
			if err != nil || m.Cents != tt.wantCents {
				t.Fatalf("Unmarshal(%s) = %d, %v; want %d", tt.in, m.Cents, err, tt.wantCents)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		cur, prev int64
		want      float64
	}{
		{100, 0, 100},
		{0, 0, 0},
		{150, 100, 50},
		{50, 100, -50},
		{100, 300, -66.67},
		{0, 100, -100},
	}
	for _, tc := range cases {
		got := PercentChange(Money{Cents: tc.cur}, Money{Cents: tc.prev})
		if got != tc.want {
			t.Fatalf("PercentChange(%d,%d)=%v want %v", tc.cur, tc.prev, got, tc.want)
		}
	}
}
