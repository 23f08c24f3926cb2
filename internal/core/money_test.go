package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 100, false},
		{"1.5", 150, false},
		{"1.23", 123, false},
		{"12,34", 1234, false},
		{"0.01", 1, false},
		{" 2.50 ", 250, false},
		{"-43.48", -4348, false},
		{"+7", 700, false},
		{"1.005", 0, true},
		{"1.", 0, true},
		{".5", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"1e3", 0, true},
		{"", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseMoney(%q) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil || got.Cents != tt.want {
				t.Fatalf("ParseMoney(%q) = %d, %v; want %d", tt.in, got.Cents, err, tt.want)
			}
		})
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{`1250`, 1250, false},
		{`"12.50"`, 1250, false},
		{`"12,5"`, 1250, false},
		{`10.5`, 0, true},
		{`"ten"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m Money
			err := json.Unmarshal([]byte(tt.in), &m)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("Unmarshal(%s) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil || m.Cents != tt.want {
				t.Fatalf("Unmarshal(%s) = %d, %v; want %d", tt.in, m.Cents, err, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1234:   "12.34",
		-4348:  "-43.48",
		100000: "1000.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}
