package core

import (
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"plain integer", "15", 1500, false},
		{"two decimals", "15.20", 1520, false},
		{"comma separator", "15,20", 1520, false},
		{"one decimal", "15.2", 1520, false},
		{"half-up rounding", "1.005", 101, false},
		{"round down", "1.004", 100, false},
		{"leading dot", ".50", 50, false},
		{"whitespace", "  3.00 ", 300, false},
		{"zero rejected", "0", 0, true},
		{"negative rejected", "-5", 0, true},
		{"plus sign rejected", "+5", 0, true},
		{"letters rejected", "12a", 0, true},
		{"two dots rejected", "1.2.3", 0, true},
		{"empty rejected", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCentsFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		want    int64
		wantErr bool
	}{
		{"units to cents", 1500.20, 150020, false},
		{"rounds", 0.005, 1, false},
		{"negative allowed", -42.50, -4250, false},
		{"NaN rejected", math.NaN(), 0, true},
		{"+Inf rejected", math.Inf(1), 0, true},
		{"-Inf rejected", math.Inf(-1), 0, true},
		{"overflow rejected", 1e18, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CentsFromFloat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CentsFromFloat(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CentsFromFloat(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmountsMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want bool
	}{
		{"exact", 150000, 150000, true},
		{"within tolerance", 150000, 150020, true},
		{"just under a unit apart", 150000, 150099, true},
		{"a full unit apart", 150000, 150100, false},
		{"far apart", 150000, 160000, false},
		{"symmetric", 150020, 150000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountsMatch(Money{Cents: tt.a}, Money{Cents: tt.b})
			if got != tt.want {
				t.Errorf("AmountsMatch(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("Validate(100) = %v", err)
	}
	if err := (Money{}).Validate(); err == nil {
		t.Error("Validate(0) accepted")
	}
	if err := (Money{Cents: -50}).Validate(); err == nil {
		t.Error("Validate(-50) accepted")
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 1520}).Units(); got != 15.20 {
		t.Errorf("Units() = %v, want 15.20", got)
	}
}
