package settlement

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		platform   string
		host       string
		authorized bool
		want       Split
	}{
		{"authorized host", 10000, "3", "20", true, Split{Platform: 300, Host: 2000, Vendor: 7700}},
		{"unauthorized host folds into platform", 10000, "3", "20", false, Split{Platform: 2300, Host: 0, Vendor: 7700}},
		{"no commission", 8000, "3", "0", true, Split{Platform: 240, Host: 0, Vendor: 7760}},
		{"half rounds up", 50, "3", "0", true, Split{Platform: 2, Host: 0, Vendor: 48}},
		{"fractional percent", 999, "2.5", "10", true, Split{Platform: 25, Host: 100, Vendor: 874}},
		{"everything to platform", 1234, "100", "0", true, Split{Platform: 1234, Host: 0, Vendor: 0}},
		{"both round up at full split", 1, "50", "50", true, Split{Platform: 1, Host: 0, Vendor: 0}},
		{"zero platform fee", 10000, "0", "15", true, Split{Platform: 0, Host: 1500, Vendor: 8500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSplit(tt.total, pct(tt.platform), pct(tt.host), tt.authorized)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateSplit_SumsToTotal(t *testing.T) {
	percents := []string{"0", "0.5", "1", "2.75", "3", "12.5", "20", "33.33", "49.5", "50"}
	for total := int64(1); total <= 2500; total += 7 {
		for _, p := range percents {
			for _, h := range percents {
				for _, authorized := range []bool{true, false} {
					s, err := CalculateSplit(total, pct(p), pct(h), authorized)
					if err != nil {
						t.Fatalf("total=%d p=%s h=%s: %v", total, p, h, err)
					}
					if s.Total() != total {
						t.Fatalf("total=%d p=%s h=%s: sum %d", total, p, h, s.Total())
					}
					if s.Platform < 0 || s.Host < 0 || s.Vendor < 0 {
						t.Fatalf("total=%d p=%s h=%s: negative share %+v", total, p, h, s)
					}
					if !authorized && s.Host != 0 {
						t.Fatalf("unauthorized host received %d", s.Host)
					}
				}
			}
		}
	}
}

func TestCalculateSplit_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		platform   string
		host       string
		authorized bool
	}{
		{"zero total", 0, "3", "0", true},
		{"negative total", -5, "3", "0", true},
		{"over 100 authorized", 10000, "3", "98", true},
		{"over 100 folded", 10000, "3", "98", false},
		{"negative platform", 10000, "-1", "0", true},
		{"commission above 100", 10000, "0", "101", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateSplit(tt.total, pct(tt.platform), pct(tt.host), tt.authorized)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
