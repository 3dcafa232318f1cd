package settlement

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestIdempotencyKey(t *testing.T) {
	vendor, guest := uuid.New(), uuid.New()
	base := IdempotencyKey(vendor, guest, "2026-07-01", "18:30", 10000, 2, "EUR")

	if !strings.HasPrefix(base, "v1_") {
		t.Fatalf("key %q missing version prefix", base)
	}
	if again := IdempotencyKey(vendor, guest, "2026-07-01", "18:30", 10000, 2, "EUR"); again != base {
		t.Fatalf("same booking produced different keys")
	}

	variants := map[string]string{
		"vendor":   IdempotencyKey(uuid.New(), guest, "2026-07-01", "18:30", 10000, 2, "EUR"),
		"guest":    IdempotencyKey(vendor, uuid.New(), "2026-07-01", "18:30", 10000, 2, "EUR"),
		"date":     IdempotencyKey(vendor, guest, "2026-07-02", "18:30", 10000, 2, "EUR"),
		"time":     IdempotencyKey(vendor, guest, "2026-07-01", "18:31", 10000, 2, "EUR"),
		"total":    IdempotencyKey(vendor, guest, "2026-07-01", "18:30", 10001, 2, "EUR"),
		"guests":   IdempotencyKey(vendor, guest, "2026-07-01", "18:30", 10000, 3, "EUR"),
		"currency": IdempotencyKey(vendor, guest, "2026-07-01", "18:30", 10000, 2, "USD"),
	}
	for field, k := range variants {
		if k == base {
			t.Errorf("changing %s did not change the key", field)
		}
	}
}
