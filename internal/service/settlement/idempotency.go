package settlement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const idempotencyKeyVersion = "v1"

// IdempotencyKey derives the plan key from the fields that identify one
// booking submission. The referring host is left out so a demoted or
// re-linked host cannot turn a retry into a second booking.
func IdempotencyKey(vendorID, guestID uuid.UUID, date, clock string, totalMinor int64, guests int, currency string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%d\x00%d\x00%s",
		idempotencyKeyVersion, vendorID, guestID, date, clock, totalMinor, guests, currency)
	return idempotencyKeyVersion + "_" + hex.EncodeToString(h.Sum(nil))
}
