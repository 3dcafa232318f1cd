package app

import (
	"testing"

	"github.com/google/uuid"
)

func TestPlanIDFromSubject(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		subject string
		want    uuid.UUID
		ok      bool
	}{
		{"staylink.payment.captured." + id.String(), id, true},
		{"staylink.payment.captured.not-a-uuid", uuid.Nil, false},
		{"staylink.settlement.recorded." + id.String(), uuid.Nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got, ok := planIDFromSubject(tt.subject)
			if ok != tt.ok || got != tt.want {
				t.Errorf("got (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
