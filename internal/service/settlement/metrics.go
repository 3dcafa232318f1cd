package settlement

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Alijeyrad/staylink_backend/internal/service/settlement"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func demotionCounter() metric.Int64Counter {
	c, err := otel.Meter(instrumentationName).Int64Counter("settlement_host_demotions_total",
		metric.WithDescription("Referring hosts dropped from a booking because no referral link exists"))
	if err != nil {
		return nil
	}
	return c
}

func checkoutCounter() metric.Int64Counter {
	c, err := otel.Meter(instrumentationName).Int64Counter("settlement_checkouts_total",
		metric.WithDescription("Checkout attempts by outcome"))
	if err != nil {
		return nil
	}
	return c
}
