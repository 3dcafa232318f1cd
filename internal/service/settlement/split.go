package settlement

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateSplit partitions total into platform, host and vendor shares.
//
// When the host is not authorized its commission is added to the platform
// share. Platform and host are rounded half up to whole minor units and the
// vendor receives the remainder, so the three always sum to total.
func CalculateSplit(total int64, platformFeePct, hostCommissionPct decimal.Decimal, hostAuthorized bool) (Split, error) {
	if total <= 0 {
		return Split{}, invalid("total", "must be greater than zero")
	}
	if err := checkPercent("platform_fee_percent", platformFeePct); err != nil {
		return Split{}, err
	}
	if err := checkPercent("host_commission_percent", hostCommissionPct); err != nil {
		return Split{}, err
	}

	platformPct, hostPct := platformFeePct, hostCommissionPct
	if !hostAuthorized {
		platformPct = platformFeePct.Add(hostCommissionPct)
		hostPct = decimal.Zero
	}
	if platformPct.Add(hostPct).GreaterThan(hundred) {
		return Split{}, invalid("", "platform fee and host commission exceed 100 percent")
	}

	t := decimal.NewFromInt(total)
	platform := percentOf(t, platformPct)
	host := percentOf(t, hostPct)

	// Both shares can round up on a 100 percent split; the host gives back
	// the extra unit so the vendor never goes negative.
	if over := platform + host - total; over > 0 {
		host -= over
	}

	return Split{
		Platform: platform,
		Host:     host,
		Vendor:   total - platform - host,
	}, nil
}

func percentOf(total, pct decimal.Decimal) int64 {
	return total.Mul(pct).Shift(-2).Round(0).IntPart()
}

func checkPercent(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return invalid(field, "must be between 0 and 100")
	}
	return nil
}
