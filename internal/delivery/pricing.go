package delivery

import "math"

// Settings is the subset of SystemSetting PricingEngine needs, resolved by
// the caller (service.go reads them from the settings store once per call).
type Settings struct {
	BasePriceMultiplier    float64
	UrgentPriceMultiplier  float64
	ExpressPriceMultiplier float64
	TaxRate                float64
}

// CalculatePricing is C2 PricingEngine: a pure function of its inputs, with
// no Store or network access, matching §4.6 exactly. distanceMiles is
// computed by GeoService (pkg/geo.HaversineMiles) before this is called —
// PricingEngine never touches coordinates directly.
func CalculatePricing(distanceMiles float64, pkg *PackageType, weightKg float64, priority DeliveryPriority, s Settings) PricingBreakdown {
	estimatedDuration := int(math.Round(distanceMiles * 5))

	baseFee := pkg.BasePrice * s.BasePriceMultiplier
	distanceFee := distanceMiles * 1.25

	weightFee := 0.0
	if pkg.MaxWeightKg > 0 && weightKg > 0.5*pkg.MaxWeightKg {
		weightFee = (weightKg / pkg.MaxWeightKg) * 5
	}

	priorityMultiplier := 0.0
	switch priority {
	case PriorityUrgent:
		priorityMultiplier = s.UrgentPriceMultiplier
	case PriorityExpress:
		priorityMultiplier = s.ExpressPriceMultiplier
	}
	priorityFee := 0.0
	if priorityMultiplier > 0 {
		priorityFee = baseFee * (priorityMultiplier - 1)
	}

	tax := (baseFee + distanceFee + weightFee + priorityFee) * s.TaxRate

	return PricingBreakdown{
		BaseFee:                  roundMoney(baseFee),
		DistanceFee:              roundMoney(distanceFee),
		WeightFee:                roundMoney(weightFee),
		PriorityFee:              roundMoney(priorityFee),
		Tax:                      roundMoney(tax),
		DistanceMiles:            roundMoney(distanceMiles),
		EstimatedDurationMinutes: estimatedDuration,
	}
}

// roundMoney rounds half-away-from-zero to 2 decimals, per §4.6.
func roundMoney(v float64) float64 {
	if v < 0 {
		return -math.Round(-v*100) / 100
	}
	return math.Round(v*100) / 100
}
