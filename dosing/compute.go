package dosing

import (
	"fmt"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// ConvertAmountToMg converts a profile amount to milligrams: mcg amounts are divided
// by 1000, ml amounts are multiplied by the product strength, mg amounts pass through.
func ConvertAmountToMg(amount float64, unit entities.DoseUnit, mgPerMl float64) float64 {
	switch {
	case unit.IsMicrograms():
		return amount / 1000
	case unit.IsVolume():
		return amount * mgPerMl
	default:
		return amount
	}
}

// ComputeDose evaluates a profile's formula and returns the raw milligram amount,
// before the per-day split and the max-dose ceiling.
func ComputeDose(profile *entities.DosingProfile, weightKg, mgPerMl float64) (float64, error) {
	switch f := profile.Formula.(type) {
	case entities.WeightBased:
		perKg := ConvertAmountToMg(f.Amount, profile.Unit, mgPerMl)
		return perKg * weightKg, nil

	case entities.FixedDose:
		return flatDose(f.Amount, f.Threshold, profile.Unit, weightKg, mgPerMl), nil

	case entities.AgeBased:
		return flatDose(f.Amount, f.Threshold, profile.Unit, weightKg, mgPerMl), nil

	case entities.WeightTiered:
		for _, tier := range f.Tiers {
			if tier.Contains(weightKg) {
				return ConvertAmountToMg(tier.Amount, profile.Unit, mgPerMl), nil
			}
		}
		return 0, fmt.Errorf("%w for weight %skg", ErrNoMatchingTier, formatNumber(weightKg))

	default:
		return 0, fmt.Errorf("%w: %q", entities.ErrUnsupportedFormula, profile.Kind())
	}
}

// flatDose returns amount, or the threshold's alternative amount at or above its weight
func flatDose(amount float64, threshold *entities.WeightThreshold, unit entities.DoseUnit, weightKg, mgPerMl float64) float64 {
	if threshold != nil && weightKg >= threshold.Weight {
		amount = threshold.AlternativeAmount
	}
	return ConvertAmountToMg(amount, unit, mgPerMl)
}

// PerAdministrationDose splits a daily amount across the profile's doses per day.
// Per-dose units are returned unchanged.
func PerAdministrationDose(profile *entities.DosingProfile, doseMg float64) float64 {
	if !profile.Unit.IsPerDay() {
		return doseMg
	}
	return doseMg / float64(profile.Frequency.DosesPerDay())
}
