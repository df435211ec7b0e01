package dosing

import (
	"fmt"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// CapResult is the outcome of applying a profile's max-dose ceiling
type CapResult struct {
	DoseMg  float64
	Capped  bool
	Daily   bool // the ceiling was applied to the daily total
	LimitMg float64
	Warning string
}

// EnforceMaxDose caps doseMg at the profile's ceiling. A ceiling whose unit ends in
// /dose limits one administration and one ending in /day limits the daily total.
// Without such a suffix the daily total is checked first and the single dose second.
func EnforceMaxDose(profile *entities.DosingProfile, doseMg, weightKg float64) CapResult {
	result := CapResult{DoseMg: doseMg}
	if profile.MaxDose == nil {
		return result
	}

	limit := profile.MaxDose.Value
	if profile.MaxDose.PerKg() {
		limit *= weightKg
	}
	result.LimitMg = limit

	dosesPerDay := float64(profile.Frequency.DosesPerDay())
	capDaily := func() bool {
		if doseMg*dosesPerDay <= limit {
			return false
		}
		result.DoseMg = limit / dosesPerDay
		result.Capped, result.Daily = true, true
		result.Warning = fmt.Sprintf("Dose capped at daily maximum of %.2fmg.", limit)
		return true
	}
	capSingle := func() bool {
		if doseMg <= limit {
			return false
		}
		result.DoseMg = limit
		result.Capped = true
		result.Warning = fmt.Sprintf("Dose capped at maximum of %.2fmg.", limit)
		return true
	}

	switch profile.MaxDose.Scope() {
	case entities.MaxDoseScopePerDose:
		capSingle()
	case entities.MaxDoseScopeDaily:
		capDaily()
	default:
		if !capDaily() {
			capSingle()
		}
	}

	return result
}
